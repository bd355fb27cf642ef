package pipeline

import (
	"context"
	"time"

	"github.com/dvloznov/smsledger/internal/domain"
)

// Filter selects messages from a MessageSource. Both bounds are inclusive
// Unix milliseconds.
type Filter struct {
	Box           string
	MinDateMillis int64
	MaxDateMillis int64
}

// Contains reports whether a message with the given box and timestamp passes
// the filter. Messages without a box are treated as inbox messages.
func (f Filter) Contains(box string, ts time.Time) bool {
	if box == "" {
		box = InboxBox
	}
	if f.Box != "" && box != f.Box {
		return false
	}
	ms := ts.UnixMilli()
	return ms >= f.MinDateMillis && ms <= f.MaxDateMillis
}

// MessageSource yields the raw messages of a date range. It is queried once
// per call and only after the PermissionGate granted access.
type MessageSource interface {
	List(ctx context.Context, filter Filter) ([]domain.RawMessage, error)
}

// PermissionGate decides whether messages may be read at all.
type PermissionGate interface {
	RequestReadAccess(ctx context.Context) (bool, error)
}

// Store persists scan output. The sqlite and BigQuery repositories implement it.
type Store interface {
	StartScanRun(ctx context.Context, run *domain.ScanRun) error
	MarkScanRunFailed(ctx context.Context, runID string, scanErr error)
	MarkScanRunSucceeded(ctx context.Context, runID string, stats domain.ScanStats) error

	ListAccounts(ctx context.Context) ([]domain.Account, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)

	// InsertTransactions stores txs and returns how many were new; rows whose
	// SourceHash is already stored are not inserted again.
	InsertTransactions(ctx context.Context, runID string, txs []domain.Transaction) (int, error)
	UpsertDetectedAccounts(ctx context.Context, accounts []domain.DetectedAccount) error
}
