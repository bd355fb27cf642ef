// Package pipeline drives the message source and the parser: it asks for
// read access, fetches one window of messages and turns them into
// transactions, detected accounts and stored scan runs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/smsledger/internal/domain"
	"github.com/dvloznov/smsledger/internal/logger"
	"github.com/dvloznov/smsledger/internal/parser"
)

// Pipeline is the orchestrator over one MessageSource. It holds no state
// between calls and is safe for concurrent use.
type Pipeline struct {
	source   MessageSource
	gate     PermissionGate
	currency string
	now      func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCurrency sets the currency recorded on converted transactions.
func WithCurrency(currency string) Option {
	return func(p *Pipeline) {
		if currency != "" {
			p.currency = currency
		}
	}
}

// WithClock replaces time.Now for scan run timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// New creates a Pipeline reading from source once gate grants access.
func New(source MessageSource, gate PermissionGate, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:   source,
		gate:     gate,
		currency: DefaultCurrency,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseTransactions fetches the window and returns one ParsedTransaction per
// transactional message. accounts is the caller's registry used for linking.
func (p *Pipeline) ParseTransactions(ctx context.Context, window Window, accounts []domain.Account) ([]domain.ParsedTransaction, error) {
	msgs, err := p.fetch(ctx, window)
	if err != nil {
		return nil, err
	}
	txs := parser.ParseMessages(msgs, accounts)

	log := logger.FromContext(ctx)
	log.Debug().
		Int("messages", len(msgs)).
		Int("transactions", len(txs)).
		Msg("parsed message window")
	return txs, nil
}

// DetectAccounts fetches the window and returns the accounts it mentions,
// most recently active first.
func (p *Pipeline) DetectAccounts(ctx context.Context, window Window) ([]domain.DetectedAccount, error) {
	msgs, err := p.fetch(ctx, window)
	if err != nil {
		return nil, err
	}
	accounts := parser.DetectAccounts(msgs)

	log := logger.FromContext(ctx)
	log.Debug().
		Int("messages", len(msgs)).
		Int("accounts", len(accounts)).
		Msg("detected accounts")
	return accounts, nil
}

// fetch asks the gate, then the source.
func (p *Pipeline) fetch(ctx context.Context, window Window) ([]domain.RawMessage, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	if err := p.requestAccess(ctx); err != nil {
		return nil, err
	}
	return p.list(ctx, window)
}

func (p *Pipeline) requestAccess(ctx context.Context) error {
	granted, err := p.gate.RequestReadAccess(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("requestAccess: %w", err)
	}
	if !granted {
		return ErrPermissionDenied
	}
	return nil
}

// list queries the source once. A cancelled context wins over whatever the
// source returned, so a partial batch is never parsed.
func (p *Pipeline) list(ctx context.Context, window Window) ([]domain.RawMessage, error) {
	msgs, err := p.source.List(ctx, window.Filter())
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &SourceUnavailableError{Err: err}
	}
	return msgs, nil
}
