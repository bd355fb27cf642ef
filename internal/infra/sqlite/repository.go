package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/smsledger/internal/domain"
	"github.com/dvloznov/smsledger/internal/logger"
	"github.com/dvloznov/smsledger/internal/pipeline"
)

// ErrNotFound is returned by lookups of a missing row.
var ErrNotFound = errors.New("not found")

// Repository implements pipeline.Store on a sqlite database.
type Repository struct {
	db *sql.DB
}

var _ pipeline.Store = (*Repository)(nil)

// New wraps an already migrated database.
func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// OpenRepository opens the database at path and applies pending migrations.
func OpenRepository(path string) (*Repository, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db), nil
}

// DB exposes the underlying handle.
func (r *Repository) DB() *sql.DB { return r.db }

// Close closes the database.
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// StartScanRun inserts run, which must carry its id and status.
func (r *Repository) StartScanRun(ctx context.Context, run *domain.ScanRun) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO scan_runs(id, window_start, window_end, started_at, status)
	VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.WindowStart.UTC(), run.WindowEnd.UTC(), run.StartedAt.UTC(), string(run.Status))
	if err != nil {
		return fmt.Errorf("StartScanRun: %w", err)
	}
	return nil
}

// MarkScanRunFailed sets status=FAILED, finished_at and error_message. Failures
// are logged since the caller is already handling another error.
func (r *Repository) MarkScanRunFailed(ctx context.Context, runID string, scanErr error) {
	_, err := r.db.ExecContext(ctx, `
	UPDATE scan_runs SET status = ?, finished_at = ?, error_message = ?
	WHERE id = ?`,
		string(domain.ScanStatusFailed), now(), pipeline.TruncateError(scanErr), runID)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("run_id", runID).Msg("MarkScanRunFailed: update failed")
	}
}

// MarkScanRunSucceeded sets status=SUCCESS and stores the run counters.
func (r *Repository) MarkScanRunSucceeded(ctx context.Context, runID string, stats domain.ScanStats) error {
	res, err := r.db.ExecContext(ctx, `
	UPDATE scan_runs
	SET status = ?, finished_at = ?, error_message = '',
	    messages = ?, transactions = ?, accounts = ?, skipped = ?
	WHERE id = ?`,
		string(domain.ScanStatusSuccess), now(),
		stats.Messages, stats.Transactions, stats.Accounts, stats.Skipped, runID)
	if err != nil {
		return fmt.Errorf("MarkScanRunSucceeded: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("MarkScanRunSucceeded: run %s: %w", runID, ErrNotFound)
	}
	return nil
}

// GetScanRun loads one scan run.
func (r *Repository) GetScanRun(ctx context.Context, id string) (*domain.ScanRun, error) {
	var (
		run      domain.ScanRun
		status   string
		finished sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `
	SELECT id, window_start, window_end, started_at, finished_at, status, error_message,
	       messages, transactions, accounts, skipped
	FROM scan_runs WHERE id = ?`, id).Scan(
		&run.ID, &run.WindowStart, &run.WindowEnd, &run.StartedAt, &finished, &status, &run.ErrorMessage,
		&run.Stats.Messages, &run.Stats.Transactions, &run.Stats.Accounts, &run.Stats.Skipped)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("GetScanRun: %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetScanRun: %w", err)
	}
	run.Status = domain.ScanStatus(status)
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return &run, nil
}

// UpsertAccount adds or updates a known account.
func (r *Repository) UpsertAccount(ctx context.Context, a domain.Account) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO accounts(id, name, institution, account_type, subtype, number, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	ON CONFLICT(id) DO UPDATE SET
	 name=excluded.name,
	 institution=excluded.institution,
	 account_type=excluded.account_type,
	 subtype=excluded.subtype,
	 number=excluded.number,
	 updated_at=CURRENT_TIMESTAMP`,
		a.ID, a.Name, a.Institution, string(a.Type), a.Subtype, a.Number)
	if err != nil {
		return fmt.Errorf("UpsertAccount: %w", err)
	}
	return nil
}

// ListAccounts returns the known accounts ordered by name.
func (r *Repository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, institution, account_type, subtype, number FROM accounts ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		var (
			a   domain.Account
			typ string
		)
		if err := rows.Scan(&a.ID, &a.Name, &a.Institution, &typ, &a.Subtype, &a.Number); err != nil {
			return nil, fmt.Errorf("ListAccounts: scan: %w", err)
		}
		a.Type = domain.AccountType(typ)
		out = append(out, a)
	}
	return out, rows.Err()
}

// SeedCategories inserts the given categories, leaving existing ids alone.
func (r *Repository) SeedCategories(ctx context.Context, refs []domain.CategoryRef) error {
	return WithTx(r.db, func(tx *sql.Tx) error {
		for _, c := range refs {
			if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO categories(id, name, icon_token) VALUES (?, ?, ?)`,
				c.ID, c.DisplayName, c.IconToken); err != nil {
				return fmt.Errorf("SeedCategories: %s: %w", c.ID, err)
			}
		}
		return nil
	})
}

// ListCategories returns the category registry ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("ListCategories: %w", err)
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("ListCategories: scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// InsertTransactions stores txs under runID. Transactions whose source hash
// is already stored are skipped; the number of new rows is returned.
func (r *Repository) InsertTransactions(ctx context.Context, runID string, txs []domain.Transaction) (int, error) {
	inserted := 0
	err := WithTx(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sms_transactions(
		 id, scan_run_id, account_id, date, description, amount, currency, balance_after,
		 direction, merchant_name, category_id, category_name, sender, raw_body, source_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, t := range txs {
			res, err := stmt.ExecContext(ctx,
				t.ID, runID, nullString(t.AccountID), t.Date.UTC(), t.Description, t.Amount.String(), t.Currency,
				nullDecimal(t.BalanceAfter), string(t.Direction), nullString(t.MerchantName),
				t.CategoryID, t.CategoryName, t.Sender, t.RawBody, t.SourceHash)
			if err != nil {
				return fmt.Errorf("insert %s: %w", t.ID, err)
			}
			if n, err := res.RowsAffected(); err == nil {
				inserted += int(n)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("InsertTransactions: %w", err)
	}
	return inserted, nil
}

// ListTransactions returns the transactions dated within [from, to], oldest first.
func (r *Repository) ListTransactions(ctx context.Context, from, to time.Time) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, account_id, date, description, amount, currency, balance_after, direction,
	       merchant_name, category_id, category_name, sender, raw_body, source_hash
	FROM sms_transactions
	WHERE date >= ? AND date <= ?
	ORDER BY date, id`, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var (
			t         domain.Transaction
			accountID sql.NullString
			merchant  sql.NullString
			balance   decimal.NullDecimal
			direction string
		)
		if err := rows.Scan(&t.ID, &accountID, &t.Date, &t.Description, &t.Amount, &t.Currency, &balance,
			&direction, &merchant, &t.CategoryID, &t.CategoryName, &t.Sender, &t.RawBody, &t.SourceHash); err != nil {
			return nil, fmt.Errorf("ListTransactions: scan: %w", err)
		}
		t.Direction = domain.Direction(direction)
		if accountID.Valid {
			t.AccountID = &accountID.String
		}
		if merchant.Valid {
			t.MerchantName = &merchant.String
		}
		if balance.Valid {
			t.BalanceAfter = &balance.Decimal
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpsertDetectedAccounts merges accounts into the stored registry: sender ids
// are unioned and the newer observation wins.
func (r *Repository) UpsertDetectedAccounts(ctx context.Context, accounts []domain.DetectedAccount) error {
	err := WithTx(r.db, func(tx *sql.Tx) error {
		for _, a := range accounts {
			merged, err := mergeDetected(ctx, tx, a)
			if err != nil {
				return err
			}
			senders, err := json.Marshal(merged.ObservedSenderIDs)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
			INSERT INTO detected_accounts(id, institution, account_number_suffix, kind, last_transaction_at, observed_sender_ids, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(id) DO UPDATE SET
			 institution=excluded.institution,
			 account_number_suffix=excluded.account_number_suffix,
			 kind=excluded.kind,
			 last_transaction_at=excluded.last_transaction_at,
			 observed_sender_ids=excluded.observed_sender_ids,
			 updated_at=CURRENT_TIMESTAMP`,
				merged.ID, merged.Institution, merged.AccountNumberSuffix, string(merged.Kind),
				merged.LastTransactionAt.UTC(), string(senders)); err != nil {
				return fmt.Errorf("upsert %s: %w", a.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("UpsertDetectedAccounts: %w", err)
	}
	return nil
}

func mergeDetected(ctx context.Context, tx *sql.Tx, incoming domain.DetectedAccount) (domain.DetectedAccount, error) {
	existing, err := scanDetected(tx.QueryRowContext(ctx, `
	SELECT id, institution, account_number_suffix, kind, last_transaction_at, observed_sender_ids
	FROM detected_accounts WHERE id = ?`, incoming.ID))
	if errors.Is(err, sql.ErrNoRows) {
		return incoming, nil
	}
	if err != nil {
		return domain.DetectedAccount{}, err
	}

	merged := incoming
	if existing.LastTransactionAt.After(incoming.LastTransactionAt) {
		merged = existing
	}
	merged.ObservedSenderIDs = append([]string(nil), existing.ObservedSenderIDs...)
	for _, s := range incoming.ObservedSenderIDs {
		merged.AddSender(s)
	}
	return merged, nil
}

// ListDetectedAccounts returns the stored registry, most recently active first.
func (r *Repository) ListDetectedAccounts(ctx context.Context) ([]domain.DetectedAccount, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, institution, account_number_suffix, kind, last_transaction_at, observed_sender_ids
	FROM detected_accounts ORDER BY last_transaction_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("ListDetectedAccounts: %w", err)
	}
	defer rows.Close()

	var out []domain.DetectedAccount
	for rows.Next() {
		a, err := scanDetected(rows)
		if err != nil {
			return nil, fmt.Errorf("ListDetectedAccounts: scan: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDetected(row rowScanner) (domain.DetectedAccount, error) {
	var (
		a       domain.DetectedAccount
		kind    string
		senders string
	)
	if err := row.Scan(&a.ID, &a.Institution, &a.AccountNumberSuffix, &kind, &a.LastTransactionAt, &senders); err != nil {
		return domain.DetectedAccount{}, err
	}
	a.Kind = domain.AccountKind(kind)
	if err := json.Unmarshal([]byte(senders), &a.ObservedSenderIDs); err != nil {
		return domain.DetectedAccount{}, fmt.Errorf("observed_sender_ids of %s: %w", a.ID, err)
	}
	return a, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
