package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/smsledger/internal/domain"
	"github.com/dvloznov/smsledger/internal/logger"
	"github.com/dvloznov/smsledger/internal/parser"
)

// Step is a single stage of a scan run.
type Step interface {
	Name() string
	Execute(ctx context.Context, state *ScanState) error
}

// ScanState holds the shared state across all steps of one scan.
type ScanState struct {
	Window     Window
	RunID      string
	Messages   []domain.RawMessage
	Accounts   []domain.Account
	Categories []domain.Category
	Parsed     []domain.ParsedTransaction
	Detected   []domain.DetectedAccount
	Converted  []domain.Transaction
	Inserted   int
}

// Stats summarises the state for the scan run record.
func (s *ScanState) Stats() domain.ScanStats {
	return domain.ScanStats{
		Messages:     len(s.Messages),
		Transactions: s.Inserted,
		Accounts:     len(s.Detected),
		Skipped:      len(s.Messages) - s.Inserted,
	}
}

// ScanResult is what Scan reports back to its caller.
type ScanResult struct {
	RunID        string `json:"run_id"`
	Messages     int    `json:"messages"`
	Transactions int    `json:"transactions"`
	Accounts     int    `json:"accounts"`
	Skipped      int    `json:"skipped"`
}

// Step 1: StartScanRunStep records the run with status RUNNING.
type StartScanRunStep struct {
	store Store
	now   func() time.Time
}

func (s *StartScanRunStep) Name() string { return "start_scan_run" }

func (s *StartScanRunStep) Execute(ctx context.Context, state *ScanState) error {
	if err := state.Window.Validate(); err != nil {
		return err
	}
	run := domain.ScanRun{
		ID:          uuid.NewString(),
		WindowStart: state.Window.Start,
		WindowEnd:   state.Window.End,
		StartedAt:   s.now(),
		Status:      domain.ScanStatusRunning,
	}
	if err := s.store.StartScanRun(ctx, &run); err != nil {
		return err
	}
	state.RunID = run.ID
	return nil
}

// Step 2: RequestAccessStep asks the permission gate for read access.
type RequestAccessStep struct {
	pipeline *Pipeline
}

func (s *RequestAccessStep) Name() string { return "request_access" }

func (s *RequestAccessStep) Execute(ctx context.Context, state *ScanState) error {
	return s.pipeline.requestAccess(ctx)
}

// Step 3: FetchMessagesStep fetches the window from the message source.
type FetchMessagesStep struct {
	pipeline *Pipeline
}

func (s *FetchMessagesStep) Name() string { return "fetch_messages" }

func (s *FetchMessagesStep) Execute(ctx context.Context, state *ScanState) error {
	msgs, err := s.pipeline.list(ctx, state.Window)
	if err != nil {
		return err
	}
	state.Messages = msgs
	return nil
}

// Step 4: LoadRegistriesStep loads the caller's accounts and categories.
type LoadRegistriesStep struct {
	store Store
}

func (s *LoadRegistriesStep) Name() string { return "load_registries" }

func (s *LoadRegistriesStep) Execute(ctx context.Context, state *ScanState) error {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return err
	}
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return err
	}
	state.Accounts = accounts
	state.Categories = categories
	return nil
}

// Step 5: ParseTransactionsStep runs the parser over the fetched messages.
type ParseTransactionsStep struct{}

func (s *ParseTransactionsStep) Name() string { return "parse_transactions" }

func (s *ParseTransactionsStep) Execute(ctx context.Context, state *ScanState) error {
	state.Parsed = parser.ParseMessages(state.Messages, state.Accounts)
	return nil
}

// Step 6: DetectAccountsStep builds the detected account registry.
type DetectAccountsStep struct{}

func (s *DetectAccountsStep) Name() string { return "detect_accounts" }

func (s *DetectAccountsStep) Execute(ctx context.Context, state *ScanState) error {
	state.Detected = parser.DetectAccounts(state.Messages)
	return nil
}

// Step 7: ConvertStep maps parsed transactions into storage records.
type ConvertStep struct {
	currency string
}

func (s *ConvertStep) Name() string { return "convert" }

func (s *ConvertStep) Execute(ctx context.Context, state *ScanState) error {
	state.Converted = ConvertTransactions(state.Parsed, state.Categories, s.currency)
	return nil
}

// Step 8: StoreResultsStep writes transactions and detected accounts.
type StoreResultsStep struct {
	store Store
}

func (s *StoreResultsStep) Name() string { return "store_results" }

func (s *StoreResultsStep) Execute(ctx context.Context, state *ScanState) error {
	inserted, err := s.store.InsertTransactions(ctx, state.RunID, state.Converted)
	if err != nil {
		return err
	}
	state.Inserted = inserted
	return s.store.UpsertDetectedAccounts(ctx, state.Detected)
}

// Step 9: MarkSuccessStep marks the scan run as SUCCESS.
type MarkSuccessStep struct {
	store Store
}

func (s *MarkSuccessStep) Name() string { return "mark_success" }

func (s *MarkSuccessStep) Execute(ctx context.Context, state *ScanState) error {
	return s.store.MarkScanRunSucceeded(ctx, state.RunID, state.Stats())
}

// scanSteps is the ordered step list of Scan.
func (p *Pipeline) scanSteps(store Store) []Step {
	return []Step{
		&StartScanRunStep{store: store, now: p.now},
		&RequestAccessStep{pipeline: p},
		&FetchMessagesStep{pipeline: p},
		&LoadRegistriesStep{store: store},
		&ParseTransactionsStep{},
		&DetectAccountsStep{},
		&ConvertStep{currency: p.currency},
		&StoreResultsStep{store: store},
		&MarkSuccessStep{store: store},
	}
}

// Scan fetches the window, parses and detects, then stores everything under
// a new scan run. Once the run is recorded, any failing step marks it FAILED.
func (p *Pipeline) Scan(ctx context.Context, window Window, store Store) (*ScanResult, error) {
	state := &ScanState{Window: window}
	log := logger.FromContext(ctx)

	for i, step := range p.scanSteps(store) {
		if err := step.Execute(ctx, state); err != nil {
			if state.RunID != "" {
				store.MarkScanRunFailed(context.WithoutCancel(ctx), state.RunID, err)
			}
			log.Error().Err(err).Str("run_id", state.RunID).Str("step", step.Name()).Msg("scan step failed")
			return nil, fmt.Errorf("scan step %d (%s) failed: %w", i+1, step.Name(), err)
		}
	}

	stats := state.Stats()
	log.Info().
		Str("run_id", state.RunID).
		Int("messages", stats.Messages).
		Int("transactions", stats.Transactions).
		Int("accounts", stats.Accounts).
		Int("skipped", stats.Skipped).
		Msg("scan completed")

	return &ScanResult{
		RunID:        state.RunID,
		Messages:     stats.Messages,
		Transactions: stats.Transactions,
		Accounts:     stats.Accounts,
		Skipped:      stats.Skipped,
	}, nil
}

// TruncateError returns the error text kept on a failed run.
func TruncateError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) > maxErrorMessageLen {
		msg = msg[:maxErrorMessageLen]
	}
	return msg
}
