package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/smsledger/internal/api/middleware"
	"github.com/dvloznov/smsledger/internal/domain"
	"github.com/dvloznov/smsledger/internal/jobs"
	"github.com/dvloznov/smsledger/internal/parser"
	"github.com/dvloznov/smsledger/internal/pipeline"
	"github.com/dvloznov/smsledger/internal/source"
)

const dateFormat = "2006-01-02"

// Ledger is the read side of a pipeline.Store. Both stores implement it.
type Ledger interface {
	ListTransactions(ctx context.Context, from, to time.Time) ([]domain.Transaction, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	ListDetectedAccounts(ctx context.Context) ([]domain.DetectedAccount, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

// ParseHandler parses posted messages without touching any store.
type ParseHandler struct {
	log zerolog.Logger
}

// NewParseHandler creates a new parse handler.
func NewParseHandler(log zerolog.Logger) *ParseHandler {
	return &ParseHandler{log: log}
}

type parseRequest struct {
	Messages json.RawMessage  `json:"messages"`
	Accounts []domain.Account `json:"accounts"`
}

type parseResponse struct {
	Transactions []domain.ParsedTransaction `json:"transactions"`
	Accounts     []domain.DetectedAccount   `json:"accounts"`
	Messages     int                        `json:"messages"`
	Skipped      int                        `json:"skipped_records"`
	Count        int                        `json:"count"`
}

// Parse handles POST /api/parse
func (h *ParseHandler) Parse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "messages is required")
		return
	}

	msgs, skipped, err := source.DecodeMessages(req.Messages)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid messages: "+err.Error())
		return
	}

	parsed := parser.ParseMessages(msgs, req.Accounts)
	detected := parser.DetectAccounts(msgs)
	if parsed == nil {
		parsed = []domain.ParsedTransaction{}
	}
	if detected == nil {
		detected = []domain.DetectedAccount{}
	}

	h.log.Debug().
		Int("messages", len(msgs)).
		Int("skipped", skipped).
		Int("transactions", len(parsed)).
		Msg("parsed posted messages")

	middleware.WriteJSON(w, http.StatusOK, parseResponse{
		Transactions: parsed,
		Accounts:     detected,
		Messages:     len(msgs),
		Skipped:      skipped,
		Count:        len(parsed),
	})
}

// ScansHandler enqueues scan jobs.
type ScansHandler struct {
	publisher  jobs.Publisher
	windowDays int
	log        zerolog.Logger
}

// NewScansHandler creates a new scans handler. windowDays applies to
// requests that name no window.
func NewScansHandler(publisher jobs.Publisher, windowDays int, log zerolog.Logger) *ScansHandler {
	return &ScansHandler{publisher: publisher, windowDays: windowDays, log: log}
}

// EnqueueScan handles POST /api/scans
func (h *ScansHandler) EnqueueScan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WindowStart time.Time `json:"window_start"`
		WindowEnd   time.Time `json:"window_end"`
		WindowDays  int       `json:"window_days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	job := &jobs.ScanJob{
		WindowStart: req.WindowStart,
		WindowEnd:   req.WindowEnd,
		WindowDays:  req.WindowDays,
	}
	if job.WindowDays <= 0 {
		job.WindowDays = h.windowDays
	}
	if !req.WindowStart.IsZero() || !req.WindowEnd.IsZero() {
		if err := job.Window(time.Now()).Validate(); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if err := h.publisher.PublishScan(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue scan job")
		middleware.WriteError(w, http.StatusServiceUnavailable, "Failed to enqueue scan")
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}

// TransactionsHandler handles transaction-related endpoints.
type TransactionsHandler struct {
	ledger Ledger
	now    func() time.Time
	log    zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(ledger Ledger, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{ledger: ledger, now: time.Now, log: log}
}

// ListTransactions handles GET /api/transactions?start_date=YYYY-MM-DD&end_date=YYYY-MM-DD
// Both dates are inclusive; the default is the last 30 days.
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	now := h.now().UTC()
	start := now.AddDate(0, 0, -pipeline.DefaultWindowDays)
	end := now

	if s := r.URL.Query().Get("start_date"); s != "" {
		d, err := time.Parse(dateFormat, s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid start_date format, expected YYYY-MM-DD")
			return
		}
		start = d
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		d, err := time.Parse(dateFormat, s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid end_date format, expected YYYY-MM-DD")
			return
		}
		end = d.Add(24*time.Hour - time.Nanosecond)
	}
	if end.Before(start) {
		middleware.WriteError(w, http.StatusBadRequest, "end_date is before start_date")
		return
	}

	txs, err := h.ledger.ListTransactions(r.Context(), start, end)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

// AccountsHandler serves the known and the detected account registries.
type AccountsHandler struct {
	ledger Ledger
	log    zerolog.Logger
}

// NewAccountsHandler creates a new accounts handler.
func NewAccountsHandler(ledger Ledger, log zerolog.Logger) *AccountsHandler {
	return &AccountsHandler{ledger: ledger, log: log}
}

// ListAccounts handles GET /api/accounts
func (h *AccountsHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.ledger.ListAccounts(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list accounts")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list accounts")
		return
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": accounts,
		"count":    len(accounts),
	})
}

// ListDetected handles GET /api/accounts/detected
func (h *AccountsHandler) ListDetected(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.ledger.ListDetectedAccounts(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list detected accounts")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list detected accounts")
		return
	}
	if accounts == nil {
		accounts = []domain.DetectedAccount{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"accounts": accounts,
		"count":    len(accounts),
	})
}

// CategoriesHandler handles category-related endpoints.
type CategoriesHandler struct {
	ledger Ledger
	log    zerolog.Logger
}

// NewCategoriesHandler creates a new categories handler.
func NewCategoriesHandler(ledger Ledger, log zerolog.Logger) *CategoriesHandler {
	return &CategoriesHandler{ledger: ledger, log: log}
}

// ListCategories handles GET /api/categories. Without a store it returns
// the built-in vocabulary.
func (h *CategoriesHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	if h.ledger == nil {
		refs := parser.Categories()
		middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"categories": refs,
			"count":      len(refs),
		})
		return
	}

	categories, err := h.ledger.ListCategories(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list categories")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list categories")
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
	})
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// GetJob handles GET /api/jobs/:jobId
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if errors.Is(err, jobs.ErrJobNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs?status=&limit=&offset=
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := jobs.JobFilter{Status: jobs.JobStatus(q.Get("status"))}

	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		if s := q.Get(name); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				middleware.WriteError(w, http.StatusBadRequest, "Invalid "+name)
				return
			}
			*dst = n
		}
	}

	list, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  list,
		"count": len(list),
	})
}
