package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/smsledger/internal/domain"
	"github.com/dvloznov/smsledger/internal/jobs"
	"github.com/dvloznov/smsledger/internal/jobs/inmemory"
)

type mockLedger struct {
	ListTransactionsFunc     func(ctx context.Context, from, to time.Time) ([]domain.Transaction, error)
	ListAccountsFunc         func(ctx context.Context) ([]domain.Account, error)
	ListDetectedAccountsFunc func(ctx context.Context) ([]domain.DetectedAccount, error)
	ListCategoriesFunc       func(ctx context.Context) ([]domain.Category, error)
}

func (m *mockLedger) ListTransactions(ctx context.Context, from, to time.Time) ([]domain.Transaction, error) {
	if m.ListTransactionsFunc != nil {
		return m.ListTransactionsFunc(ctx, from, to)
	}
	return nil, nil
}

func (m *mockLedger) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	if m.ListAccountsFunc != nil {
		return m.ListAccountsFunc(ctx)
	}
	return nil, nil
}

func (m *mockLedger) ListDetectedAccounts(ctx context.Context) ([]domain.DetectedAccount, error) {
	if m.ListDetectedAccountsFunc != nil {
		return m.ListDetectedAccountsFunc(ctx)
	}
	return nil, nil
}

func (m *mockLedger) ListCategories(ctx context.Context) ([]domain.Category, error) {
	if m.ListCategoriesFunc != nil {
		return m.ListCategoriesFunc(ctx)
	}
	return nil, nil
}

type testServer struct {
	handler http.Handler
	store   *inmemory.Store
	queue   *inmemory.Queue
}

func newTestServer(t *testing.T, ledger *mockLedger) *testServer {
	t.Helper()
	store := inmemory.NewStore()
	queue := inmemory.NewQueue(10, store)
	t.Cleanup(func() { _ = queue.Close() })

	d := Deps{Publisher: queue, JobStore: store, WindowDays: 30, Log: zerolog.Nop()}
	if ledger != nil {
		d.Ledger = ledger
	}
	return &testServer{handler: NewRouter(d), store: store, queue: queue}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(method, path, r))
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "healthy")
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestParse(t *testing.T) {
	s := newTestServer(t, nil)
	body := `{
		"messages": [
			{"sender": "HDFCBK", "body": "Rs.500 debited from your A/c XX1234 on 12-01-24 at AMAZON. Avl Bal Rs.4500", "date": 1705055400000},
			{"sender": "HDFCBK", "body": "Your OTP for login is 482931", "date": 1705055500000},
			{"sender": "HDFCBK", "body": null, "date": 1705055600000}
		]
	}`

	rec := s.do(t, http.MethodPost, "/api/parse", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Transactions []domain.ParsedTransaction `json:"transactions"`
		Accounts     []domain.DetectedAccount   `json:"accounts"`
		Messages     int                        `json:"messages"`
		Skipped      int                        `json:"skipped_records"`
		Count        int                        `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Messages)
	require.Equal(t, 1, resp.Skipped)
	require.Equal(t, 1, resp.Count)
	require.Len(t, resp.Transactions, 1)
	require.Equal(t, domain.DirectionDebit, resp.Transactions[0].Direction)
	require.True(t, resp.Transactions[0].Amount.Equal(decimal.NewFromInt(500)))
	require.Len(t, resp.Accounts, 1)
	require.Equal(t, "hdfc-1234", resp.Accounts[0].ID)
}

func TestParse_BadRequests(t *testing.T) {
	s := newTestServer(t, nil)
	tests := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"invalid json", http.MethodPost, `{`, http.StatusBadRequest},
		{"missing messages", http.MethodPost, `{}`, http.StatusBadRequest},
		{"messages not an array", http.MethodPost, `{"messages": 42}`, http.StatusBadRequest},
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, "/api/parse", tt.body)
			require.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestScansAndJobs(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/scans", "")
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var created map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created["job_id"])
	require.Equal(t, string(jobs.JobStatusPending), created["status"])

	rec = s.do(t, http.MethodGet, "/api/jobs/"+created["job_id"], "")
	require.Equal(t, http.StatusOK, rec.Code)
	var job jobs.ScanJob
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	require.Equal(t, created["job_id"], job.JobID)
	require.Equal(t, 30, job.WindowDays)

	rec = s.do(t, http.MethodPost, "/api/scans", `{"window_start": "2024-01-01T00:00:00Z", "window_end": "2024-01-31T00:00:00Z"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/jobs?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Jobs  []jobs.ScanJob `json:"jobs"`
		Count int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)

	rec = s.do(t, http.MethodGet, "/api/jobs/missing", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/jobs?limit=x", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScans_InvalidWindow(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodPost, "/api/scans", `{"window_start": "2024-02-01T00:00:00Z", "window_end": "2024-01-01T00:00:00Z"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/scans", `not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransactions(t *testing.T) {
	var gotFrom, gotTo time.Time
	ledger := &mockLedger{
		ListTransactionsFunc: func(ctx context.Context, from, to time.Time) ([]domain.Transaction, error) {
			gotFrom, gotTo = from, to
			return []domain.Transaction{{ID: "tx-1", Amount: decimal.NewFromInt(-500), Currency: "INR"}}, nil
		},
	}
	s := newTestServer(t, ledger)

	rec := s.do(t, http.MethodGet, "/api/transactions?start_date=2024-01-01&end_date=2024-01-31", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), `"tx-1"`)
	require.True(t, gotFrom.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, 31, gotTo.Day())
	require.Equal(t, 23, gotTo.Hour())

	tests := []struct {
		name  string
		query string
	}{
		{"bad start", "?start_date=01/01/2024"},
		{"bad end", "?end_date=yesterday"},
		{"inverted", "?start_date=2024-02-01&end_date=2024-01-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, "/api/transactions"+tt.query, "")
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestLedgerErrors(t *testing.T) {
	boom := errors.New("boom")
	ledger := &mockLedger{
		ListTransactionsFunc: func(ctx context.Context, from, to time.Time) ([]domain.Transaction, error) {
			return nil, boom
		},
		ListDetectedAccountsFunc: func(ctx context.Context) ([]domain.DetectedAccount, error) {
			return nil, boom
		},
	}
	s := newTestServer(t, ledger)

	require.Equal(t, http.StatusInternalServerError, s.do(t, http.MethodGet, "/api/transactions", "").Code)
	require.Equal(t, http.StatusInternalServerError, s.do(t, http.MethodGet, "/api/accounts/detected", "").Code)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/accounts", "").Code)
}

func TestCategories(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"shopping"`)

	s = newTestServer(t, &mockLedger{
		ListCategoriesFunc: func(ctx context.Context) ([]domain.Category, error) {
			return []domain.Category{{ID: "c1", Name: "Groceries"}}, nil
		},
	})
	rec = s.do(t, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Groceries")

	rec = s.do(t, http.MethodPost, "/api/categories", "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRoutesWithoutLedger(t *testing.T) {
	s := newTestServer(t, nil)
	require.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/transactions", "").Code)
}
