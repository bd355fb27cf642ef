// Package api wires the HTTP handlers and middleware into one http.Handler.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/smsledger/internal/api/handlers"
	"github.com/dvloznov/smsledger/internal/api/middleware"
	"github.com/dvloznov/smsledger/internal/jobs"
)

const maxBodyBytes = 8 << 20

// Deps are the collaborators of the API. Ledger may be nil, in which case
// only the store-free endpoints are served.
type Deps struct {
	Ledger     handlers.Ledger
	Publisher  jobs.Publisher
	JobStore   jobs.JobStore
	WindowDays int
	Log        zerolog.Logger
}

func methods(allowed map[string]http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h, ok := allowed[r.Method]; ok {
			h(w, r)
			return
		}
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// NewRouter returns the API handler with the middleware chain applied.
func NewRouter(d Deps) http.Handler {
	log := d.Log
	mux := http.NewServeMux()

	parseHandler := handlers.NewParseHandler(log)
	mux.HandleFunc("/api/parse", methods(map[string]http.HandlerFunc{
		http.MethodPost: parseHandler.Parse,
	}))

	categoriesHandler := handlers.NewCategoriesHandler(d.Ledger, log)
	mux.HandleFunc("/api/categories", methods(map[string]http.HandlerFunc{
		http.MethodGet: categoriesHandler.ListCategories,
	}))

	if d.Ledger != nil {
		transactionsHandler := handlers.NewTransactionsHandler(d.Ledger, log)
		accountsHandler := handlers.NewAccountsHandler(d.Ledger, log)

		mux.HandleFunc("/api/transactions", methods(map[string]http.HandlerFunc{
			http.MethodGet: transactionsHandler.ListTransactions,
		}))
		mux.HandleFunc("/api/accounts", methods(map[string]http.HandlerFunc{
			http.MethodGet: accountsHandler.ListAccounts,
		}))
		mux.HandleFunc("/api/accounts/detected", methods(map[string]http.HandlerFunc{
			http.MethodGet: accountsHandler.ListDetected,
		}))
	}

	if d.Publisher != nil {
		scansHandler := handlers.NewScansHandler(d.Publisher, d.WindowDays, log)
		mux.HandleFunc("/api/scans", methods(map[string]http.HandlerFunc{
			http.MethodPost: scansHandler.EnqueueScan,
		}))
	}

	if d.JobStore != nil {
		jobsHandler := handlers.NewJobsHandler(d.JobStore, log)
		mux.HandleFunc("/api/jobs", methods(map[string]http.HandlerFunc{
			http.MethodGet: jobsHandler.ListJobs,
		}))
		mux.HandleFunc("/api/jobs/", methods(map[string]http.HandlerFunc{
			http.MethodGet: func(w http.ResponseWriter, r *http.Request) {
				jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
				if jobID == "" {
					middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
					return
				}
				jobsHandler.GetJob(w, r, jobID)
			},
		}))
	}

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return middleware.Recovery(log)(
		middleware.RequestID(
			middleware.Logger(log)(
				middleware.CORS(
					middleware.MaxBody(maxBodyBytes)(mux),
				),
			),
		),
	)
}
