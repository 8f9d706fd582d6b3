// Package api exposes the analyzer over HTTP.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/spendscan/internal/api/handlers"
	"github.com/dvloznov/spendscan/internal/api/middleware"
)

// Handlers groups the endpoint handlers. Statements and Jobs may be nil, in
// which case their routes answer 503.
type Handlers struct {
	Analyze    *handlers.AnalyzeHandler
	Statements *handlers.StatementsHandler
	Jobs       *handlers.JobsHandler
	Now        func() time.Time
}

// NewRouter builds the HTTP handler with the standard middleware chain.
func NewRouter(h Handlers, log zerolog.Logger) http.Handler {
	now := h.Now
	if now == nil {
		now = time.Now
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/api/analyze", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.Analyze.Analyze(w, r)
	})

	mux.HandleFunc("/api/statements", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		if h.Statements == nil {
			middleware.WriteError(w, http.StatusServiceUnavailable, "Statement uploads are disabled")
			return
		}
		h.Statements.Upload(w, r)
	})

	mux.HandleFunc("/api/statements/parse", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		if h.Statements == nil {
			middleware.WriteError(w, http.StatusServiceUnavailable, "Statement uploads are disabled")
			return
		}
		h.Statements.Parse(w, r)
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		if h.Jobs == nil {
			middleware.WriteError(w, http.StatusServiceUnavailable, "Background jobs are disabled")
			return
		}
		h.Jobs.ListJobs(w, r)
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		if h.Jobs == nil {
			middleware.WriteError(w, http.StatusServiceUnavailable, "Background jobs are disabled")
			return
		}
		jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
		if jobID == "" || strings.Contains(jobID, "/") {
			middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
			return
		}
		h.Jobs.GetJob(w, r, jobID)
	})

	mux.HandleFunc("/health", handlers.Health(now))

	return middleware.Chain(mux,
		middleware.Recovery(log),
		middleware.RequestID,
		middleware.Logger(log),
		middleware.CORS,
	)
}
