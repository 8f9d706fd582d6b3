package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/spendscan/internal/api/middleware"
	"github.com/dvloznov/spendscan/internal/domain"
	"github.com/dvloznov/spendscan/internal/jobs"
	"github.com/dvloznov/spendscan/internal/pipeline"
)

// maxJSONBody caps the size of an /api/analyze request body.
const maxJSONBody = 5 << 20

// Analyzer runs the analysis pipelines.
type Analyzer interface {
	Analyze(ctx context.Context, raws []domain.RawTransaction) (*pipeline.AnalysisResult, error)
	AnalyzePDF(ctx context.Context, pdfBytes []byte) (*pipeline.AnalysisResult, error)
}

// AnalyzeHandler handles analysis of transactions posted as JSON.
type AnalyzeHandler struct {
	analyzer Analyzer
	log      zerolog.Logger
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(analyzer Analyzer, log zerolog.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{
		analyzer: analyzer,
		log:      log,
	}
}

// Analyze handles POST /api/analyze
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Transactions json.RawMessage `json:"transactions"`
	}

	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Please provide transaction data")
		return
	}

	trimmed := bytes.TrimSpace(req.Transactions)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		middleware.WriteError(w, http.StatusBadRequest, "Please provide transaction data")
		return
	}

	var raws []domain.RawTransaction
	if err := json.Unmarshal(trimmed, &raws); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Please provide transaction data")
		return
	}
	if len(raws) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "No transactions to analyze")
		return
	}

	h.log.Info().Int("transactions", len(raws)).Msg("Analyzing transactions")

	result, err := h.analyzer.Analyze(r.Context(), raws)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoTransactions) {
			middleware.WriteError(w, http.StatusBadRequest, "No transactions to analyze")
			return
		}
		h.log.Error().Err(err).Msg("Analysis failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Analysis failed. Please try again.")
		return
	}

	middleware.WriteSuccess(w, http.StatusOK, result, nil)
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Job not found")
			return
		}
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	middleware.WriteSuccess(w, http.StatusOK, job, nil)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	filter := jobs.JobFilter{
		GCSURI: query.Get("gcs_uri"),
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	// Listings leave out the full analysis; GET /api/jobs/{id} returns it.
	for _, j := range jobsList {
		j.Result = nil
	}

	middleware.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	}, nil)
}

// Health handles GET /health
func Health(now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   now().Format(time.RFC3339),
		})
	}
}
