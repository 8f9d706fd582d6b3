package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/spendscan/internal/api/middleware"
	"github.com/dvloznov/spendscan/internal/extraction"
	"github.com/dvloznov/spendscan/internal/gcsuploader"
	"github.com/dvloznov/spendscan/internal/jobs"
	"github.com/dvloznov/spendscan/internal/pipeline"
)

// DefaultMaxUploadBytes is the largest statement PDF accepted.
const DefaultMaxUploadBytes = 10 << 20

// multipartOverhead is the slack allowed on top of the file for form framing.
const multipartOverhead = 1 << 20

// StatementsHandler handles statement PDF uploads.
type StatementsHandler struct {
	analyzer  Analyzer
	extractor extraction.Extractor
	uploader  gcsuploader.ObjectWriter
	publisher jobs.Publisher
	bucket    string
	maxBytes  int64
	log       zerolog.Logger
}

// StatementsConfig wires a StatementsHandler. Without Uploader, Publisher and
// Bucket, uploads are analyzed synchronously.
type StatementsConfig struct {
	Analyzer       Analyzer
	Extractor      extraction.Extractor
	Uploader       gcsuploader.ObjectWriter
	Publisher      jobs.Publisher
	Bucket         string
	MaxUploadBytes int64
}

// NewStatementsHandler creates a new statements handler.
func NewStatementsHandler(cfg StatementsConfig, log zerolog.Logger) *StatementsHandler {
	maxBytes := cfg.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &StatementsHandler{
		analyzer:  cfg.Analyzer,
		extractor: cfg.Extractor,
		uploader:  cfg.Uploader,
		publisher: cfg.Publisher,
		bucket:    cfg.Bucket,
		maxBytes:  maxBytes,
		log:       log,
	}
}

func (h *StatementsHandler) async() bool {
	return h.uploader != nil && h.publisher != nil && h.bucket != ""
}

// Upload handles POST /api/statements
// With a bucket configured the PDF is stored in GCS and analyzed by a
// background job; otherwise it is analyzed within the request.
func (h *StatementsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pdfBytes, filename, ok := h.readPDF(w, r)
	if !ok {
		return
	}

	if !h.async() {
		if h.analyzer == nil {
			middleware.WriteError(w, http.StatusServiceUnavailable, "Statement analysis is not configured")
			return
		}
		result, err := h.analyzer.AnalyzePDF(ctx, pdfBytes)
		if err != nil {
			if errors.Is(err, pipeline.ErrNoTransactions) {
				middleware.WriteError(w, http.StatusBadRequest, "No transactions to analyze")
				return
			}
			h.log.Error().Err(err).Str("filename", filename).Msg("Statement analysis failed")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to parse PDF. Please ensure it is a valid bank statement.")
			return
		}
		var validation interface{}
		if result.Validation != nil {
			validation = result.Validation
		}
		middleware.WriteSuccess(w, http.StatusOK, result, validation)
		return
	}

	jobID := uuid.New().String()
	objectName := gcsuploader.StatementObjectName(jobID, filename)

	gcsURI, err := h.uploader.UploadBytes(ctx, h.bucket, objectName, pdfBytes, "application/pdf")
	if err != nil {
		h.log.Error().Err(err).Str("object", objectName).Msg("Failed to upload statement")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	job := &jobs.AnalyzeStatementJob{
		JobID:    jobID,
		GCSURI:   gcsURI,
		Filename: filename,
	}
	if err := h.publisher.PublishAnalyzeStatement(ctx, job); err != nil {
		h.log.Error().Err(err).Str("gcs_uri", gcsURI).Msg("Failed to enqueue analysis job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue analysis job")
		return
	}

	h.log.Info().
		Str("job_id", job.JobID).
		Str("gcs_uri", gcsURI).
		Int("bytes", len(pdfBytes)).
		Msg("Analysis job enqueued")

	middleware.WriteSuccess(w, http.StatusAccepted, map[string]string{
		"job_id":  job.JobID,
		"gcs_uri": gcsURI,
		"status":  string(job.Status),
	}, nil)
}

// Parse handles POST /api/statements/parse
// It only extracts transactions, returning them with the reconciliation report.
func (h *StatementsHandler) Parse(w http.ResponseWriter, r *http.Request) {
	if h.extractor == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Statement parsing is not configured")
		return
	}

	pdfBytes, filename, ok := h.readPDF(w, r)
	if !ok {
		return
	}

	h.log.Info().Str("filename", filename).Int("bytes", len(pdfBytes)).Msg("PDF upload")

	stmt, err := h.extractor.Extract(r.Context(), pdfBytes)
	if err != nil {
		h.log.Error().Err(err).Str("filename", filename).Msg("PDF parsing failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to parse PDF. Please ensure it is a valid bank statement.")
		return
	}

	validation := extraction.ValidateStatement(stmt)
	middleware.WriteSuccess(w, http.StatusOK, stmt, validation)
}

// readPDF pulls the "file" form field out of a multipart request. On failure
// it has already written the error response.
func (h *StatementsHandler) readPDF(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	tooLarge := fmt.Sprintf("File too large. Maximum size is %dMB.", h.maxBytes>>20)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			middleware.WriteError(w, http.StatusBadRequest, tooLarge)
			return nil, "", false
		}
		middleware.WriteError(w, http.StatusBadRequest, "No file uploaded")
		return nil, "", false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "No file uploaded")
		return nil, "", false
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if !isPDF(filename, header.Header.Get("Content-Type")) {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid file type. Please upload a PDF.")
		return nil, "", false
	}
	if header.Size > h.maxBytes {
		middleware.WriteError(w, http.StatusBadRequest, tooLarge)
		return nil, "", false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read upload")
		middleware.WriteError(w, http.StatusBadRequest, "No file uploaded")
		return nil, "", false
	}
	if len(data) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "No file uploaded")
		return nil, "", false
	}

	return data, filename, true
}

func isPDF(filename, contentType string) bool {
	if strings.HasPrefix(strings.ToLower(contentType), "application/pdf") {
		return true
	}
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}
