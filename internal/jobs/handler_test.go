package jobs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dvloznov/spendscan/internal/pipeline"
)

type mockAnalyzer struct {
	AnalyzeGCSFunc func(ctx context.Context, gcsURI string) (*pipeline.AnalysisResult, string, error)
}

func (m *mockAnalyzer) AnalyzeGCS(ctx context.Context, gcsURI string) (*pipeline.AnalysisResult, string, error) {
	return m.AnalyzeGCSFunc(ctx, gcsURI)
}

type otherJob struct{}

func (otherJob) GetID() string        { return "x" }
func (otherJob) GetType() JobType     { return "other" }
func (otherJob) GetStatus() JobStatus { return JobStatusPending }

func TestAnalyzeStatementHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("records result", func(t *testing.T) {
		var gotURI string
		handler := NewAnalyzeStatementHandler(&mockAnalyzer{
			AnalyzeGCSFunc: func(ctx context.Context, gcsURI string) (*pipeline.AnalysisResult, string, error) {
				gotURI = gcsURI
				return &pipeline.AnalysisResult{RecurrenceStrategy: "whitelist"}, "gs://r/results/jan.json", nil
			},
		})

		job := &AnalyzeStatementJob{JobID: "j1", GCSURI: "gs://b/jan.pdf"}
		if err := handler(ctx, job); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotURI != "gs://b/jan.pdf" {
			t.Errorf("analyzed %q", gotURI)
		}
		if job.Result == nil || job.ResultURI != "gs://r/results/jan.json" {
			t.Errorf("job not updated: %+v", job)
		}
	})

	t.Run("no transactions is permanent", func(t *testing.T) {
		handler := NewAnalyzeStatementHandler(&mockAnalyzer{
			AnalyzeGCSFunc: func(ctx context.Context, gcsURI string) (*pipeline.AnalysisResult, string, error) {
				return nil, "", fmt.Errorf("pipeline step 2 failed: %w", pipeline.ErrNoTransactions)
			},
		})
		err := handler(ctx, &AnalyzeStatementJob{JobID: "j2"})
		if !errors.Is(err, ErrPermanent) || !errors.Is(err, pipeline.ErrNoTransactions) {
			t.Errorf("error = %v, want permanent no-transactions error", err)
		}
	})

	t.Run("other errors are retryable", func(t *testing.T) {
		handler := NewAnalyzeStatementHandler(&mockAnalyzer{
			AnalyzeGCSFunc: func(ctx context.Context, gcsURI string) (*pipeline.AnalysisResult, string, error) {
				return nil, "", errors.New("gemini unavailable")
			},
		})
		err := handler(ctx, &AnalyzeStatementJob{JobID: "j3"})
		if err == nil || errors.Is(err, ErrPermanent) {
			t.Errorf("error = %v, want retryable error", err)
		}
	})

	t.Run("unsupported job type", func(t *testing.T) {
		handler := NewAnalyzeStatementHandler(&mockAnalyzer{})
		if err := handler(ctx, otherJob{}); !errors.Is(err, ErrPermanent) {
			t.Errorf("error = %v, want ErrPermanent", err)
		}
	})
}
