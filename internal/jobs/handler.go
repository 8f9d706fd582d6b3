package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/spendscan/internal/logger"
	"github.com/dvloznov/spendscan/internal/pipeline"
)

// StatementAnalyzer runs the GCS analysis pipeline.
type StatementAnalyzer interface {
	AnalyzeGCS(ctx context.Context, gcsURI string) (*pipeline.AnalysisResult, string, error)
}

// NewAnalyzeStatementHandler returns a JobHandler that analyzes the statement
// a job points at and records the result on the job.
func NewAnalyzeStatementHandler(analyzer StatementAnalyzer) JobHandler {
	return func(ctx context.Context, job Job) error {
		j, ok := job.(*AnalyzeStatementJob)
		if !ok {
			return fmt.Errorf("%w: unsupported job type %q", ErrPermanent, job.GetType())
		}

		log := logger.WithFields(logger.FromContext(ctx), map[string]interface{}{
			"job_id":  j.JobID,
			"gcs_uri": j.GCSURI,
		})
		ctx = logger.WithContext(ctx, log)
		log.Info().Int("attempt", j.RetryCount+1).Msg("Analyzing statement")

		result, uri, err := analyzer.AnalyzeGCS(ctx, j.GCSURI)
		if err != nil {
			if errors.Is(err, pipeline.ErrNoTransactions) {
				return fmt.Errorf("%w: %w", ErrPermanent, err)
			}
			return err
		}

		j.Result = result
		j.ResultURI = uri
		return nil
	}
}
