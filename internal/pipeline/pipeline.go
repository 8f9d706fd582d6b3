// Package pipeline wires the analysis stages into a sequence of steps:
// fetch, extract, validate, categorize, detect subscriptions, aggregate,
// narrate and store. Each step reads and extends a shared PipelineState.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/spendscan/internal/domain"
	"github.com/dvloznov/spendscan/internal/extraction"
)

// ErrNoTransactions is returned when there is nothing to analyze.
var ErrNoTransactions = errors.New("no transactions to analyze")

// PipelineStep represents a single step in the analysis pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	GCSURI          string
	PDFBytes        []byte
	Statement       *extraction.ParsedStatement
	Validation      *extraction.ValidationResult
	RawTransactions []domain.RawTransaction
	Transactions    []domain.CategorizedTransaction
	Subscriptions   []domain.Subscription
	Result          *AnalysisResult
	ResultURI       string
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("pipeline step %d cancelled: %w", i+1, err)
		}
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}
