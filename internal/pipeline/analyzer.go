package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/spendscan/internal/classify"
	"github.com/dvloznov/spendscan/internal/domain"
	"github.com/dvloznov/spendscan/internal/extraction"
	"github.com/dvloznov/spendscan/internal/insights"
	"github.com/dvloznov/spendscan/internal/merchant"
	"github.com/dvloznov/spendscan/internal/narrative"
	"github.com/dvloznov/spendscan/internal/recurrence"
	"github.com/dvloznov/spendscan/internal/rules"
)

// Config selects the collaborators of an Analyzer. Only Rules-derived
// components are required; a nil Narrator always produces the fallback
// insight, and the PDF entry points need an Extractor (plus Storage for GCS).
type Config struct {
	Rules     *rules.Set
	Strategy  string
	Narrator  narrative.Generator
	Extractor extraction.Extractor
	Storage   StorageService
	Results   ResultStore
	Now       func() time.Time
}

// Analyzer runs the analysis pipelines.
type Analyzer struct {
	classifier *classify.Classifier
	detector   *recurrence.Detector
	metrics    *insights.Engine
	narrator   narrative.Generator
	extractor  extraction.Extractor
	storage    StorageService
	results    ResultStore
	now        func() time.Time
}

// NewAnalyzer builds an Analyzer. A nil rule set uses the built-in tables.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	set := cfg.Rules
	if set == nil {
		set = rules.Default()
	}

	normalizer, err := merchant.New(set)
	if err != nil {
		return nil, fmt.Errorf("NewAnalyzer: %w", err)
	}
	detector, err := recurrence.NewDetectorFromConfig(cfg.Strategy, set)
	if err != nil {
		return nil, fmt.Errorf("NewAnalyzer: %w", err)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Analyzer{
		classifier: classify.New(set, normalizer),
		detector:   detector,
		metrics:    insights.NewEngine(insights.NewLeakDetector(set)),
		narrator:   cfg.Narrator,
		extractor:  cfg.Extractor,
		storage:    cfg.Storage,
		results:    cfg.Results,
		now:        now,
	}, nil
}

// Strategy names the recurrence strategy in use.
func (a *Analyzer) Strategy() string {
	return a.detector.Strategy()
}

func (a *Analyzer) analysisSteps() []PipelineStep {
	return []PipelineStep{
		&ValidateStep{},
		&CategorizeStep{Classifier: a.classifier},
		&DetectSubscriptionsStep{Detector: a.detector},
		&AggregateStep{Metrics: a.metrics, Strategy: a.detector.Strategy()},
		&NarrativeStep{Generator: a.narrator},
		&FinalizeStep{Now: a.now},
	}
}

// NewTransactionAnalysisPipeline analyzes transactions already in the state.
func (a *Analyzer) NewTransactionAnalysisPipeline() *Pipeline {
	return NewPipeline(a.analysisSteps()...)
}

// NewStatementAnalysisPipeline analyzes the PDF already in the state.
func (a *Analyzer) NewStatementAnalysisPipeline() *Pipeline {
	steps := []PipelineStep{&ExtractStep{Extractor: a.extractor}}
	return NewPipeline(append(steps, a.analysisSteps()...)...)
}

// NewGCSAnalysisPipeline fetches, analyzes and stores a statement in GCS.
func (a *Analyzer) NewGCSAnalysisPipeline() *Pipeline {
	steps := []PipelineStep{
		&FetchPDFStep{Storage: a.storage},
		&ExtractStep{Extractor: a.extractor},
	}
	steps = append(steps, a.analysisSteps()...)
	steps = append(steps, &StoreResultStep{Store: a.results})
	return NewPipeline(steps...)
}

// Analyze runs the core analysis over raw transactions.
func (a *Analyzer) Analyze(ctx context.Context, raws []domain.RawTransaction) (*AnalysisResult, error) {
	state := &PipelineState{RawTransactions: raws}
	if err := a.NewTransactionAnalysisPipeline().Execute(ctx, state); err != nil {
		return nil, fmt.Errorf("Analyze: %w", err)
	}
	return state.Result, nil
}

// AnalyzePDF extracts and analyzes a statement PDF.
func (a *Analyzer) AnalyzePDF(ctx context.Context, pdfBytes []byte) (*AnalysisResult, error) {
	if a.extractor == nil {
		return nil, fmt.Errorf("AnalyzePDF: no extractor configured")
	}
	state := &PipelineState{PDFBytes: pdfBytes}
	if err := a.NewStatementAnalysisPipeline().Execute(ctx, state); err != nil {
		return nil, fmt.Errorf("AnalyzePDF: %w", err)
	}
	return state.Result, nil
}

// AnalyzeGCS analyzes the statement at gcsURI. The returned URI is where the
// result was stored, empty without a ResultStore.
func (a *Analyzer) AnalyzeGCS(ctx context.Context, gcsURI string) (*AnalysisResult, string, error) {
	if a.extractor == nil || a.storage == nil {
		return nil, "", fmt.Errorf("AnalyzeGCS: extractor and storage are required")
	}
	state := &PipelineState{GCSURI: gcsURI}
	if err := a.NewGCSAnalysisPipeline().Execute(ctx, state); err != nil {
		return nil, "", fmt.Errorf("AnalyzeGCS: %w", err)
	}
	return state.Result, state.ResultURI, nil
}
