package pipeline

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dvloznov/spendscan/internal/analytics"
	"github.com/dvloznov/spendscan/internal/classify"
	"github.com/dvloznov/spendscan/internal/domain"
	"github.com/dvloznov/spendscan/internal/extraction"
	"github.com/dvloznov/spendscan/internal/insights"
	"github.com/dvloznov/spendscan/internal/logger"
	"github.com/dvloznov/spendscan/internal/narrative"
	"github.com/dvloznov/spendscan/internal/recurrence"
)

// FetchPDFStep fetches the statement PDF from GCS.
type FetchPDFStep struct {
	Storage StorageService
}

func (s *FetchPDFStep) Execute(ctx context.Context, state *PipelineState) error {
	pdfBytes, err := s.Storage.FetchFromGCS(ctx, state.GCSURI)
	if err != nil {
		return fmt.Errorf("FetchPDFStep: %w", err)
	}
	state.PDFBytes = pdfBytes
	return nil
}

// ExtractStep reads transactions out of the PDF.
type ExtractStep struct {
	Extractor extraction.Extractor
}

func (s *ExtractStep) Execute(ctx context.Context, state *PipelineState) error {
	stmt, err := s.Extractor.Extract(ctx, state.PDFBytes)
	if err != nil {
		return fmt.Errorf("ExtractStep: %w", err)
	}
	state.Statement = stmt
	state.RawTransactions = stmt.Transactions
	return nil
}

// ValidateStep reconciles the extracted statement with its printed totals
// and drops line items that fail the transaction schema. A reconciliation
// mismatch is reported, not fatal.
type ValidateStep struct{}

func (s *ValidateStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)

	kept := make([]domain.RawTransaction, 0, len(state.RawTransactions))
	for i, t := range state.RawTransactions {
		if err := extraction.ValidateRawTransaction(t); err != nil {
			log.Warn().Err(err).Int("index", i).Msg("Dropping invalid transaction")
			continue
		}
		kept = append(kept, t)
	}
	state.RawTransactions = kept

	if state.Statement != nil {
		state.Statement.Transactions = kept
		res := extraction.ValidateStatement(state.Statement)
		state.Validation = &res
		if !res.IsValid {
			log.Warn().Strs("warnings", res.Warnings).Msg("Statement totals do not reconcile")
		}
	}

	if len(kept) == 0 {
		return ErrNoTransactions
	}
	return nil
}

// CategorizeStep cleans merchants and assigns categories.
type CategorizeStep struct {
	Classifier *classify.Classifier
}

func (s *CategorizeStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Transactions = s.Classifier.CategorizeAll(state.RawTransactions)
	return nil
}

// DetectSubscriptionsStep finds recurring charges.
type DetectSubscriptionsStep struct {
	Detector *recurrence.Detector
}

func (s *DetectSubscriptionsStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Subscriptions = s.Detector.Detect(state.Transactions)
	return nil
}

// AggregateStep computes the summary, breakdowns and metrics. The
// aggregations are independent and run concurrently.
type AggregateStep struct {
	Metrics       *insights.Engine
	TopMerchantsN int
	Strategy      string
}

func (s *AggregateStep) Execute(ctx context.Context, state *PipelineState) error {
	txs, subs := state.Transactions, state.Subscriptions
	n := s.TopMerchantsN
	if n <= 0 {
		n = analytics.DefaultTopMerchants
	}

	result := &AnalysisResult{
		Transactions:       txs,
		Subscriptions:      subs,
		RecurrenceStrategy: s.Strategy,
		Statement:          statementInfo(state.Statement),
		Validation:         state.Validation,
	}

	var g errgroup.Group
	g.Go(func() error {
		result.Summary = analytics.Summary(txs, subs)
		return nil
	})
	g.Go(func() error {
		result.CategoryBreakdown = analytics.CategoryBreakdown(txs)
		return nil
	})
	g.Go(func() error {
		result.TopMerchants = analytics.TopMerchants(txs, n)
		return nil
	})
	g.Go(func() error {
		result.SubscriptionAudit = analytics.SubscriptionAudit(subs)
		return nil
	})
	g.Go(func() error {
		result.Metrics = s.Metrics.Compute(txs, subs, analytics.PeriodDays(txs))
		return nil
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("AggregateStep: %w", err)
	}

	result.MoneyLeaks = result.Metrics.MoneyLeaks.Items
	state.Result = result
	return nil
}

// NarrativeStep adds insights and tips. It never fails the pipeline.
type NarrativeStep struct {
	Generator narrative.Generator
}

func (s *NarrativeStep) Execute(ctx context.Context, state *PipelineState) error {
	r := state.Result
	if r == nil {
		return fmt.Errorf("NarrativeStep: no aggregates computed")
	}
	metrics := r.Metrics
	res := narrative.GenerateOrFallback(ctx, s.Generator, narrative.Request{
		Summary:       r.Summary,
		Breakdown:     r.CategoryBreakdown,
		TopMerchants:  r.TopMerchants,
		Subscriptions: r.Subscriptions,
		Metrics:       &metrics,
	})
	r.Insights = res.Insights
	r.Tips = res.Tips
	r.NarrativeFallback = res.Fallback
	return nil
}

// FinalizeStep stamps the result.
type FinalizeStep struct {
	Now func() time.Time
}

func (s *FinalizeStep) Execute(ctx context.Context, state *PipelineState) error {
	if state.Result == nil {
		return fmt.Errorf("FinalizeStep: no result")
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	state.Result.GeneratedAt = now().UTC()

	log := logger.FromContext(ctx)
	log.Info().
		Int("transactions", len(state.Result.Transactions)).
		Int("subscriptions", len(state.Result.Subscriptions)).
		Float64("total_spent", state.Result.Summary.TotalSpent).
		Bool("narrative_fallback", state.Result.NarrativeFallback).
		Msg("Analysis complete")
	return nil
}

// StoreResultStep saves the result next to its source statement.
type StoreResultStep struct {
	Store ResultStore
}

func (s *StoreResultStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Store == nil || state.Result == nil {
		return nil
	}
	uri, err := s.Store.SaveResult(ctx, resultName(state.GCSURI), state.Result)
	if err != nil {
		return fmt.Errorf("StoreResultStep: %w", err)
	}
	state.ResultURI = uri
	return nil
}

// resultName maps "gs://b/statements/jan.pdf" to "results/jan.json".
func resultName(gcsURI string) string {
	base := path.Base(strings.TrimPrefix(gcsURI, "gs://"))
	if base == "" || base == "." || base == "/" {
		base = "analysis"
	}
	return "results/" + strings.TrimSuffix(base, path.Ext(base)) + ".json"
}
