package pipeline_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/spendscan/internal/domain"
	"github.com/dvloznov/spendscan/internal/extraction"
	"github.com/dvloznov/spendscan/internal/narrative"
	"github.com/dvloznov/spendscan/internal/pipeline"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func raw(date, desc string, amount float64, typ domain.TransactionType) domain.RawTransaction {
	return domain.RawTransaction{Date: domain.ParseDate(date), Description: desc, Amount: amount, Type: typ, Confidence: 0.95}
}

func sampleTransactions() []domain.RawTransaction {
	return []domain.RawTransaction{
		raw("2024-01-05", "NETFLIX.COM", 15.99, domain.Debit),
		raw("2024-01-15", "ACME CORP PAYROLL DIRECT DEPOSIT", 3000, domain.Credit),
		raw("2024-01-20", "SHELL OIL 12345678", 40, domain.Debit),
		raw("2024-01-25", "ZELLE TO JOHN", 100, domain.Debit),
		raw("2024-01-28", "OVERDRAFT FEE", 35, domain.Debit),
		raw("2024-02-05", "NETFLIX.COM", 15.99, domain.Debit),
	}
}

func newAnalyzer(t *testing.T, cfg pipeline.Config) *pipeline.Analyzer {
	t.Helper()
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return fixedNow }
	}
	a, err := pipeline.NewAnalyzer(cfg)
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}
	return a
}

func TestAnalyze(t *testing.T) {
	a := newAnalyzer(t, pipeline.Config{})

	res, err := a.Analyze(context.Background(), sampleTransactions())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if res.Summary.TotalSpent != 106.98 {
		t.Errorf("TotalSpent = %v, want 106.98", res.Summary.TotalSpent)
	}
	if res.Summary.TotalIncome != 3000 {
		t.Errorf("TotalIncome = %v, want 3000", res.Summary.TotalIncome)
	}
	if len(res.Transactions) != 6 {
		t.Fatalf("len(Transactions) = %d, want 6", len(res.Transactions))
	}
	if got := res.Transactions[0].Date; got != domain.ParseDate("2024-02-05") {
		t.Errorf("first transaction date = %v, want newest first", got)
	}
	if len(res.Subscriptions) != 1 || res.Subscriptions[0].Name != "Netflix" {
		t.Errorf("Subscriptions = %+v, want Netflix only", res.Subscriptions)
	}
	if len(res.SubscriptionAudit) != 1 || res.SubscriptionAudit[0].AnnualCost != 191.88 {
		t.Errorf("SubscriptionAudit = %+v, want Netflix at 191.88/yr", res.SubscriptionAudit)
	}
	if len(res.MoneyLeaks) != 1 || res.MoneyLeaks[0].Type != domain.BankFee {
		t.Errorf("MoneyLeaks = %+v, want one bank fee", res.MoneyLeaks)
	}

	var pct float64
	for _, c := range res.CategoryBreakdown {
		if c.Category == domain.Transfer {
			t.Error("transfers must not appear in the spending breakdown")
		}
		pct += c.Percentage
	}
	if pct < 99.99 || pct > 100.01 {
		t.Errorf("breakdown percentages sum to %v, want 100", pct)
	}

	if !res.NarrativeFallback || len(res.Insights) != 1 || res.Insights[0].ID != "fallback-1" {
		t.Errorf("without a narrator the fallback insight is expected, got %+v", res.Insights)
	}
	if res.RecurrenceStrategy != "whitelist" {
		t.Errorf("RecurrenceStrategy = %q, want whitelist", res.RecurrenceStrategy)
	}
	if !res.GeneratedAt.Equal(fixedNow) {
		t.Errorf("GeneratedAt = %v, want %v", res.GeneratedAt, fixedNow)
	}
	if res.Statement != nil || res.Validation != nil {
		t.Error("raw-transaction analysis should not carry statement info")
	}
}

func TestAnalyze_IntervalStrategy(t *testing.T) {
	a := newAnalyzer(t, pipeline.Config{Strategy: "interval"})
	if a.Strategy() != "interval" {
		t.Fatalf("Strategy() = %q, want interval", a.Strategy())
	}
	res, err := a.Analyze(context.Background(), sampleTransactions())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(res.Subscriptions) != 1 || res.Subscriptions[0].Frequency != domain.Monthly {
		t.Errorf("Subscriptions = %+v, want one monthly", res.Subscriptions)
	}
}

func TestNewAnalyzer_UnknownStrategy(t *testing.T) {
	if _, err := pipeline.NewAnalyzer(pipeline.Config{Strategy: "magic"}); err == nil {
		t.Error("NewAnalyzer() error = nil, want error for unknown strategy")
	}
}

func TestAnalyze_NoTransactions(t *testing.T) {
	a := newAnalyzer(t, pipeline.Config{})

	tests := []struct {
		name string
		txs  []domain.RawTransaction
	}{
		{name: "nil", txs: nil},
		{name: "all invalid", txs: []domain.RawTransaction{
			{Description: "", Amount: 5, Type: domain.Debit, Confidence: 1},
			{Description: "NEGATIVE", Amount: -5, Type: domain.Debit, Confidence: 1},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Analyze(context.Background(), tt.txs)
			if !errors.Is(err, pipeline.ErrNoTransactions) {
				t.Errorf("Analyze() error = %v, want ErrNoTransactions", err)
			}
		})
	}
}

func TestAnalyze_DropsInvalid(t *testing.T) {
	a := newAnalyzer(t, pipeline.Config{})
	txs := append(sampleTransactions(), domain.RawTransaction{Description: "BAD", Amount: 1, Type: "pending", Confidence: 1})

	res, err := a.Analyze(context.Background(), txs)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(res.Transactions) != 6 {
		t.Errorf("len(Transactions) = %d, want 6", len(res.Transactions))
	}
}

func TestAnalyze_UsesNarrator(t *testing.T) {
	var got narrative.Request
	a := newAnalyzer(t, pipeline.Config{
		Narrator: &MockGenerator{GenerateFunc: func(ctx context.Context, req narrative.Request) (*narrative.Result, error) {
			got = req
			return &narrative.Result{
				Insights: []narrative.Insight{{ID: "insight-1", Title: "t", Description: "d", Severity: narrative.SeverityPositive}},
				Tips:     []narrative.SavingsTip{{ID: "tip-1", Title: "t", Description: "d", Difficulty: narrative.DifficultyEasy, Timeframe: narrative.TimeframeMonthly}},
			}, nil
		}},
	})

	res, err := a.Analyze(context.Background(), sampleTransactions())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if res.NarrativeFallback || len(res.Tips) != 1 {
		t.Errorf("narrator output not used: %+v", res)
	}
	if got.Metrics == nil || got.Metrics.MoneyLeaks.Count != 1 {
		t.Error("narrator did not receive the insight metrics")
	}
	if got.Summary.TotalSpent != res.Summary.TotalSpent {
		t.Error("narrator received a different summary")
	}
}

func TestAnalyzeGCS(t *testing.T) {
	debits, credits := 206.98, 3000.0
	bank := "Chase"
	extractor := &MockExtractor{
		ExtractFunc: func(ctx context.Context, pdfBytes []byte) (*extraction.ParsedStatement, error) {
			if string(pdfBytes) != "%PDF jan" {
				t.Errorf("extractor got %q", pdfBytes)
			}
			return &extraction.ParsedStatement{
				Transactions:    sampleTransactions(),
				BankName:        &bank,
				AccountType:     extraction.AccountChecking,
				StatementTotals: extraction.Totals{TotalDebits: &debits, TotalCredits: &credits},
				ParsingMetadata: extraction.Metadata{Method: extraction.MethodGemini},
			}, nil
		},
	}
	storage := &MockStorageService{
		FetchFromGCSFunc: func(ctx context.Context, gcsURI string) ([]byte, error) {
			if gcsURI != "gs://bucket/statements/jan.pdf" {
				t.Errorf("fetched %q", gcsURI)
			}
			return []byte("%PDF jan"), nil
		},
	}
	var savedName string
	store := &MockResultStore{
		SaveResultFunc: func(ctx context.Context, name string, result *pipeline.AnalysisResult) (string, error) {
			savedName = name
			return "gs://bucket/" + name, nil
		},
	}

	a := newAnalyzer(t, pipeline.Config{Extractor: extractor, Storage: storage, Results: store})
	res, uri, err := a.AnalyzeGCS(context.Background(), "gs://bucket/statements/jan.pdf")
	if err != nil {
		t.Fatalf("AnalyzeGCS() error = %v", err)
	}

	if savedName != "results/jan.json" || uri != "gs://bucket/results/jan.json" {
		t.Errorf("stored as %q at %q", savedName, uri)
	}
	if res.Statement == nil || res.Statement.BankName == nil || *res.Statement.BankName != "Chase" {
		t.Errorf("Statement = %+v, want Chase", res.Statement)
	}
	if res.Validation == nil || !res.Validation.IsValid {
		t.Errorf("Validation = %+v, want reconciled totals", res.Validation)
	}
}

func TestAnalyzeGCS_Errors(t *testing.T) {
	t.Run("fetch fails", func(t *testing.T) {
		extractor := &MockExtractor{}
		a := newAnalyzer(t, pipeline.Config{
			Extractor: extractor,
			Storage: &MockStorageService{FetchFromGCSFunc: func(context.Context, string) ([]byte, error) {
				return nil, errors.New("object not found")
			}},
		})
		_, _, err := a.AnalyzeGCS(context.Background(), "gs://bucket/missing.pdf")
		if err == nil || !strings.Contains(err.Error(), "pipeline step 1 failed") {
			t.Errorf("AnalyzeGCS() error = %v, want step 1 failure", err)
		}
		if extractor.calls != 0 {
			t.Error("extractor should not run after a fetch failure")
		}
	})

	t.Run("store fails", func(t *testing.T) {
		a := newAnalyzer(t, pipeline.Config{
			Extractor: &MockExtractor{ExtractFunc: func(context.Context, []byte) (*extraction.ParsedStatement, error) {
				return &extraction.ParsedStatement{Transactions: sampleTransactions()}, nil
			}},
			Storage: &MockStorageService{},
			Results: &MockResultStore{SaveResultFunc: func(context.Context, string, *pipeline.AnalysisResult) (string, error) {
				return "", errors.New("permission denied")
			}},
		})
		if _, _, err := a.AnalyzeGCS(context.Background(), "gs://bucket/jan.pdf"); err == nil {
			t.Error("AnalyzeGCS() error = nil, want store failure")
		}
	})

	t.Run("missing collaborators", func(t *testing.T) {
		a := newAnalyzer(t, pipeline.Config{})
		if _, _, err := a.AnalyzeGCS(context.Background(), "gs://b/o.pdf"); err == nil {
			t.Error("AnalyzeGCS() error = nil, want configuration error")
		}
		if _, err := a.AnalyzePDF(context.Background(), []byte("%PDF")); err == nil {
			t.Error("AnalyzePDF() error = nil, want configuration error")
		}
	})
}

func TestAnalyzePDF_EmptyStatement(t *testing.T) {
	a := newAnalyzer(t, pipeline.Config{Extractor: &MockExtractor{}})
	_, err := a.AnalyzePDF(context.Background(), []byte("%PDF"))
	if !errors.Is(err, pipeline.ErrNoTransactions) {
		t.Errorf("AnalyzePDF() error = %v, want ErrNoTransactions", err)
	}
}

type stepFunc func(ctx context.Context, state *pipeline.PipelineState) error

func (f stepFunc) Execute(ctx context.Context, state *pipeline.PipelineState) error {
	return f(ctx, state)
}

func TestPipeline_Execute(t *testing.T) {
	var ran []int
	step := func(i int, err error) pipeline.PipelineStep {
		return stepFunc(func(context.Context, *pipeline.PipelineState) error {
			ran = append(ran, i)
			return err
		})
	}
	boom := errors.New("boom")

	p := pipeline.NewPipeline(step(1, nil), step(2, boom), step(3, nil))
	err := p.Execute(context.Background(), &pipeline.PipelineState{})

	if !errors.Is(err, boom) || !strings.Contains(err.Error(), "pipeline step 2 failed") {
		t.Errorf("Execute() error = %v", err)
	}
	if len(ran) != 2 {
		t.Errorf("ran steps %v, want [1 2]", ran)
	}

	t.Run("cancelled context", func(t *testing.T) {
		ran = nil
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := pipeline.NewPipeline(step(1, nil)).Execute(ctx, &pipeline.PipelineState{})
		if !errors.Is(err, context.Canceled) || len(ran) != 0 {
			t.Errorf("Execute() error = %v, ran %v", err, ran)
		}
	})
}
