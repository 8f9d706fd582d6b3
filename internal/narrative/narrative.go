// Package narrative turns computed aggregates into human-readable insights
// and savings tips using a language model. Model output is validated before
// it is trusted; any failure yields a single fallback insight.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/spendscan/internal/domain"
	"github.com/dvloznov/spendscan/internal/insights"
	"github.com/dvloznov/spendscan/internal/logger"
)

const (
	// WantInsights and WantTips are how many items the model is asked for.
	WantInsights = 5
	WantTips     = 3

	promptCategoryLimit = 8
	promptMerchantLimit = 8
)

// ErrInvalidResponse is wrapped when the model output violates the schema.
var ErrInvalidResponse = errors.New("invalid narrative response")

// Severity is how an insight should be presented.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityPositive Severity = "positive"
)

// Difficulty is the effort a savings tip takes.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Timeframe is when a savings tip pays off.
type Timeframe string

const (
	TimeframeImmediate Timeframe = "immediate"
	TimeframeMonthly   Timeframe = "monthly"
	TimeframeYearly    Timeframe = "yearly"
)

// Insight is one observation about the spending.
type Insight struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Severity    Severity         `json:"severity"`
	Category    *domain.Category `json:"category,omitempty"`
	Amount      *float64         `json:"amount,omitempty"`
}

// SavingsTip is one actionable suggestion. PotentialSavings is monthly.
type SavingsTip struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	PotentialSavings float64    `json:"potentialSavings"`
	Difficulty       Difficulty `json:"difficulty"`
	Timeframe        Timeframe  `json:"timeframe"`
}

// Request is everything the narrative step may see.
type Request struct {
	Summary       domain.SpendingSummary     `json:"summary"`
	Breakdown     []domain.CategoryBreakdown `json:"breakdown"`
	TopMerchants  []domain.TopMerchant       `json:"topMerchants"`
	Subscriptions []domain.Subscription      `json:"subscriptions"`
	Metrics       *insights.InsightMetrics   `json:"metrics,omitempty"`
}

// Result is the generated narrative.
type Result struct {
	Insights []Insight    `json:"insights"`
	Tips     []SavingsTip `json:"tips"`
	// Fallback is true when the result was not produced by the model.
	Fallback bool `json:"fallback"`
}

// Generator produces a narrative for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

// Fallback is the narrative used when generation fails.
func Fallback(summary domain.SpendingSummary) *Result {
	return &Result{
		Insights: []Insight{
			{
				ID:    "fallback-1",
				Title: "Analysis Complete",
				Description: fmt.Sprintf("We analyzed %d transactions totaling $%.2f in spending.",
					summary.TransactionCount, summary.TotalSpent),
				Severity: SeverityInfo,
			},
		},
		Tips:     []SavingsTip{},
		Fallback: true,
	}
}

// GenerateOrFallback runs gen and never fails: errors are logged and the
// fallback narrative is returned. A nil generator goes straight to the fallback.
func GenerateOrFallback(ctx context.Context, gen Generator, req Request) *Result {
	if gen == nil {
		return Fallback(req.Summary)
	}
	res, err := gen.Generate(ctx, req)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("Narrative generation failed, using fallback insight")
		return Fallback(req.Summary)
	}
	return res
}

// Validate checks the result against the narrative schema and normalizes it:
// extra items are cut, unknown insight categories are dropped, and every
// required field must be present with an allowed value.
func (r *Result) Validate() error {
	if len(r.Insights) == 0 {
		return fmt.Errorf("%w: no insights", ErrInvalidResponse)
	}
	if len(r.Insights) > WantInsights {
		r.Insights = r.Insights[:WantInsights]
	}
	if len(r.Tips) > WantTips {
		r.Tips = r.Tips[:WantTips]
	}
	if r.Tips == nil {
		r.Tips = []SavingsTip{}
	}

	for i := range r.Insights {
		in := &r.Insights[i]
		if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Description) == "" {
			return fmt.Errorf("%w: insight %d missing title or description", ErrInvalidResponse, i)
		}
		switch in.Severity {
		case SeverityInfo, SeverityWarning, SeverityPositive:
		default:
			return fmt.Errorf("%w: insight %d severity %q", ErrInvalidResponse, i, in.Severity)
		}
		if in.ID == "" {
			in.ID = fmt.Sprintf("insight-%d", i+1)
		}
		if in.Category != nil && in.Category.Validate() != nil {
			in.Category = nil
		}
	}

	for i := range r.Tips {
		tip := &r.Tips[i]
		if strings.TrimSpace(tip.Title) == "" || strings.TrimSpace(tip.Description) == "" {
			return fmt.Errorf("%w: tip %d missing title or description", ErrInvalidResponse, i)
		}
		if tip.PotentialSavings < 0 {
			return fmt.Errorf("%w: tip %d negative potential savings", ErrInvalidResponse, i)
		}
		switch tip.Difficulty {
		case DifficultyEasy, DifficultyMedium, DifficultyHard:
		default:
			return fmt.Errorf("%w: tip %d difficulty %q", ErrInvalidResponse, i, tip.Difficulty)
		}
		switch tip.Timeframe {
		case TimeframeImmediate, TimeframeMonthly, TimeframeYearly:
		default:
			return fmt.Errorf("%w: tip %d timeframe %q", ErrInvalidResponse, i, tip.Timeframe)
		}
		if tip.ID == "" {
			tip.ID = fmt.Sprintf("tip-%d", i+1)
		}
	}
	return nil
}
