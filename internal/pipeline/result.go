package pipeline

import (
	"time"

	"github.com/dvloznov/spendscan/internal/domain"
	"github.com/dvloznov/spendscan/internal/extraction"
	"github.com/dvloznov/spendscan/internal/insights"
	"github.com/dvloznov/spendscan/internal/narrative"
)

// StatementInfo is what the extractor learned about the source statement.
type StatementInfo struct {
	BankName        *string                `json:"bankName"`
	AccountType     extraction.AccountType `json:"accountType"`
	Period          extraction.Period      `json:"period"`
	PageCount       int                    `json:"pageCount,omitempty"`
	ParsingMetadata extraction.Metadata    `json:"parsingMetadata"`
}

// AnalysisResult is the complete output of one analysis.
type AnalysisResult struct {
	Summary            domain.SpendingSummary          `json:"summary"`
	CategoryBreakdown  []domain.CategoryBreakdown      `json:"categoryBreakdown"`
	TopMerchants       []domain.TopMerchant            `json:"topMerchants"`
	Subscriptions      []domain.Subscription           `json:"subscriptions"`
	SubscriptionAudit  []domain.SubscriptionAudit      `json:"subscriptionAudit"`
	MoneyLeaks         []domain.MoneyLeak              `json:"moneyLeaks"`
	Transactions       []domain.CategorizedTransaction `json:"transactions"`
	Metrics            insights.InsightMetrics         `json:"metrics"`
	Insights           []narrative.Insight             `json:"insights"`
	Tips               []narrative.SavingsTip          `json:"tips"`
	NarrativeFallback  bool                            `json:"narrativeFallback"`
	RecurrenceStrategy string                          `json:"recurrenceStrategy"`
	Statement          *StatementInfo                  `json:"statement,omitempty"`
	Validation         *extraction.ValidationResult    `json:"validation,omitempty"`
	GeneratedAt        time.Time                       `json:"generatedAt"`
}

func statementInfo(s *extraction.ParsedStatement) *StatementInfo {
	if s == nil {
		return nil
	}
	return &StatementInfo{
		BankName:        s.BankName,
		AccountType:     s.AccountType,
		Period:          s.Period,
		PageCount:       s.PageCount,
		ParsingMetadata: s.ParsingMetadata,
	}
}
