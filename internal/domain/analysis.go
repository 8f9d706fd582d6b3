package domain

import (
	"encoding/json"

	"cloud.google.com/go/civil"
)

// SpendingSummary holds the headline statistics for a transaction set.
type SpendingSummary struct {
	TotalSpent         float64  `json:"totalSpent"`
	TotalIncome        float64  `json:"totalIncome"`
	NetCashFlow        float64  `json:"netCashFlow"`
	TransactionCount   int      `json:"transactionCount"`
	AverageTransaction float64  `json:"averageTransaction"`
	TopCategory        Category `json:"topCategory"`
	TopCategoryAmount  float64  `json:"topCategoryAmount"`
	SubscriptionTotal  float64  `json:"subscriptionTotal"`
	PeriodDays         int      `json:"periodDays"`
}

// CategoryBreakdown is one slice of the spending pie.
type CategoryBreakdown struct {
	Category         Category `json:"category"`
	Amount           float64  `json:"amount"`
	Percentage       float64  `json:"percentage"`
	TransactionCount int      `json:"transactionCount"`
}

// TopMerchant is a merchant ranked by total spend.
type TopMerchant struct {
	Name     string   `json:"name"`
	Amount   float64  `json:"amount"`
	Count    int      `json:"count"`
	Category Category `json:"category"`
}

// SubscriptionAudit shows what a subscription costs per month and per year.
type SubscriptionAudit struct {
	Name          string               `json:"name"`
	MonthlyAmount float64              `json:"monthlyAmount"`
	AnnualCost    float64              `json:"annualCost"`
	Category      SubscriptionCategory `json:"category"`
	Frequency     Frequency            `json:"frequency"`
}

// LeakType classifies an avoidable fee.
type LeakType string

const (
	BankFee        LeakType = "bank_fee"
	ATMFee         LeakType = "atm_fee"
	LateFee        LeakType = "late_fee"
	InterestCharge LeakType = "interest"
	ConvenienceFee LeakType = "convenience_fee"
	ForeignFee     LeakType = "foreign_fee"
)

// MoneyLeak is a fee-type charge found in the debits.
type MoneyLeak struct {
	ID               string     `json:"id"`
	Merchant         string     `json:"merchant"`
	Amount           float64    `json:"amount"`
	Type             LeakType   `json:"type"`
	Label            string     `json:"label"`
	Date             civil.Date `json:"date"`
	AnnualProjection float64    `json:"annualProjection"`
}

// MarshalJSON renders Date as YYYY-MM-DD, or "" when the charge was undated.
func (l MoneyLeak) MarshalJSON() ([]byte, error) {
	type alias MoneyLeak
	return json.Marshal(struct {
		alias
		Date string `json:"date"`
	}{alias: alias(l), Date: FormatDate(l.Date)})
}

// UnmarshalJSON accepts date as YYYY-MM-DD and tolerates it being empty.
func (l *MoneyLeak) UnmarshalJSON(data []byte) error {
	type alias MoneyLeak
	var aux struct {
		alias
		Date string `json:"date"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*l = MoneyLeak(aux.alias)
	l.Date = ParseDate(aux.Date)
	return nil
}
