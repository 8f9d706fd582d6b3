package domain

import (
	"encoding/json"

	"cloud.google.com/go/civil"
)

// Frequency is the billing cycle of a subscription.
type Frequency string

const (
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// MonthlyEquivalent converts one charge at this frequency into a monthly cost.
func (f Frequency) MonthlyEquivalent(amount float64) float64 {
	switch f {
	case Yearly:
		return amount / 12
	case Weekly:
		return amount * 4
	default:
		return amount
	}
}

// SubscriptionCategory groups detected subscriptions by service kind.
type SubscriptionCategory string

const (
	SubStreaming SubscriptionCategory = "streaming"
	SubSoftware  SubscriptionCategory = "software"
	SubFitness   SubscriptionCategory = "fitness"
	SubNews      SubscriptionCategory = "news"
	SubGaming    SubscriptionCategory = "gaming"
	SubOther     SubscriptionCategory = "other"
)

// Subscription is a recurring charge inferred from the transaction set.
// Amount is one charge cycle, never a total.
type Subscription struct {
	Name       string               `json:"name"`
	Amount     float64              `json:"amount"`
	Frequency  Frequency            `json:"frequency"`
	LastCharge civil.Date           `json:"lastCharge"`
	Category   SubscriptionCategory `json:"category"`
	Confidence float64              `json:"confidence"`
}

// MonthlyAmount is the subscription cost normalized to one month.
func (s Subscription) MonthlyAmount() float64 {
	return s.Frequency.MonthlyEquivalent(s.Amount)
}

// MarshalJSON renders LastCharge as YYYY-MM-DD, or "" when unknown.
func (s Subscription) MarshalJSON() ([]byte, error) {
	type alias Subscription
	return json.Marshal(struct {
		alias
		LastCharge string `json:"lastCharge"`
	}{alias: alias(s), LastCharge: FormatDate(s.LastCharge)})
}

// UnmarshalJSON accepts lastCharge as YYYY-MM-DD and tolerates it being empty.
func (s *Subscription) UnmarshalJSON(data []byte) error {
	type alias Subscription
	var aux struct {
		alias
		LastCharge string `json:"lastCharge"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*s = Subscription(aux.alias)
	s.LastCharge = ParseDate(aux.LastCharge)
	return nil
}
