package domain

import (
	"encoding/json"
	"strings"

	"cloud.google.com/go/civil"
)

// TransactionType tells whether money left (debit) or entered (credit) the account.
type TransactionType string

const (
	Debit  TransactionType = "debit"
	Credit TransactionType = "credit"
)

// LowConfidenceThreshold is the extraction confidence below which a
// transaction is flagged for review.
const LowConfidenceThreshold = 0.8

// RawTransaction is one line item as returned by the extraction service.
// Amount is always non-negative; Type carries the direction.
// A zero Date means the date was absent or could not be parsed.
type RawTransaction struct {
	Date        civil.Date      `json:"date"`
	Description string          `json:"description"`
	Amount      float64         `json:"amount"`
	Type        TransactionType `json:"type"`
	Confidence  float64         `json:"confidence"`
}

// HasDate reports whether the transaction carries a usable calendar date.
func (t RawTransaction) HasDate() bool {
	return t.Date.IsValid()
}

// IsDebit reports whether the transaction is an outgoing payment.
func (t RawTransaction) IsDebit() bool {
	return t.Type == Debit
}

// IsCredit reports whether the transaction is an incoming payment.
func (t RawTransaction) IsCredit() bool {
	return t.Type == Credit
}

// UnmarshalJSON decodes a raw transaction leniently: a missing or malformed
// date leaves Date zero instead of failing the whole payload.
func (t *RawTransaction) UnmarshalJSON(data []byte) error {
	var aux struct {
		Date        string          `json:"date"`
		Description string          `json:"description"`
		Amount      float64         `json:"amount"`
		Type        TransactionType `json:"type"`
		Confidence  float64         `json:"confidence"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	t.Date = ParseDate(aux.Date)
	t.Description = aux.Description
	t.Amount = aux.Amount
	t.Type = TransactionType(strings.ToLower(strings.TrimSpace(string(aux.Type))))
	t.Confidence = aux.Confidence
	return nil
}

// ParseDate parses a YYYY-MM-DD string. Anything else yields the zero date.
func ParseDate(s string) civil.Date {
	d, err := civil.ParseDate(strings.TrimSpace(s))
	if err != nil || !d.IsValid() {
		return civil.Date{}
	}
	return d
}

// CategorizedTransaction is a RawTransaction after merchant cleaning and
// classification. It is created once and never modified afterwards.
type CategorizedTransaction struct {
	RawTransaction
	Category    Category `json:"category"`
	Merchant    string   `json:"merchant"`
	IsRecurring bool     `json:"isRecurring"`
	NeedsReview bool     `json:"needsReview"`
}

// MarshalJSON flattens the embedded raw transaction so the record matches
// the presentation contract field for field.
func (t CategorizedTransaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date        string          `json:"date"`
		Description string          `json:"description"`
		Amount      float64         `json:"amount"`
		Type        TransactionType `json:"type"`
		Confidence  float64         `json:"confidence"`
		Category    Category        `json:"category"`
		Merchant    string          `json:"merchant"`
		IsRecurring bool            `json:"isRecurring"`
		NeedsReview bool            `json:"needsReview"`
	}{
		Date:        FormatDate(t.Date),
		Description: t.Description,
		Amount:      t.Amount,
		Type:        t.Type,
		Confidence:  t.Confidence,
		Category:    t.Category,
		Merchant:    t.Merchant,
		IsRecurring: t.IsRecurring,
		NeedsReview: t.NeedsReview,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (t *CategorizedTransaction) UnmarshalJSON(data []byte) error {
	var raw RawTransaction
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var aux struct {
		Category    Category `json:"category"`
		Merchant    string   `json:"merchant"`
		IsRecurring bool     `json:"isRecurring"`
		NeedsReview bool     `json:"needsReview"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t.RawTransaction = raw
	t.Category = aux.Category
	t.Merchant = aux.Merchant
	t.IsRecurring = aux.IsRecurring
	t.NeedsReview = aux.NeedsReview
	return nil
}

// FormatDate renders a date as YYYY-MM-DD, or "" when the date is absent.
func FormatDate(d civil.Date) string {
	if !d.IsValid() {
		return ""
	}
	return d.String()
}

// Debits returns the outgoing transactions, preserving order.
func Debits(txs []CategorizedTransaction) []CategorizedTransaction {
	out := make([]CategorizedTransaction, 0, len(txs))
	for _, t := range txs {
		if t.IsDebit() {
			out = append(out, t)
		}
	}
	return out
}

// SpendingDebits returns the outgoing transactions that count as spending,
// which excludes transfers between the holder's own accounts and people.
func SpendingDebits(txs []CategorizedTransaction) []CategorizedTransaction {
	out := make([]CategorizedTransaction, 0, len(txs))
	for _, t := range txs {
		if t.IsDebit() && t.Category.IsSpending() {
			out = append(out, t)
		}
	}
	return out
}
