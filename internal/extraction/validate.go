package extraction

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/dvloznov/spendscan/internal/domain"
	"github.com/dvloznov/spendscan/internal/money"
)

// ErrInvalidTransaction is wrapped by every schema violation.
var ErrInvalidTransaction = errors.New("invalid transaction")

// totalsTolerance is how far extracted sums may drift from the printed totals.
const totalsTolerance = 1.0

var isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidateTransaction checks one decoded JSON line item: a YYYY-MM-DD date, a
// non-empty description, a non-negative amount, a debit or credit type and a
// confidence in [0,1].
func ValidateTransaction(obj map[string]interface{}) error {
	date, err := getStringField(obj, "date", true)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}
	if !isoDateRe.MatchString(date) || !domain.ParseDate(date).IsValid() {
		return fmt.Errorf("%w: date %q is not a YYYY-MM-DD calendar date", ErrInvalidTransaction, date)
	}
	if _, err := getStringField(obj, "description", true); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}
	amount, err := getFloat64Field(obj, "amount", true)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}
	typ, err := getStringField(obj, "type", true)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}
	confidence, err := getFloat64Field(obj, "confidence", true)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTransaction, err)
	}

	return ValidateRawTransaction(domain.RawTransaction{
		Date:        domain.ParseDate(date),
		Description: obj["description"].(string),
		Amount:      amount,
		Type:        domain.TransactionType(strings.ToLower(typ)),
		Confidence:  confidence,
	})
}

// ValidateRawTransaction checks an already-decoded transaction. An absent
// date is allowed; date-dependent aggregates skip it.
func ValidateRawTransaction(t domain.RawTransaction) error {
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("%w: empty description", ErrInvalidTransaction)
	}
	if math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) || t.Amount < 0 {
		return fmt.Errorf("%w: amount %v must be a non-negative number", ErrInvalidTransaction, t.Amount)
	}
	if t.Type != domain.Debit && t.Type != domain.Credit {
		return fmt.Errorf("%w: type %q must be debit or credit", ErrInvalidTransaction, t.Type)
	}
	if math.IsNaN(t.Confidence) || t.Confidence < 0 || t.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v outside [0,1]", ErrInvalidTransaction, t.Confidence)
	}
	return nil
}

// ValidationResult reconciles extracted transactions with the statement summary.
// A nil match flag means the statement did not print that total.
type ValidationResult struct {
	IsValid            bool     `json:"isValid"`
	TotalDebitsMatch   *bool    `json:"totalDebitsMatch"`
	TotalCreditsMatch  *bool    `json:"totalCreditsMatch"`
	DiscrepancyAmount  *float64 `json:"discrepancyAmount"`
	LowConfidenceCount int      `json:"lowConfidenceCount"`
	MissingDates       int      `json:"missingDates"`
	Warnings           []string `json:"warnings"`
}

// ValidateStatement compares the extracted debit and credit sums with the
// printed totals and collects warnings for low-confidence or undated items.
func ValidateStatement(s *ParsedStatement) ValidationResult {
	res := ValidationResult{Warnings: []string{}}

	var debits, credits money.Accumulator
	for _, t := range s.Transactions {
		switch t.Type {
		case domain.Debit:
			debits.Add(t.Amount)
		case domain.Credit:
			credits.Add(t.Amount)
		}
		if !t.HasDate() {
			res.MissingDates++
		}
	}

	if printed := s.StatementTotals.TotalDebits; printed != nil {
		diff := math.Abs(*printed - debits.Total())
		match := diff <= totalsTolerance
		res.TotalDebitsMatch = &match
		if !match {
			res.DiscrepancyAmount = &diff
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"Debit total mismatch: statement shows $%.2f, but extracted transactions sum to $%.2f",
				*printed, debits.Total()))
		}
	}
	if printed := s.StatementTotals.TotalCredits; printed != nil {
		diff := math.Abs(*printed - credits.Total())
		match := diff <= totalsTolerance
		res.TotalCreditsMatch = &match
		if !match {
			if res.DiscrepancyAmount == nil {
				res.DiscrepancyAmount = &diff
			}
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"Credit total mismatch: statement shows $%.2f, but extracted transactions sum to $%.2f",
				*printed, credits.Total()))
		}
	}

	res.LowConfidenceCount = countLowConfidence(s.Transactions)
	if res.LowConfidenceCount > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"%d transaction(s) have low confidence and may need review", res.LowConfidenceCount))
	}
	if res.MissingDates > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d transaction(s) are missing dates", res.MissingDates))
	}

	res.IsValid = (res.TotalDebitsMatch == nil || *res.TotalDebitsMatch) &&
		(res.TotalCreditsMatch == nil || *res.TotalCreditsMatch)
	return res
}
