package bigquery

import (
	"math/big"
	"strings"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/dvloznov/spendscan/internal/domain"
)

// TransactionRow is the subset of the warehouse transactions table the
// analyzer reads. Amount is signed: negative values are money leaving the
// account unless Direction says otherwise.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED

	TransactionDate bigquery.NullDate `bigquery:"transaction_date"`

	Amount   *big.Rat `bigquery:"amount"`   // REQUIRED NUMERIC
	Currency string   `bigquery:"currency"` // REQUIRED STRING

	Direction bigquery.NullString `bigquery:"direction"` // NULLABLE, DEBIT or CREDIT

	RawDescription        string              `bigquery:"raw_description"`        // REQUIRED STRING
	NormalizedDescription bigquery.NullString `bigquery:"normalized_description"` // NULLABLE STRING
}

// ToRawTransaction converts a warehouse row into the analyzer's input shape.
// Rows already stored by a parser are trusted, so confidence is 1.
func (r *TransactionRow) ToRawTransaction() domain.RawTransaction {
	amount := 0.0
	if r.Amount != nil {
		amount, _ = r.Amount.Float64()
	}

	txType := domain.Credit
	switch strings.ToUpper(r.Direction.StringVal) {
	case "DEBIT":
		txType = domain.Debit
	case "CREDIT":
		txType = domain.Credit
	default:
		if amount < 0 {
			txType = domain.Debit
		}
	}
	if amount < 0 {
		amount = -amount
	}

	description := r.RawDescription
	if r.NormalizedDescription.Valid && strings.TrimSpace(r.NormalizedDescription.StringVal) != "" {
		description = r.NormalizedDescription.StringVal
	}

	var date civil.Date
	if r.TransactionDate.Valid {
		date = r.TransactionDate.Date
	}

	return domain.RawTransaction{
		Date:        date,
		Description: description,
		Amount:      amount,
		Type:        txType,
		Confidence:  1,
	}
}

// ToRawTransactions converts a batch of rows.
func ToRawTransactions(rows []*TransactionRow) []domain.RawTransaction {
	out := make([]domain.RawTransaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToRawTransaction())
	}
	return out
}
