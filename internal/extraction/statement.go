// Package extraction turns bank-statement PDFs into raw transactions. It is the
// boundary where malformed line items are rejected; nothing past it has to
// re-validate the transaction schema.
package extraction

import (
	"context"

	"github.com/dvloznov/spendscan/internal/domain"
)

// AccountType is the kind of account a statement belongs to.
type AccountType string

const (
	AccountChecking AccountType = "checking"
	AccountSavings  AccountType = "savings"
	AccountCredit   AccountType = "credit"
	AccountUnknown  AccountType = "unknown"
)

// Extraction methods recorded in Metadata.Method.
const (
	MethodGemini = "gemini"
	MethodText   = "text"
)

// Period is the statement period as printed, YYYY-MM-DD when known.
type Period struct {
	Start *string `json:"start"`
	End   *string `json:"end"`
}

// Totals are the figures printed in the statement summary, nil when absent.
type Totals struct {
	TotalDebits   *float64 `json:"totalDebits"`
	TotalCredits  *float64 `json:"totalCredits"`
	EndingBalance *float64 `json:"endingBalance"`
}

// Metadata describes how a statement was extracted.
type Metadata struct {
	Method                 string `json:"method"`
	Model                  string `json:"model,omitempty"`
	TotalTransactionsFound int    `json:"totalTransactionsFound"`
	LowConfidenceCount     int    `json:"lowConfidenceCount"`
	RejectedCount          int    `json:"rejectedCount"`
	DuplicatesRemoved      int    `json:"duplicatesRemoved"`
	Chunks                 int    `json:"chunks"`
	ProcessingTimeMs       int64  `json:"processingTimeMs"`
}

// ParsedStatement is everything extracted from one statement.
type ParsedStatement struct {
	Transactions    []domain.RawTransaction `json:"transactions"`
	BankName        *string                 `json:"bankName"`
	AccountType     AccountType             `json:"accountType"`
	Period          Period                  `json:"period"`
	StatementTotals Totals                  `json:"statementTotals"`
	PageCount       int                     `json:"pageCount,omitempty"`
	ParsingMetadata Metadata                `json:"parsingMetadata"`
}

// Extractor reads a statement PDF.
type Extractor interface {
	Extract(ctx context.Context, pdfBytes []byte) (*ParsedStatement, error)
}

func countLowConfidence(txs []domain.RawTransaction) int {
	n := 0
	for _, t := range txs {
		if t.Confidence < domain.LowConfidenceThreshold {
			n++
		}
	}
	return n
}
