package extraction

import (
	"strconv"

	"github.com/dvloznov/spendscan/internal/domain"
)

// DedupKey identifies a transaction across overlapping chunks and files.
func DedupKey(t domain.RawTransaction) string {
	return domain.FormatDate(t.Date) + "|" + t.Description + "|" +
		strconv.FormatFloat(t.Amount, 'f', -1, 64) + "|" + string(t.Type)
}

// MergeChunks concatenates chunk results in order and drops repeated
// transactions, keeping the first occurrence. Statement-level fields come
// from the first chunk that reports them; the period spans all chunks.
func MergeChunks(chunks []*ParsedStatement) *ParsedStatement {
	out := &ParsedStatement{
		Transactions: []domain.RawTransaction{},
		AccountType:  AccountUnknown,
	}

	seen := make(map[string]struct{})
	total := 0
	for _, c := range chunks {
		if c == nil {
			continue
		}
		for _, t := range c.Transactions {
			total++
			key := DedupKey(t)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out.Transactions = append(out.Transactions, t)
		}

		if out.BankName == nil {
			out.BankName = c.BankName
		}
		if out.AccountType == AccountUnknown && c.AccountType != "" {
			out.AccountType = c.AccountType
		}
		out.Period.Start = minDate(out.Period.Start, c.Period.Start)
		out.Period.End = maxDate(out.Period.End, c.Period.End)
		if out.StatementTotals.TotalDebits == nil {
			out.StatementTotals.TotalDebits = c.StatementTotals.TotalDebits
		}
		if out.StatementTotals.TotalCredits == nil {
			out.StatementTotals.TotalCredits = c.StatementTotals.TotalCredits
		}
		if out.StatementTotals.EndingBalance == nil {
			out.StatementTotals.EndingBalance = c.StatementTotals.EndingBalance
		}
		out.PageCount += c.PageCount
		out.ParsingMetadata.RejectedCount += c.ParsingMetadata.RejectedCount
		out.ParsingMetadata.DuplicatesRemoved += c.ParsingMetadata.DuplicatesRemoved
	}

	out.ParsingMetadata.DuplicatesRemoved += total - len(out.Transactions)
	out.ParsingMetadata.TotalTransactionsFound = len(out.Transactions)
	out.ParsingMetadata.LowConfidenceCount = countLowConfidence(out.Transactions)
	return out
}

// ISO dates compare correctly as strings.
func minDate(a, b *string) *string {
	if a == nil || (b != nil && *b < *a) {
		return b
	}
	return a
}

func maxDate(a, b *string) *string {
	if a == nil || (b != nil && *b > *a) {
		return b
	}
	return a
}
