package extraction

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/spendscan/internal/domain"
	"github.com/dvloznov/spendscan/internal/logger"
)

// decodeStatement converts the model's JSON object into a ParsedStatement.
// A bare array is accepted as a transaction list without statement metadata.
// Invalid line items are dropped and counted, never fatal.
func decodeStatement(ctx context.Context, parsed interface{}) (*ParsedStatement, error) {
	var obj map[string]interface{}
	switch v := parsed.(type) {
	case map[string]interface{}:
		obj = v
	case []interface{}:
		obj = map[string]interface{}{"transactions": v}
	default:
		return nil, fmt.Errorf("decodeStatement: model output is %T, want object or array", parsed)
	}

	txAny, ok := obj["transactions"]
	if !ok {
		return nil, fmt.Errorf("decodeStatement: missing 'transactions' key in model output")
	}
	txSlice, ok := txAny.([]interface{})
	if !ok {
		return nil, fmt.Errorf("decodeStatement: 'transactions' is %T, want []interface{}", txAny)
	}

	txs, rejected := decodeTransactions(ctx, txSlice)

	stmt := &ParsedStatement{
		Transactions: txs,
		AccountType:  AccountUnknown,
		ParsingMetadata: Metadata{
			TotalTransactionsFound: len(txs),
			LowConfidenceCount:     countLowConfidence(txs),
			RejectedCount:          rejected,
		},
	}

	var err error
	if stmt.BankName, err = getOptionalStringField(obj, "bankName"); err != nil {
		return nil, fmt.Errorf("decodeStatement: %w", err)
	}
	accountType, err := getOptionalStringField(obj, "accountType")
	if err != nil {
		return nil, fmt.Errorf("decodeStatement: %w", err)
	}
	if accountType != nil {
		stmt.AccountType = parseAccountType(*accountType)
	}

	if period, ok := obj["period"].(map[string]interface{}); ok {
		if stmt.Period.Start, err = getOptionalStringField(period, "start"); err != nil {
			return nil, fmt.Errorf("decodeStatement: period: %w", err)
		}
		if stmt.Period.End, err = getOptionalStringField(period, "end"); err != nil {
			return nil, fmt.Errorf("decodeStatement: period: %w", err)
		}
	}

	if totals, ok := obj["statementTotals"].(map[string]interface{}); ok {
		if stmt.StatementTotals.TotalDebits, err = getOptionalFloat64Field(totals, "totalDebits"); err != nil {
			return nil, fmt.Errorf("decodeStatement: totals: %w", err)
		}
		if stmt.StatementTotals.TotalCredits, err = getOptionalFloat64Field(totals, "totalCredits"); err != nil {
			return nil, fmt.Errorf("decodeStatement: totals: %w", err)
		}
		if stmt.StatementTotals.EndingBalance, err = getOptionalFloat64Field(totals, "endingBalance"); err != nil {
			return nil, fmt.Errorf("decodeStatement: totals: %w", err)
		}
	}

	pages, err := getOptionalFloat64Field(obj, "pageCount")
	if err != nil {
		return nil, fmt.Errorf("decodeStatement: %w", err)
	}
	if pages != nil && *pages > 0 {
		stmt.PageCount = int(*pages)
	}

	return stmt, nil
}

// decodeTransactions keeps the items that pass ValidateTransaction.
func decodeTransactions(ctx context.Context, items []interface{}) ([]domain.RawTransaction, int) {
	log := logger.FromContext(ctx)

	result := make([]domain.RawTransaction, 0, len(items))
	rejected := 0
	for i, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			rejected++
			log.Warn().Int("index", i).Str("type", fmt.Sprintf("%T", item)).Msg("Skipping non-object transaction")
			continue
		}
		if err := ValidateTransaction(obj); err != nil {
			rejected++
			log.Warn().Err(err).Int("index", i).Msg("Skipping invalid transaction")
			continue
		}

		// Validated above, so the getters cannot fail here.
		date, _ := getStringField(obj, "date", true)
		desc, _ := getStringField(obj, "description", true)
		amount, _ := getFloat64Field(obj, "amount", true)
		typ, _ := getStringField(obj, "type", true)
		confidence, _ := getFloat64Field(obj, "confidence", true)

		result = append(result, domain.RawTransaction{
			Date:        domain.ParseDate(date),
			Description: strings.TrimSpace(desc),
			Amount:      amount,
			Type:        domain.TransactionType(strings.ToLower(typ)),
			Confidence:  confidence,
		})
	}

	if rejected > 0 {
		log.Warn().Int("rejected", rejected).Int("kept", len(result)).Msg("Dropped malformed transactions from model output")
	}
	return result, rejected
}

func parseAccountType(s string) AccountType {
	switch t := AccountType(strings.ToLower(strings.TrimSpace(s))); t {
	case AccountChecking, AccountSavings, AccountCredit:
		return t
	default:
		return AccountUnknown
	}
}

func getStringField(m map[string]interface{}, key string, required bool) (string, error) {
	v, ok := m[key]
	if !ok {
		if required {
			return "", fmt.Errorf("missing required field %q", key)
		}
		return "", nil
	}
	switch val := v.(type) {
	case string:
		if required && strings.TrimSpace(val) == "" {
			return "", fmt.Errorf("required field %q is empty", key)
		}
		return val, nil
	default:
		return "", fmt.Errorf("field %q has type %T, want string", key, v)
	}
}

func getOptionalStringField(m map[string]interface{}, key string) (*string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		if s == "" || strings.EqualFold(s, "null") {
			return nil, nil
		}
		return &s, nil
	default:
		return nil, fmt.Errorf("field %q has type %T, want string or null", key, v)
	}
}

func getFloat64Field(m map[string]interface{}, key string, required bool) (float64, error) {
	v, ok := m[key]
	if !ok {
		if required {
			return 0, fmt.Errorf("missing required field %q", key)
		}
		return 0, nil
	}
	switch val := v.(type) {
	case float64:
		return val, nil
	case int:
		return float64(val), nil
	default:
		return 0, fmt.Errorf("field %q has type %T, want number", key, v)
	}
}

func getOptionalFloat64Field(m map[string]interface{}, key string) (*float64, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch val := v.(type) {
	case float64:
		f := val
		return &f, nil
	case int:
		f := float64(val)
		return &f, nil
	default:
		return nil, fmt.Errorf("field %q has type %T, want number or null", key, v)
	}
}
