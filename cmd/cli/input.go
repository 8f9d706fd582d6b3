package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dvloznov/spendscan/internal/domain"
)

// decodeTransactions accepts either a bare JSON array of transactions or an
// object with a "transactions" array, the shape the analyze endpoint takes.
func decodeTransactions(data []byte) ([]domain.RawTransaction, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("decodeTransactions: empty input")
	}

	if trimmed[0] == '[' {
		var txs []domain.RawTransaction
		if err := json.Unmarshal(trimmed, &txs); err != nil {
			return nil, fmt.Errorf("decodeTransactions: %w", err)
		}
		return txs, nil
	}

	var wrapped struct {
		Transactions []domain.RawTransaction `json:"transactions"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("decodeTransactions: %w", err)
	}
	if wrapped.Transactions == nil {
		return nil, fmt.Errorf("decodeTransactions: no \"transactions\" field")
	}
	return wrapped.Transactions, nil
}
