package bigquery

import (
	"math/big"
	"strings"
	"testing"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/dvloznov/spendscan/internal/domain"
)

func TestTransactionRow_ToRawTransaction(t *testing.T) {
	date := civil.Date{Year: 2024, Month: 1, Day: 15}

	tests := []struct {
		name     string
		row      TransactionRow
		wantType domain.TransactionType
		wantAmt  float64
		wantDesc string
		wantDate civil.Date
	}{
		{
			name: "negative amount is a debit",
			row: TransactionRow{
				TransactionDate: bigquery.NullDate{Date: date, Valid: true},
				Amount:          big.NewRat(-1599, 100),
				RawDescription:  "NETFLIX.COM",
			},
			wantType: domain.Debit,
			wantAmt:  15.99,
			wantDesc: "NETFLIX.COM",
			wantDate: date,
		},
		{
			name: "positive amount is a credit",
			row: TransactionRow{
				TransactionDate: bigquery.NullDate{Date: date, Valid: true},
				Amount:          big.NewRat(3000, 1),
				RawDescription:  "PAYROLL",
			},
			wantType: domain.Credit,
			wantAmt:  3000,
			wantDesc: "PAYROLL",
			wantDate: date,
		},
		{
			name: "direction overrides sign",
			row: TransactionRow{
				Amount:         big.NewRat(42, 1),
				Direction:      bigquery.NullString{StringVal: "debit", Valid: true},
				RawDescription: "SHELL OIL 123",
			},
			wantType: domain.Debit,
			wantAmt:  42,
			wantDesc: "SHELL OIL 123",
		},
		{
			name: "normalized description preferred",
			row: TransactionRow{
				Amount:                big.NewRat(-5, 1),
				RawDescription:        "SQ *BLUE BOTTLE 0042",
				NormalizedDescription: bigquery.NullString{StringVal: "Blue Bottle", Valid: true},
			},
			wantType: domain.Debit,
			wantAmt:  5,
			wantDesc: "Blue Bottle",
		},
		{
			name:     "nil amount",
			row:      TransactionRow{RawDescription: "UNKNOWN"},
			wantType: domain.Credit,
			wantAmt:  0,
			wantDesc: "UNKNOWN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.row.ToRawTransaction()
			if got.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", got.Type, tt.wantType)
			}
			if got.Amount != tt.wantAmt {
				t.Errorf("Amount = %v, want %v", got.Amount, tt.wantAmt)
			}
			if got.Description != tt.wantDesc {
				t.Errorf("Description = %q, want %q", got.Description, tt.wantDesc)
			}
			if got.Date != tt.wantDate {
				t.Errorf("Date = %v, want %v", got.Date, tt.wantDate)
			}
			if got.Confidence != 1 {
				t.Errorf("Confidence = %v, want 1", got.Confidence)
			}
		})
	}
}

func TestToRawTransactions(t *testing.T) {
	got := ToRawTransactions([]*TransactionRow{
		{Amount: big.NewRat(-1, 1), RawDescription: "A"},
		{Amount: big.NewRat(2, 1), RawDescription: "B"},
	})
	if len(got) != 2 || got[0].Description != "A" || got[1].Type != domain.Credit {
		t.Errorf("unexpected conversion: %+v", got)
	}
	if out := ToRawTransactions(nil); out == nil || len(out) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", out)
	}
}

func TestDateRangeQuery(t *testing.T) {
	q := dateRangeQuery("proj", "ds", "tbl")
	if !strings.Contains(q, "`proj.ds.tbl`") {
		t.Errorf("query does not target the configured table:\n%s", q)
	}
	for _, param := range []string{"@start_date", "@end_date"} {
		if !strings.Contains(q, param) {
			t.Errorf("query missing %s", param)
		}
	}
}
