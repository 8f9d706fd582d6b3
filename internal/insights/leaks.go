package insights

import (
	"fmt"
	"strings"

	"github.com/dvloznov/spendscan/internal/domain"
	"github.com/dvloznov/spendscan/internal/money"
	"github.com/dvloznov/spendscan/internal/rules"
	"github.com/google/uuid"
)

// leakNamespace scopes money-leak IDs so the same charge always gets the same ID.
var leakNamespace = uuid.MustParse("8f0c8d52-6f1e-4b7a-9d0e-3c2f5a1b7e44")

// MoneyLeaks lists fee-type debits and their cost.
type MoneyLeaks struct {
	Items       []domain.MoneyLeak `json:"items"`
	Count       int                `json:"count"`
	Total       float64            `json:"total"`
	AnnualTotal float64            `json:"annualTotal"`
}

// LeakDetector tags debits that match the ordered fee table.
type LeakDetector struct {
	fees []rules.Fee
}

// NewLeakDetector builds a detector from a rule set.
func NewLeakDetector(set *rules.Set) *LeakDetector {
	d := &LeakDetector{}
	for _, f := range set.Fees {
		f.Keyword = strings.ToLower(f.Keyword)
		d.fees = append(d.fees, f)
	}
	return d
}

// DefaultLeakDetector uses the built-in fee table.
func DefaultLeakDetector() *LeakDetector {
	return NewLeakDetector(rules.Default())
}

// Match returns the first fee rule found in the description or merchant.
func (d *LeakDetector) Match(t domain.CategorizedTransaction) (rules.Fee, bool) {
	text := strings.ToLower(t.Description + " " + t.Merchant)
	for _, f := range d.fees {
		if strings.Contains(text, f.Keyword) {
			return f, true
		}
	}
	return rules.Fee{}, false
}

// Detect scans the debits. Each debit yields at most one leak.
func (d *LeakDetector) Detect(txs []domain.CategorizedTransaction, periodDays int) MoneyLeaks {
	if periodDays < 1 {
		periodDays = 1
	}
	multiplier := float64(daysPerYear) / float64(periodDays)

	out := MoneyLeaks{Items: []domain.MoneyLeak{}}
	var total money.Accumulator
	for i, t := range txs {
		if !t.IsDebit() {
			continue
		}
		fee, ok := d.Match(t)
		if !ok {
			continue
		}
		total.Add(t.Amount)
		out.Items = append(out.Items, domain.MoneyLeak{
			ID:               leakID(i, t),
			Merchant:         t.Merchant,
			Amount:           t.Amount,
			Type:             fee.Type,
			Label:            fee.Label,
			Date:             t.Date,
			AnnualProjection: t.Amount * multiplier,
		})
	}

	out.Count = len(out.Items)
	out.Total = total.Total()
	out.AnnualTotal = out.Total * multiplier
	return out
}

func leakID(index int, t domain.CategorizedTransaction) string {
	key := fmt.Sprintf("%d|%s|%s|%.2f", index, domain.FormatDate(t.Date), t.Description, t.Amount)
	return uuid.NewSHA1(leakNamespace, []byte(key)).String()
}
