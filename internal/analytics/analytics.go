// Package analytics computes the headline aggregates of a categorized
// transaction set: summary, category breakdown, top merchants and the
// subscription audit.
//
// All functions are pure. Spending figures cover debits whose category counts
// as spending, so transfers never inflate them.
package analytics

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dvloznov/spendscan/internal/domain"
	"github.com/dvloznov/spendscan/internal/money"
)

// DefaultTopMerchants is the merchant count used when the caller has no preference.
const DefaultTopMerchants = 10

// CategoryTotal is the spend of one category.
type CategoryTotal struct {
	Category domain.Category
	Amount   float64
	Count    int
}

// Summary computes the spending summary.
func Summary(txs []domain.CategorizedTransaction, subs []domain.Subscription) domain.SpendingSummary {
	var spent, income money.Accumulator
	for _, t := range txs {
		switch {
		case t.IsCredit():
			income.Add(t.Amount)
		case t.IsDebit() && t.Category.IsSpending():
			spent.Add(t.Amount)
		}
	}

	summary := domain.SpendingSummary{
		TotalSpent:         spent.Total(),
		TotalIncome:        income.Total(),
		NetCashFlow:        money.Sum(income.Total(), -spent.Total()),
		TransactionCount:   len(txs),
		AverageTransaction: spent.Average(),
		TopCategory:        domain.Other,
		SubscriptionTotal:  SubscriptionMonthlyTotal(subs),
		PeriodDays:         PeriodDays(txs),
	}

	if totals := CategoryTotals(txs); len(totals) > 0 {
		summary.TopCategory = totals[0].Category
		summary.TopCategoryAmount = totals[0].Amount
	}
	return summary
}

// CategoryBreakdown returns one entry per spending category present among
// the debits, largest first. Percentages sum to 100 when anything was spent.
func CategoryBreakdown(txs []domain.CategorizedTransaction) []domain.CategoryBreakdown {
	totals := CategoryTotals(txs)

	amounts := make([]float64, len(totals))
	for i, ct := range totals {
		amounts[i] = ct.Amount
	}
	spent := money.Sum(amounts...)

	out := make([]domain.CategoryBreakdown, len(totals))
	for i, ct := range totals {
		out[i] = domain.CategoryBreakdown{
			Category:         ct.Category,
			Amount:           ct.Amount,
			Percentage:       money.Percent(ct.Amount, spent),
			TransactionCount: ct.Count,
		}
	}
	return out
}

// CategoryTotals sums spending debits per category, largest first. Ties keep
// the display order of domain.Categories.
func CategoryTotals(txs []domain.CategorizedTransaction) []CategoryTotal {
	accs := make(map[domain.Category]*money.Accumulator)
	for _, t := range domain.SpendingDebits(txs) {
		acc, ok := accs[t.Category]
		if !ok {
			acc = &money.Accumulator{}
			accs[t.Category] = acc
		}
		acc.Add(t.Amount)
	}

	out := make([]CategoryTotal, 0, len(accs))
	for _, info := range domain.Categories {
		if acc, ok := accs[info.ID]; ok {
			out = append(out, CategoryTotal{Category: info.ID, Amount: acc.Total(), Count: acc.Count()})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })
	return out
}

// TopMerchants groups spending debits by merchant and returns the n largest
// by total amount.
func TopMerchants(txs []domain.CategorizedTransaction, n int) []domain.TopMerchant {
	if n <= 0 {
		return []domain.TopMerchant{}
	}

	groups := GroupByMerchant(domain.SpendingDebits(txs))
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Total > groups[j].Total })
	if len(groups) > n {
		groups = groups[:n]
	}

	out := make([]domain.TopMerchant, len(groups))
	for i, g := range groups {
		out[i] = domain.TopMerchant{
			Name:     g.Name,
			Amount:   g.Total,
			Count:    g.Count,
			Category: g.Category,
		}
	}
	return out
}

// SubscriptionAudit normalizes each subscription to monthly and annual cost.
func SubscriptionAudit(subs []domain.Subscription) []domain.SubscriptionAudit {
	out := make([]domain.SubscriptionAudit, len(subs))
	for i, s := range subs {
		monthly := s.MonthlyAmount()
		out[i] = domain.SubscriptionAudit{
			Name:          s.Name,
			MonthlyAmount: monthly,
			AnnualCost:    money.Mul(monthly, 12),
			Category:      s.Category,
			Frequency:     s.Frequency,
		}
	}
	return out
}

// SubscriptionMonthlyTotal sums the monthly equivalent of every subscription.
func SubscriptionMonthlyTotal(subs []domain.Subscription) float64 {
	var acc money.Accumulator
	for _, s := range subs {
		acc.Add(s.MonthlyAmount())
	}
	return acc.Total()
}

// PeriodDays is the span in days between the earliest and latest dated
// transaction, never less than 1.
func PeriodDays(txs []domain.CategorizedTransaction) int {
	var first, last domain.CategorizedTransaction
	seen := false
	for _, t := range txs {
		if !t.HasDate() {
			continue
		}
		if !seen || t.Date.Before(first.Date) {
			first = t
		}
		if !seen || t.Date.After(last.Date) {
			last = t
		}
		seen = true
	}
	if !seen {
		return 1
	}
	if days := last.Date.DaysSince(first.Date); days > 1 {
		return days
	}
	return 1
}

// MerchantGroup aggregates the debits of one merchant.
type MerchantGroup struct {
	Key      string
	Name     string
	Total    float64
	Count    int
	Category domain.Category
}

// GroupByMerchant groups transactions by lower-cased merchant, in order of
// first appearance. Category is taken from the first transaction of each group.
func GroupByMerchant(txs []domain.CategorizedTransaction) []MerchantGroup {
	index := make(map[string]int)
	var groups []MerchantGroup
	var accs []*money.Accumulator

	for _, t := range txs {
		key := strings.ToLower(t.Merchant)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, MerchantGroup{Key: key, Name: DisplayName(key), Category: t.Category})
			accs = append(accs, &money.Accumulator{})
		}
		accs[i].Add(t.Amount)
	}

	for i := range groups {
		groups[i].Total = accs[i].Total()
		groups[i].Count = accs[i].Count()
	}
	if groups == nil {
		groups = []MerchantGroup{}
	}
	return groups
}

// DisplayName capitalizes the first letter of every word of a grouping key.
func DisplayName(key string) string {
	words := strings.Split(key, " ")
	for i, w := range words {
		if r, size := utf8.DecodeRuneInString(w); size > 0 {
			words[i] = string(unicode.ToUpper(r)) + w[size:]
		}
	}
	return strings.Join(words, " ")
}
