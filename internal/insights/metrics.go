// Package insights derives the behavioural metrics that feed the narrative
// step: visit frequency, small purchases, the long tail, category ratios,
// weekday patterns, money leaks and annual projections.
package insights

import (
	"sort"

	"github.com/dvloznov/spendscan/internal/analytics"
	"github.com/dvloznov/spendscan/internal/domain"
	"github.com/dvloznov/spendscan/internal/money"
)

const (
	merchantFrequencyLimit = 20
	longTailRank           = 10
	largestPurchaseLimit   = 10
	daysPerYear            = 365
	monthsPerYear          = 12
)

// MerchantFrequency is how often a merchant was visited.
type MerchantFrequency struct {
	Name        string  `json:"name"`
	Visits      int     `json:"visits"`
	Total       float64 `json:"total"`
	AvgPerVisit float64 `json:"avgPerVisit"`
}

// Bucket counts purchases under a threshold.
type Bucket struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// SmallPurchases holds overlapping buckets: a $3 purchase counts in all three.
type SmallPurchases struct {
	Under5  Bucket `json:"under5"`
	Under10 Bucket `json:"under10"`
	Under20 Bucket `json:"under20"`
}

// LongTail is the spend outside the ten biggest merchants.
type LongTail struct {
	MerchantsOutsideTop10  int     `json:"merchantsOutsideTop10"`
	SpendingOutsideTop10   float64 `json:"spendingOutsideTop10"`
	PercentageOutsideTop10 float64 `json:"percentageOutsideTop10"`
}

// CategoryRatios relates categories to each other. DiningVsGroceries is nil
// when nothing was spent on groceries.
type CategoryRatios struct {
	DiningVsGroceries    *float64 `json:"diningVsGroceries"`
	DiscretionaryPercent float64  `json:"discretionaryPercent"`
}

// LargestTransaction is the single biggest spending debit.
type LargestTransaction struct {
	Merchant string  `json:"merchant"`
	Amount   float64 `json:"amount"`
}

// CategoryAverage is the mean debit of a category, keyed by display label.
type CategoryAverage struct {
	Category string  `json:"category"`
	Average  float64 `json:"average"`
}

// LargePurchase is one of the biggest debits.
type LargePurchase struct {
	Merchant string  `json:"merchant"`
	Amount   float64 `json:"amount"`
	Date     string  `json:"date"`
	Category string  `json:"category"`
}

// TopCategoryProjection annualizes the top spending category.
type TopCategoryProjection struct {
	Name   string  `json:"name"`
	Annual float64 `json:"annual"`
}

// Projections scales period figures to a year.
type Projections struct {
	TotalSpending float64               `json:"totalSpending"`
	Subscriptions float64               `json:"subscriptions"`
	TopCategory   TopCategoryProjection `json:"topCategory"`
}

// InsightMetrics bundles every metric.
type InsightMetrics struct {
	MerchantFrequency            []MerchantFrequency `json:"merchantFrequency"`
	MostFrequentMerchant         MerchantFrequency   `json:"mostFrequentMerchant"`
	SmallPurchases               SmallPurchases      `json:"smallPurchases"`
	LongTail                     LongTail            `json:"longTail"`
	CategoryRatios               CategoryRatios      `json:"categoryRatios"`
	DayOfWeek                    DayOfWeekBreakdown  `json:"dayOfWeek"`
	MoneyLeaks                   MoneyLeaks          `json:"moneyLeaks"`
	LargestPurchases             []LargePurchase     `json:"largestPurchases"`
	LargestTransaction           LargestTransaction  `json:"largestTransaction"`
	AverageTransactionByCategory []CategoryAverage   `json:"averageTransactionByCategory"`
	ProjectedAnnual              Projections         `json:"projectedAnnual"`
}

// Engine computes metrics with a given fee table.
type Engine struct {
	leaks *LeakDetector
}

// NewEngine returns an Engine that flags fees with the given detector.
func NewEngine(leaks *LeakDetector) *Engine {
	return &Engine{leaks: leaks}
}

// Compute is Engine.Compute with the built-in fee table.
func Compute(txs []domain.CategorizedTransaction, subs []domain.Subscription, periodDays int) InsightMetrics {
	return NewEngine(DefaultLeakDetector()).Compute(txs, subs, periodDays)
}

// Compute derives all metrics. periodDays below 1 is treated as 1.
func (e *Engine) Compute(txs []domain.CategorizedTransaction, subs []domain.Subscription, periodDays int) InsightMetrics {
	if periodDays < 1 {
		periodDays = 1
	}

	spending := domain.SpendingDebits(txs)
	var spentAcc money.Accumulator
	for _, t := range spending {
		spentAcc.Add(t.Amount)
	}
	spent := spentAcc.Total()
	categories := analytics.CategoryTotals(txs)

	frequency := merchantFrequency(spending)
	most := MerchantFrequency{}
	if len(frequency) > 0 {
		most = frequency[0]
	}

	return InsightMetrics{
		MerchantFrequency:            frequency,
		MostFrequentMerchant:         most,
		SmallPurchases:               smallPurchases(spending),
		LongTail:                     longTail(spending, spent),
		CategoryRatios:               categoryRatios(categories, spent),
		DayOfWeek:                    dayOfWeek(spending),
		MoneyLeaks:                   e.leaks.Detect(txs, periodDays),
		LargestPurchases:             largestPurchases(spending),
		LargestTransaction:           largestTransaction(spending),
		AverageTransactionByCategory: averageByCategory(categories),
		ProjectedAnnual:              projections(spent, subs, categories, periodDays),
	}
}

func merchantFrequency(spending []domain.CategorizedTransaction) []MerchantFrequency {
	groups := analytics.GroupByMerchant(spending)
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Count > groups[j].Count })
	if len(groups) > merchantFrequencyLimit {
		groups = groups[:merchantFrequencyLimit]
	}

	out := make([]MerchantFrequency, len(groups))
	for i, g := range groups {
		out[i] = MerchantFrequency{
			Name:        g.Name,
			Visits:      g.Count,
			Total:       g.Total,
			AvgPerVisit: money.Ratio(g.Total, float64(g.Count)),
		}
	}
	return out
}

func smallPurchases(spending []domain.CategorizedTransaction) SmallPurchases {
	var under5, under10, under20 money.Accumulator
	for _, t := range spending {
		if t.Amount < 5 {
			under5.Add(t.Amount)
		}
		if t.Amount < 10 {
			under10.Add(t.Amount)
		}
		if t.Amount < 20 {
			under20.Add(t.Amount)
		}
	}
	bucket := func(a *money.Accumulator) Bucket { return Bucket{Count: a.Count(), Total: a.Total()} }
	return SmallPurchases{Under5: bucket(&under5), Under10: bucket(&under10), Under20: bucket(&under20)}
}

func longTail(spending []domain.CategorizedTransaction, spent float64) LongTail {
	groups := analytics.GroupByMerchant(spending)
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Total > groups[j].Total })
	if len(groups) <= longTailRank {
		return LongTail{}
	}

	var outside money.Accumulator
	for _, g := range groups[longTailRank:] {
		outside.Add(g.Total)
	}
	return LongTail{
		MerchantsOutsideTop10:  len(groups) - longTailRank,
		SpendingOutsideTop10:   outside.Total(),
		PercentageOutsideTop10: money.Percent(outside.Total(), spent),
	}
}

func categoryRatios(categories []analytics.CategoryTotal, spent float64) CategoryRatios {
	amounts := make(map[domain.Category]float64, len(categories))
	for _, ct := range categories {
		amounts[ct.Category] = ct.Amount
	}

	var ratios CategoryRatios
	if groceries := amounts[domain.Groceries]; groceries > 0 {
		r := amounts[domain.FoodDining] / groceries
		ratios.DiningVsGroceries = &r
	}

	var discretionary money.Accumulator
	for _, c := range domain.DiscretionaryCategories {
		discretionary.Add(amounts[c])
	}
	ratios.DiscretionaryPercent = money.Percent(discretionary.Total(), spent)
	return ratios
}

func largestPurchases(spending []domain.CategorizedTransaction) []LargePurchase {
	sorted := append([]domain.CategorizedTransaction(nil), spending...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Amount > sorted[j].Amount })
	if len(sorted) > largestPurchaseLimit {
		sorted = sorted[:largestPurchaseLimit]
	}

	out := make([]LargePurchase, len(sorted))
	for i, t := range sorted {
		out[i] = LargePurchase{
			Merchant: t.Merchant,
			Amount:   t.Amount,
			Date:     domain.FormatDate(t.Date),
			Category: t.Category.Label(),
		}
	}
	return out
}

func largestTransaction(spending []domain.CategorizedTransaction) LargestTransaction {
	var largest LargestTransaction
	for _, t := range spending {
		if t.Amount > largest.Amount {
			largest = LargestTransaction{Merchant: t.Merchant, Amount: t.Amount}
		}
	}
	return largest
}

func averageByCategory(categories []analytics.CategoryTotal) []CategoryAverage {
	out := make([]CategoryAverage, len(categories))
	for i, ct := range categories {
		out[i] = CategoryAverage{
			Category: ct.Category.Label(),
			Average:  money.Ratio(ct.Amount, float64(ct.Count)),
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Average > out[j].Average })
	return out
}

func projections(spent float64, subs []domain.Subscription, categories []analytics.CategoryTotal, periodDays int) Projections {
	multiplier := float64(daysPerYear) / float64(periodDays)

	p := Projections{
		TotalSpending: spent * multiplier,
		Subscriptions: money.Mul(analytics.SubscriptionMonthlyTotal(subs), monthsPerYear),
		TopCategory:   TopCategoryProjection{Name: domain.Other.Label()},
	}
	if len(categories) > 0 {
		p.TopCategory = TopCategoryProjection{
			Name:   categories[0].Category.Label(),
			Annual: categories[0].Amount * multiplier,
		}
	}
	return p
}
