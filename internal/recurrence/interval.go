package recurrence

import (
	"math"
	"sort"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/spendscan/internal/domain"
	"github.com/dvloznov/spendscan/internal/money"
	"github.com/dvloznov/spendscan/internal/rules"
)

const (
	amountTolerance = 2.0
	tightSpread     = 0.5

	maxWeeklyInterval  = 10
	maxMonthlyInterval = 45
	maxYearlyInterval  = 380
)

// Interval infers subscriptions from repeated, similar charges at a regular
// cadence, without a list of known services.
type Interval struct {
	kinds []rules.ServiceKind
}

// NewInterval builds the strategy; the rule set only supplies the keyword
// lists used to guess a subscription category.
func NewInterval(set *rules.Set) *Interval {
	return &Interval{kinds: lowerKinds(set.ServiceKinds)}
}

func (iv *Interval) Name() string { return StrategyInterval }

// Detect groups debits by merchant and keeps groups with stable amounts and
// a weekly, monthly or yearly rhythm.
func (iv *Interval) Detect(txs []domain.CategorizedTransaction) []domain.Subscription {
	var order []string
	groups := make(map[string][]domain.CategorizedTransaction)

	for _, tx := range txs {
		if !tx.IsDebit() {
			continue
		}
		key := strings.ToLower(tx.Merchant)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], tx)
	}

	subs := make([]domain.Subscription, 0)
	for _, key := range order {
		if sub, ok := iv.detectGroup(groups[key]); ok {
			subs = append(subs, sub)
		}
	}
	return subs
}

func (iv *Interval) detectGroup(group []domain.CategorizedTransaction) (domain.Subscription, bool) {
	if len(group) < 2 {
		return domain.Subscription{}, false
	}

	var acc money.Accumulator
	lo, hi := math.Inf(1), math.Inf(-1)
	var dates []civil.Date
	for _, tx := range group {
		acc.Add(tx.Amount)
		lo = math.Min(lo, tx.Amount)
		hi = math.Max(hi, tx.Amount)
		if tx.HasDate() {
			dates = append(dates, tx.Date)
		}
	}

	mean := acc.Average()
	if hi-mean > amountTolerance || mean-lo > amountTolerance {
		return domain.Subscription{}, false
	}
	if len(dates) < 2 {
		return domain.Subscription{}, false
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	first, last := dates[0], dates[len(dates)-1]
	avgInterval := float64(last.DaysSince(first)) / float64(len(dates)-1)

	frequency, ok := frequencyFor(avgInterval)
	if !ok {
		return domain.Subscription{}, false
	}

	confidence := 0.7
	if hi-lo <= tightSpread {
		confidence = 0.9
	}

	name := group[0].Merchant
	return domain.Subscription{
		Name:       name,
		Amount:     money.Round2(mean),
		Frequency:  frequency,
		LastCharge: last,
		Category:   inferCategory(name, iv.kinds),
		Confidence: confidence,
	}, true
}

// frequencyFor maps a mean gap in days to a billing cycle. Same-day repeats
// are not a cycle.
func frequencyFor(avgDays float64) (domain.Frequency, bool) {
	switch {
	case avgDays < 1:
		return "", false
	case avgDays <= maxWeeklyInterval:
		return domain.Weekly, true
	case avgDays <= maxMonthlyInterval:
		return domain.Monthly, true
	case avgDays <= maxYearlyInterval:
		return domain.Yearly, true
	default:
		return "", false
	}
}
