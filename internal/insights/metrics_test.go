package insights

import (
	"fmt"
	"math"
	"testing"

	"github.com/dvloznov/spendscan/internal/analytics"
	"github.com/dvloznov/spendscan/internal/domain"
	"github.com/dvloznov/spendscan/internal/rules"
)

func tx(date, desc, merchant string, amount float64, cat domain.Category) domain.CategorizedTransaction {
	return domain.CategorizedTransaction{
		RawTransaction: domain.RawTransaction{
			Date:        domain.ParseDate(date),
			Description: desc,
			Amount:      amount,
			Type:        domain.Debit,
			Confidence:  1,
		},
		Merchant: merchant,
		Category: cat,
	}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestCompute_Empty(t *testing.T) {
	m := Compute(nil, nil, 0)

	if m.MerchantFrequency == nil || len(m.MerchantFrequency) != 0 {
		t.Errorf("MerchantFrequency = %#v, want empty", m.MerchantFrequency)
	}
	if m.MostFrequentMerchant != (MerchantFrequency{}) {
		t.Errorf("MostFrequentMerchant = %+v, want zero", m.MostFrequentMerchant)
	}
	if m.CategoryRatios.DiningVsGroceries != nil {
		t.Error("DiningVsGroceries should be nil")
	}
	if m.DayOfWeek.WeekendVsWeekdayRatio != nil {
		t.Error("WeekendVsWeekdayRatio should be nil")
	}
	if len(m.DayOfWeek.Days) != 7 {
		t.Errorf("Days has %d entries, want 7", len(m.DayOfWeek.Days))
	}
	if m.DayOfWeek.HighestDay != "" || m.DayOfWeek.LowestDay != "" {
		t.Errorf("highest/lowest = %q/%q, want empty", m.DayOfWeek.HighestDay, m.DayOfWeek.LowestDay)
	}
	if m.MoneyLeaks.Items == nil || m.MoneyLeaks.Count != 0 || m.MoneyLeaks.Total != 0 {
		t.Errorf("MoneyLeaks = %+v, want empty", m.MoneyLeaks)
	}
	if m.LargestPurchases == nil || len(m.LargestPurchases) != 0 {
		t.Errorf("LargestPurchases = %#v, want empty", m.LargestPurchases)
	}
	if m.AverageTransactionByCategory == nil || len(m.AverageTransactionByCategory) != 0 {
		t.Errorf("AverageTransactionByCategory = %#v, want empty", m.AverageTransactionByCategory)
	}
	if m.ProjectedAnnual != (Projections{TopCategory: TopCategoryProjection{Name: "Other"}}) {
		t.Errorf("ProjectedAnnual = %+v, want zeros", m.ProjectedAnnual)
	}
	if m.LongTail != (LongTail{}) || m.LargestTransaction != (LargestTransaction{}) {
		t.Error("expected zero long tail and largest transaction")
	}
}

func TestCompute_AllSaturdays(t *testing.T) {
	txs := []domain.CategorizedTransaction{
		tx("2024-01-06", "CAFE", "Cafe", 10, domain.FoodDining),
		tx("2024-01-13", "CAFE", "Cafe", 20, domain.FoodDining),
		tx("2024-01-20", "CAFE", "Cafe", 30, domain.FoodDining),
	}

	dow := Compute(txs, nil, 14).DayOfWeek
	if dow.WeekendVsWeekdayRatio != nil {
		t.Errorf("WeekendVsWeekdayRatio = %v, want nil", *dow.WeekendVsWeekdayRatio)
	}
	if dow.HighestDay != "Saturday" {
		t.Errorf("HighestDay = %q, want Saturday", dow.HighestDay)
	}
	if dow.LowestDay != "Sunday" {
		t.Errorf("LowestDay = %q, want Sunday", dow.LowestDay)
	}
	sat := dow.Days[6]
	if sat.Day != "Saturday" || sat.Count != 3 || sat.Total != 60 || sat.Average != 20 {
		t.Errorf("Saturday = %+v", sat)
	}

	spent := analytics.Summary(txs, nil).TotalSpent
	if dow.WeekendTotal != spent {
		t.Errorf("WeekendTotal = %v, want total spent %v", dow.WeekendTotal, spent)
	}
	if dow.WeekdayTotal != 0 {
		t.Errorf("WeekdayTotal = %v, want 0", dow.WeekdayTotal)
	}
}

func TestCompute_WeekendRatio(t *testing.T) {
	txs := []domain.CategorizedTransaction{
		tx("2024-01-06", "A", "A", 40, domain.Shopping), // Saturday
		tx("2024-01-07", "B", "B", 20, domain.Shopping), // Sunday
		tx("2024-01-08", "C", "C", 50, domain.Shopping), // Monday
		tx("", "D", "D", 500, domain.Shopping),
	}

	dow := Compute(txs, nil, 2).DayOfWeek
	if dow.WeekendVsWeekdayRatio == nil {
		t.Fatal("WeekendVsWeekdayRatio is nil")
	}
	// (60/2) / (50/5)
	if !approx(*dow.WeekendVsWeekdayRatio, 3) {
		t.Errorf("WeekendVsWeekdayRatio = %v, want 3", *dow.WeekendVsWeekdayRatio)
	}
	var counted int
	for _, d := range dow.Days {
		counted += d.Count
	}
	if counted != 3 {
		t.Errorf("undated debit was bucketed: %d counted", counted)
	}
}

func TestMoneyLeaks_Overdraft(t *testing.T) {
	txs := []domain.CategorizedTransaction{
		tx("2024-01-10", "OVERDRAFT FEE", "Overdraft Fee", 35, domain.BillsUtilities),
		tx("2024-01-11", "NETFLIX.COM", "Netflix", 15.99, domain.Subscriptions),
		tx("2024-01-12", "NON-NETWORK ATM FEE", "Non-network Atm Fee", 3.5, domain.BillsUtilities),
	}

	leaks := Compute(txs, nil, 30).MoneyLeaks
	if leaks.Count != 2 {
		t.Fatalf("Count = %d, want 2: %+v", leaks.Count, leaks.Items)
	}

	first := leaks.Items[0]
	if first.Type != domain.BankFee {
		t.Errorf("Type = %q, want bank_fee", first.Type)
	}
	if !approx(first.AnnualProjection, 35*365.0/30) {
		t.Errorf("AnnualProjection = %v, want %v", first.AnnualProjection, 35*365.0/30)
	}
	if first.ID == "" || first.ID == leaks.Items[1].ID {
		t.Errorf("IDs must be set and distinct: %q %q", first.ID, leaks.Items[1].ID)
	}
	if leaks.Items[1].Type != domain.ATMFee {
		t.Errorf("Type = %q, want atm_fee", leaks.Items[1].Type)
	}
	if leaks.Total != 38.5 || !approx(leaks.AnnualTotal, 38.5*365.0/30) {
		t.Errorf("Total/AnnualTotal = %v/%v", leaks.Total, leaks.AnnualTotal)
	}

	again := Compute(txs, nil, 30).MoneyLeaks
	if again.Items[0].ID != first.ID {
		t.Error("leak IDs are not stable across runs")
	}
}

func TestMoneyLeaks_FirstRuleWins(t *testing.T) {
	set := rules.Default()
	set.Fees = []rules.Fee{
		{Keyword: "fee", Type: domain.ConvenienceFee, Label: "Fee"},
		{Keyword: "overdraft", Type: domain.BankFee, Label: "Overdraft"},
	}
	d := NewLeakDetector(set)

	leaks := d.Detect([]domain.CategorizedTransaction{
		tx("2024-01-10", "OVERDRAFT FEE", "Overdraft Fee", 35, domain.BillsUtilities),
	}, 30)
	if leaks.Count != 1 || leaks.Items[0].Type != domain.ConvenienceFee {
		t.Errorf("leaks = %+v, want one convenience_fee", leaks.Items)
	}
}

func TestSmallPurchases_Overlap(t *testing.T) {
	txs := []domain.CategorizedTransaction{
		tx("2024-01-01", "A", "A", 3, domain.FoodDining),
		tx("2024-01-01", "B", "B", 7, domain.FoodDining),
		tx("2024-01-01", "C", "C", 15, domain.FoodDining),
		tx("2024-01-01", "D", "D", 20, domain.FoodDining),
	}

	sp := Compute(txs, nil, 1).SmallPurchases
	if sp.Under5 != (Bucket{Count: 1, Total: 3}) {
		t.Errorf("Under5 = %+v", sp.Under5)
	}
	if sp.Under10 != (Bucket{Count: 2, Total: 10}) {
		t.Errorf("Under10 = %+v", sp.Under10)
	}
	if sp.Under20 != (Bucket{Count: 3, Total: 25}) {
		t.Errorf("Under20 = %+v", sp.Under20)
	}
}

func TestLongTail(t *testing.T) {
	var txs []domain.CategorizedTransaction
	for i := 1; i <= 12; i++ {
		name := fmt.Sprintf("Shop %d", i)
		txs = append(txs, tx("2024-01-01", name, name, float64(i*10), domain.Shopping))
	}

	lt := Compute(txs, nil, 1).LongTail
	if lt.MerchantsOutsideTop10 != 2 {
		t.Errorf("MerchantsOutsideTop10 = %d, want 2", lt.MerchantsOutsideTop10)
	}
	if lt.SpendingOutsideTop10 != 30 {
		t.Errorf("SpendingOutsideTop10 = %v, want 30", lt.SpendingOutsideTop10)
	}
	if !approx(lt.PercentageOutsideTop10, 30.0/780*100) {
		t.Errorf("PercentageOutsideTop10 = %v", lt.PercentageOutsideTop10)
	}
}

func TestProjections_SubscriptionsIndependentOfPeriod(t *testing.T) {
	subs := []domain.Subscription{
		{Name: "Netflix", Amount: 15.99, Frequency: domain.Monthly},
		{Name: "Adobe", Amount: 120, Frequency: domain.Yearly},
	}
	audit := analytics.SubscriptionAudit(subs)
	var auditAnnual float64
	for _, a := range audit {
		auditAnnual += a.AnnualCost
	}

	for _, days := range []int{1, 7, 31, 90, 365} {
		t.Run(fmt.Sprintf("%d days", days), func(t *testing.T) {
			got := Compute(nil, subs, days).ProjectedAnnual.Subscriptions
			if math.Abs(got-311.88) > 0.005 {
				t.Errorf("Subscriptions = %v, want 311.88", got)
			}
			if math.Abs(got-auditAnnual) > 0.005 {
				t.Errorf("Subscriptions = %v, audit annual = %v", got, auditAnnual)
			}
		})
	}
}

func TestCategoryRatiosAndProjections(t *testing.T) {
	txs := []domain.CategorizedTransaction{
		tx("2024-01-01", "CAFE", "Cafe", 60, domain.FoodDining),
		tx("2024-01-02", "CAFE", "Cafe", 40, domain.FoodDining),
		tx("2024-01-03", "MARKET", "Market", 50, domain.Groceries),
		tx("2024-01-04", "ELECTRIC CO", "Electric", 50, domain.BillsUtilities),
		tx("2024-01-05", "ZELLE TO SAM", "Zelle to Sam", 1000, domain.Transfer),
	}
	subs := []domain.Subscription{{Name: "Netflix", Amount: 15, Frequency: domain.Monthly}}

	m := Compute(txs, subs, 73)

	if m.CategoryRatios.DiningVsGroceries == nil || !approx(*m.CategoryRatios.DiningVsGroceries, 2) {
		t.Errorf("DiningVsGroceries = %v, want 2", m.CategoryRatios.DiningVsGroceries)
	}
	if !approx(m.CategoryRatios.DiscretionaryPercent, 50) {
		t.Errorf("DiscretionaryPercent = %v, want 50", m.CategoryRatios.DiscretionaryPercent)
	}

	p := m.ProjectedAnnual
	if !approx(p.TotalSpending, 1000) {
		t.Errorf("TotalSpending = %v, want 1000", p.TotalSpending)
	}
	if !approx(p.Subscriptions, 180) {
		t.Errorf("Subscriptions = %v, want 180", p.Subscriptions)
	}
	if p.TopCategory.Name != "Food & Dining" || !approx(p.TopCategory.Annual, 500) {
		t.Errorf("TopCategory = %+v, want Food & Dining 500", p.TopCategory)
	}

	if m.LargestTransaction != (LargestTransaction{Merchant: "Cafe", Amount: 60}) {
		t.Errorf("LargestTransaction = %+v, transfers must not count", m.LargestTransaction)
	}
	if m.MostFrequentMerchant.Name != "Cafe" || m.MostFrequentMerchant.Visits != 2 || m.MostFrequentMerchant.AvgPerVisit != 50 {
		t.Errorf("MostFrequentMerchant = %+v", m.MostFrequentMerchant)
	}

	avg := m.AverageTransactionByCategory
	if len(avg) != 3 || avg[0].Category != "Food & Dining" || avg[0].Average != 50 {
		t.Errorf("AverageTransactionByCategory = %+v", avg)
	}
	if len(m.LargestPurchases) != 4 || m.LargestPurchases[0].Date != "2024-01-01" {
		t.Errorf("LargestPurchases = %+v", m.LargestPurchases)
	}
}
