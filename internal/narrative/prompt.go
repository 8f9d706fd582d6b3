package narrative

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are a friendly, supportive personal finance advisor. " +
	"Analyze spending data and provide helpful, non-judgmental insights. " +
	"Be specific with numbers. Focus on actionable observations. " +
	"Never shame or criticize; always be constructive and encouraging."

// BuildPrompt renders the request as the user prompt.
func BuildPrompt(req Request) string {
	var b strings.Builder
	s := req.Summary

	fmt.Fprintf(&b, "Here is someone's spending data for the past %d days:\n\n", s.PeriodDays)

	b.WriteString("SUMMARY:\n")
	fmt.Fprintf(&b, "- Total spent: $%.2f\n", s.TotalSpent)
	fmt.Fprintf(&b, "- Total income: $%.2f\n", s.TotalIncome)
	fmt.Fprintf(&b, "- Net cash flow: $%.2f\n", s.NetCashFlow)
	fmt.Fprintf(&b, "- Number of transactions: %d\n", s.TransactionCount)
	fmt.Fprintf(&b, "- Average transaction: $%.2f\n\n", s.AverageTransaction)

	b.WriteString("SPENDING BY CATEGORY:\n")
	for i, c := range req.Breakdown {
		if i == promptCategoryLimit {
			break
		}
		fmt.Fprintf(&b, "- %s: $%.2f (%.1f%%)\n", c.Category.Label(), c.Amount, c.Percentage)
	}

	b.WriteString("\nTOP MERCHANTS:\n")
	for i, m := range req.TopMerchants {
		if i == promptMerchantLimit {
			break
		}
		fmt.Fprintf(&b, "- %s: $%.2f (%d transactions)\n", m.Name, m.Amount, m.Count)
	}

	b.WriteString("\nDETECTED SUBSCRIPTIONS:\n")
	if len(req.Subscriptions) == 0 {
		b.WriteString("No recurring subscriptions detected\n")
	}
	for _, sub := range req.Subscriptions {
		fmt.Fprintf(&b, "- %s: $%.2f/%s\n", sub.Name, sub.Amount, sub.Frequency)
	}
	fmt.Fprintf(&b, "Monthly subscription total: $%.2f\n", s.SubscriptionTotal)

	if m := req.Metrics; m != nil {
		b.WriteString("\nSPENDING PATTERNS:\n")
		if m.MostFrequentMerchant.Visits > 0 {
			fmt.Fprintf(&b, "- Most frequent merchant: %s (%d visits, $%.2f)\n",
				m.MostFrequentMerchant.Name, m.MostFrequentMerchant.Visits, m.MostFrequentMerchant.Total)
		}
		fmt.Fprintf(&b, "- Purchases under $10: %d totaling $%.2f\n",
			m.SmallPurchases.Under10.Count, m.SmallPurchases.Under10.Total)
		if r := m.CategoryRatios.DiningVsGroceries; r != nil {
			fmt.Fprintf(&b, "- Dining out vs groceries ratio: %.2f\n", *r)
		}
		fmt.Fprintf(&b, "- Discretionary share of spending: %.1f%%\n", m.CategoryRatios.DiscretionaryPercent)
		if r := m.DayOfWeek.WeekendVsWeekdayRatio; r != nil {
			fmt.Fprintf(&b, "- Weekend vs weekday daily spending ratio: %.2f\n", *r)
		}
		if m.MoneyLeaks.Count > 0 {
			fmt.Fprintf(&b, "- Fees and charges: %d totaling $%.2f (about $%.2f per year)\n",
				m.MoneyLeaks.Count, m.MoneyLeaks.Total, m.MoneyLeaks.AnnualTotal)
		}
		fmt.Fprintf(&b, "- Projected annual spending: $%.2f\n", m.ProjectedAnnual.TotalSpending)
	}

	fmt.Fprintf(&b, `
Based on this data, provide:
1. Exactly %d insights about their spending patterns
2. Exactly %d actionable savings tips

RESPOND WITH VALID JSON ONLY:
{
  "insights": [
    {
      "id": "insight-1",
      "title": "short catchy title (5-8 words)",
      "description": "2-3 sentences with specific numbers from the data",
      "severity": "info" | "warning" | "positive",
      "category": "category id if applicable, otherwise null",
      "amount": number if applicable, otherwise null
    }
  ],
  "tips": [
    {
      "id": "tip-1",
      "title": "actionable title (5-8 words)",
      "description": "specific advice with numbers",
      "potentialSavings": estimated monthly savings as number,
      "difficulty": "easy" | "medium" | "hard",
      "timeframe": "immediate" | "monthly" | "yearly"
    }
  ]
}

Category ids: food_dining, groceries, shopping, transportation, subscriptions,
bills_utilities, entertainment, health_fitness, travel, income, transfer, other.

INSIGHT GUIDELINES:
- At least one insight should be positive (celebrate something good)
- Flag if one category is unusually high (>40%% of spending)
- Note subscription total if significant (>$100/month or >5%% of spending)
- Compare ratios when interesting (e.g., dining out vs groceries)
- Be specific with numbers, not vague

TIP GUIDELINES:
- Make tips actionable and specific
- At least one easy tip
- Base potential savings on actual spending data
- Don't suggest extreme measures
- Be realistic about difficulty

Respond with ONLY the JSON, no markdown, no explanation.
`, WantInsights, WantTips)

	return b.String()
}
