// Package classify assigns a spending category to each raw transaction using
// ordered keyword rules.
package classify

import (
	"sort"
	"strings"

	"github.com/dvloznov/spendscan/internal/domain"
	"github.com/dvloznov/spendscan/internal/merchant"
	"github.com/dvloznov/spendscan/internal/rules"
)

// Classifier is deterministic and safe for concurrent use.
type Classifier struct {
	normalizer *merchant.Normalizer
	income     []string
	transfer   []string
	keywords   []rules.CategoryKeyword
}

// New builds a Classifier from a rule set and a merchant normalizer.
func New(set *rules.Set, normalizer *merchant.Normalizer) *Classifier {
	c := &Classifier{
		normalizer: normalizer,
		income:     lowerAll(set.IncomeKeywords),
		transfer:   lowerAll(set.TransferKeywords),
	}
	for _, kw := range set.CategoryKeywords {
		c.keywords = append(c.keywords, rules.CategoryKeyword{
			Keyword:  strings.ToLower(kw.Keyword),
			Category: kw.Category,
		})
	}
	return c
}

// Default returns a Classifier over the built-in tables.
func Default() *Classifier {
	return New(rules.Default(), merchant.Default())
}

// Categorize cleans the merchant and assigns exactly one category.
func (c *Classifier) Categorize(raw domain.RawTransaction) domain.CategorizedTransaction {
	name := c.normalizer.Clean(raw.Description)
	category, matched := c.match(raw, name)

	return domain.CategorizedTransaction{
		RawTransaction: raw,
		Category:       category,
		Merchant:       name,
		IsRecurring:    category == domain.Subscriptions,
		NeedsReview:    !matched || raw.Confidence < domain.LowConfidenceThreshold,
	}
}

// CategorizeAll categorizes every transaction and orders the result by date,
// newest first. Transactions without a date sort last; ties keep input order.
func (c *Classifier) CategorizeAll(raws []domain.RawTransaction) []domain.CategorizedTransaction {
	out := make([]domain.CategorizedTransaction, len(raws))
	for i, raw := range raws {
		out[i] = c.Categorize(raw)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

func (c *Classifier) match(raw domain.RawTransaction, name string) (domain.Category, bool) {
	desc := strings.ToLower(raw.Description)

	if raw.IsCredit() && containsAny(desc, c.income) {
		return domain.Income, true
	}
	if containsAny(desc, c.transfer) {
		return domain.Transfer, true
	}

	lowerName := strings.ToLower(name)
	for _, kw := range c.keywords {
		if strings.Contains(lowerName, kw.Keyword) || strings.Contains(desc, kw.Keyword) {
			return kw.Category, true
		}
	}

	return domain.Other, false
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
