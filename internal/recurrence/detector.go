// Package recurrence finds subscription-like recurring charges in a set of
// categorized transactions.
package recurrence

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dvloznov/spendscan/internal/domain"
	"github.com/dvloznov/spendscan/internal/rules"
)

// Strategy names accepted by ParseStrategy.
const (
	StrategyWhitelist = "whitelist"
	StrategyInterval  = "interval"
)

// Strategy detects subscriptions. Implementations must not modify txs.
type Strategy interface {
	Name() string
	Detect(txs []domain.CategorizedTransaction) []domain.Subscription
}

// Detector runs one strategy and orders its output.
type Detector struct {
	strategy Strategy
}

// NewDetector wraps a strategy.
func NewDetector(strategy Strategy) *Detector {
	return &Detector{strategy: strategy}
}

// NewDetectorFromConfig builds a Detector for the named strategy. An empty
// name selects the whitelist strategy.
func NewDetectorFromConfig(name string, set *rules.Set) (*Detector, error) {
	strategy, err := ParseStrategy(name, set)
	if err != nil {
		return nil, fmt.Errorf("NewDetectorFromConfig: %w", err)
	}
	return NewDetector(strategy), nil
}

// ParseStrategy returns the strategy registered under name.
func ParseStrategy(name string, set *rules.Set) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StrategyWhitelist:
		return NewWhitelist(set), nil
	case StrategyInterval:
		return NewInterval(set), nil
	default:
		return nil, fmt.Errorf("unknown recurrence strategy %q", name)
	}
}

// Strategy returns the name of the active strategy.
func (d *Detector) Strategy() string {
	return d.strategy.Name()
}

// Detect returns the detected subscriptions sorted by amount, highest first,
// ties broken by name.
func (d *Detector) Detect(txs []domain.CategorizedTransaction) []domain.Subscription {
	subs := d.strategy.Detect(txs)
	if subs == nil {
		subs = []domain.Subscription{}
	}
	sort.SliceStable(subs, func(i, j int) bool {
		if subs[i].Amount != subs[j].Amount {
			return subs[i].Amount > subs[j].Amount
		}
		return subs[i].Name < subs[j].Name
	})
	return subs
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func inferCategory(merchant string, kinds []rules.ServiceKind) domain.SubscriptionCategory {
	lower := strings.ToLower(merchant)
	for _, kind := range kinds {
		if containsAny(lower, kind.Keywords) {
			return kind.Category
		}
	}
	return domain.SubOther
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

func lowerKinds(in []rules.ServiceKind) []rules.ServiceKind {
	out := make([]rules.ServiceKind, len(in))
	for i, k := range in {
		out[i] = rules.ServiceKind{Category: k.Category, Keywords: lowerAll(k.Keywords)}
	}
	return out
}
