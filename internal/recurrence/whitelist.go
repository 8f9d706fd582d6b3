package recurrence

import (
	"strings"

	"github.com/dvloznov/spendscan/internal/domain"
	"github.com/dvloznov/spendscan/internal/rules"
)

const whitelistConfidence = 0.9

// Whitelist recognizes known subscription services by name.
type Whitelist struct {
	services  []rules.Service
	blacklist []string
}

// NewWhitelist builds the strategy from the service and blacklist tables.
func NewWhitelist(set *rules.Set) *Whitelist {
	w := &Whitelist{blacklist: lowerAll(set.Blacklist)}
	for _, svc := range set.Services {
		svc.Pattern = strings.ToLower(svc.Pattern)
		w.services = append(w.services, svc)
	}
	return w
}

func (w *Whitelist) Name() string { return StrategyWhitelist }

// Detect groups debits by matched service. The most recent charge of each
// group represents it.
func (w *Whitelist) Detect(txs []domain.CategorizedTransaction) []domain.Subscription {
	type group struct {
		service rules.Service
		latest  domain.CategorizedTransaction
	}

	var order []string
	groups := make(map[string]*group)

	for _, tx := range txs {
		if !tx.IsDebit() {
			continue
		}
		merchant := strings.ToLower(tx.Merchant)
		if containsAny(merchant, w.blacklist) {
			continue
		}
		svc, ok := w.match(merchant, strings.ToLower(tx.Description))
		if !ok {
			continue
		}

		g, seen := groups[svc.Name]
		if !seen {
			groups[svc.Name] = &group{service: svc, latest: tx}
			order = append(order, svc.Name)
			continue
		}
		if tx.Date.After(g.latest.Date) {
			g.latest = tx
		}
	}

	subs := make([]domain.Subscription, 0, len(order))
	for _, name := range order {
		g := groups[name]
		if g.latest.Amount < g.service.MinAmount {
			continue
		}
		subs = append(subs, domain.Subscription{
			Name:       g.service.Name,
			Amount:     g.latest.Amount,
			Frequency:  domain.Monthly,
			LastCharge: g.latest.Date,
			Category:   g.service.Category,
			Confidence: whitelistConfidence,
		})
	}
	return subs
}

func (w *Whitelist) match(merchant, description string) (rules.Service, bool) {
	for _, svc := range w.services {
		if strings.Contains(merchant, svc.Pattern) || strings.Contains(description, svc.Pattern) {
			return svc, true
		}
	}
	return rules.Service{}, false
}
