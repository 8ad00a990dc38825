package suggestion

import (
	"context"
	"sort"
	"strings"

	"pdvcaixa/internal/domain"
)

// LedgerSource is the read side of the till the offline suggester needs.
type LedgerSource interface {
	Transactions() []domain.Transaction
	Products() []domain.Product
}

// LedgerSuggester suggests products that were bought together with the cart
// items in past sales. It works without network access.
type LedgerSuggester struct {
	source LedgerSource
}

func NewLedgerSuggester(source LedgerSource) *LedgerSuggester {
	return &LedgerSuggester{source: source}
}

func (l *LedgerSuggester) Suggest(_ context.Context, itemNames []string) ([]string, error) {
	cartSet := make(map[string]struct{}, len(itemNames))
	for _, name := range itemNames {
		cartSet[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}

	available := make(map[string]string)
	for _, p := range l.source.Products() {
		if p.Stock.IsPositive() {
			available[strings.ToLower(p.Name)] = p.Name
		}
	}

	pairSignal := make(map[string]int)
	for _, tx := range l.source.Transactions() {
		matched := false
		for _, item := range tx.Items {
			if _, ok := cartSet[strings.ToLower(item.Name)]; ok {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		counted := make(map[string]struct{}, len(tx.Items))
		for _, item := range tx.Items {
			k := strings.ToLower(item.Name)
			if _, inCart := cartSet[k]; inCart {
				continue
			}
			if _, done := counted[k]; done {
				continue
			}
			if _, ok := available[k]; !ok {
				continue
			}
			counted[k] = struct{}{}
			pairSignal[k]++
		}
	}

	ranked := make([]string, 0, len(pairSignal))
	for k := range pairSignal {
		ranked = append(ranked, k)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if pairSignal[ranked[i]] != pairSignal[ranked[j]] {
			return pairSignal[ranked[i]] > pairSignal[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})
	if len(ranked) > MaxSuggestions {
		ranked = ranked[:MaxSuggestions]
	}

	out := make([]string, len(ranked))
	for i, k := range ranked {
		out[i] = available[k]
	}
	return out, nil
}
