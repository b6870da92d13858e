package domain

import "sort"

// Market is the registry of all listed companies, keyed by symbol.
// It is owned by the settlement cycle: one cycle runs to completion before
// the next begins, so there is no lock here.
type Market struct {
	companies map[string]*Company
}

// NewMarket creates an empty market.
func NewMarket() *Market {
	return &Market{companies: make(map[string]*Company)}
}

// Add registers a company. Last registration wins for a duplicate symbol.
func (m *Market) Add(c *Company) {
	m.companies[c.Symbol] = c
}

// Lookup returns the company for a symbol.
func (m *Market) Lookup(symbol string) (*Company, bool) {
	c, ok := m.companies[symbol]
	return c, ok
}

// Len returns the number of listed companies.
func (m *Market) Len() int {
	return len(m.companies)
}

// Companies returns all companies sorted by symbol for deterministic iteration.
func (m *Market) Companies() []*Company {
	result := make([]*Company, 0, len(m.companies))
	for _, c := range m.companies {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Symbol < result[j].Symbol
	})
	return result
}
