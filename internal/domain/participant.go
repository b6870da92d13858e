package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Participant is one trading account: a cash balance plus share holdings.
// The ledger is loaded fresh from the store at the start of each cycle,
// mutated in memory during the batch and persisted at cycle end.
//
// Cash and every holding stay non-negative: validation rejects an order
// before mutation, it is never rolled back after. The mutation helpers
// still return errors rather than panic so an unexpected failure during
// settlement surfaces as a per-order rejection, not a crash.
type Participant struct {
	Name     string           `json:"name"`
	Cash     decimal.Decimal  `json:"cash"`
	Holdings map[string]int64 `json:"holdings"`
}

// NewParticipant creates a participant with an empty holdings map.
func NewParticipant(name string, cash decimal.Decimal) *Participant {
	return &Participant{Name: name, Cash: cash, Holdings: make(map[string]int64)}
}

// Holding returns the share quantity held for a company. Missing entries
// are zero.
func (p *Participant) Holding(company string) int64 {
	return p.Holdings[company]
}

// Debit removes cash. Fails when the balance would go negative.
func (p *Participant) Debit(amount decimal.Decimal) error {
	if p.Cash.LessThan(amount) {
		return fmt.Errorf("debit %s from %s: balance %s insufficient",
			amount.StringFixed(2), p.Name, p.Cash.StringFixed(2))
	}
	p.Cash = p.Cash.Sub(amount)
	return nil
}

// Credit adds cash.
func (p *Participant) Credit(amount decimal.Decimal) {
	p.Cash = p.Cash.Add(amount)
}

// AddShares increases the holding for a company.
func (p *Participant) AddShares(company string, qty int64) {
	if p.Holdings == nil {
		p.Holdings = make(map[string]int64)
	}
	p.Holdings[company] += qty
}

// RemoveShares decreases the holding for a company. Fails when the
// quantity held would go negative.
func (p *Participant) RemoveShares(company string, qty int64) error {
	if p.Holdings[company] < qty {
		return fmt.Errorf("remove %d %s from %s: holds %d",
			qty, company, p.Name, p.Holdings[company])
	}
	p.Holdings[company] -= qty
	return nil
}
