package domain

import "github.com/shopspring/decimal"

// TradeWindowSize is the number of recent trades kept per company for VWAP.
const TradeWindowSize = 3

// Trade is one executed (price, quantity) pair kept in a company's
// recent-trade window.
type Trade struct {
	Price decimal.Decimal `json:"price"`
	Qty   int64           `json:"qty"`
}

// Band is a circuit limit band around a reference price.
// A zero band means circuits are not established yet.
type Band struct {
	Upper decimal.Decimal `json:"upper"`
	Lower decimal.Decimal `json:"lower"`
}

// Established returns true when both bounds are non-zero.
func (b Band) Established() bool {
	return !b.Upper.IsZero() && !b.Lower.IsZero()
}

// Contains reports whether price lies within [Lower, Upper].
func (b Band) Contains(price decimal.Decimal) bool {
	return price.GreaterThanOrEqual(b.Lower) && price.LessThanOrEqual(b.Upper)
}

// Company is a single listed instrument.
// Mutated only inside a settlement cycle (single writer, no locking).
type Company struct {
	Symbol         string          `json:"symbol"`
	InitialPrice   decimal.Decimal `json:"initial_price"`
	PreviousClose  decimal.Decimal `json:"previous_close"`
	ReferencePrice decimal.Decimal `json:"reference_price"`
	LastTraded     decimal.Decimal `json:"last_traded"`
	Volume         int64           `json:"volume"`
	RecentTrades   []Trade         `json:"recent_trades"`
	Circuit        Band            `json:"circuit"`
}

// NewCompany creates a company at its initial price with circuits seeded
// at circuitPct around it, so orders are band-checked from the first cycle.
func NewCompany(symbol string, initial decimal.Decimal, circuitPct decimal.Decimal) *Company {
	return &Company{
		Symbol:         symbol,
		InitialPrice:   initial,
		PreviousClose:  initial,
		ReferencePrice: initial,
		LastTraded:     initial,
		Circuit: Band{
			Upper: initial.Mul(decimal.NewFromInt(1).Add(circuitPct)),
			Lower: initial.Mul(decimal.NewFromInt(1).Sub(circuitPct)),
		},
	}
}

// RecordTrade pushes an executed trade into the recent-trade window
// (oldest evicted beyond TradeWindowSize), bumps cumulative volume and
// updates the last traded price.
func (c *Company) RecordTrade(price decimal.Decimal, qty int64) {
	c.RecentTrades = append(c.RecentTrades, Trade{Price: price, Qty: qty})
	if len(c.RecentTrades) > TradeWindowSize {
		c.RecentTrades = c.RecentTrades[1:]
	}
	c.Volume += qty
	c.LastTraded = price
}

// ClearTrades empties the recent-trade window. A manual override calls this
// so the override becomes the new baseline instead of stale VWAP history.
func (c *Company) ClearTrades() {
	c.RecentTrades = nil
}

// VWAP returns the quantity-weighted mean price of the recent-trade window.
// ok is false when the window is empty or its total quantity is zero.
func (c *Company) VWAP() (decimal.Decimal, bool) {
	if len(c.RecentTrades) == 0 {
		return decimal.Zero, false
	}
	sum := decimal.Zero
	var totalQty int64
	for _, t := range c.RecentTrades {
		sum = sum.Add(t.Price.Mul(decimal.NewFromInt(t.Qty)))
		totalQty += t.Qty
	}
	if totalQty == 0 {
		return decimal.Zero, false
	}
	return sum.Div(decimal.NewFromInt(totalQty)), true
}
