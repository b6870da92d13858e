package engine

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"stock_go/internal/domain"

	"github.com/shopspring/decimal"
)

// PricingConfig holds the per-cycle price discovery parameters.
type PricingConfig struct {
	CircuitPct decimal.Decimal // band width around the anchor price (0.20 = ±20%)
	JitterPct  float64         // percentage perturbation bound (0.015 = ±1.5%)
	JitterAbs  float64         // absolute perturbation bound in currency units
	PriceFloor decimal.Decimal // minimum positive price

	// ClampToPreviousClose switches the circuit anchor. The source system
	// derives the band from the candidate price itself, which makes the
	// clamp a near no-op; with this flag set the band is derived from the
	// previous close and the candidate is clamped against it.
	ClampToPreviousClose bool
}

// PriceEngine derives a new reference price for each traded instrument from
// recent trade flow, random perturbation, manual overrides and circuit
// clamping. The random source is injected so tests can fix the seed.
type PriceEngine struct {
	cfg PricingConfig
	rng *rand.Rand
	log *slog.Logger
}

// NewPriceEngine creates a price engine with the given random source.
// A nil rng falls back to a clock-seeded source.
func NewPriceEngine(cfg PricingConfig, rng *rand.Rand, log *slog.Logger) *PriceEngine {
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	if log == nil {
		log = slog.Default()
	}
	return &PriceEngine{cfg: cfg, rng: rng, log: log}
}

// UpdatePrices runs one price-discovery pass over the persisted price rows
// and returns the rows to write back. Companies are processed independently:
// a row whose symbol is not listed is skipped with a warning, and an
// unexpected failure on one company never blocks the others.
//
// Side effect: a company under an active override has its recent-trade
// window cleared, so the override becomes the new trade-flow baseline.
func (e *PriceEngine) UpdatePrices(market *domain.Market, rows []domain.PriceRow, overrides map[string]decimal.Decimal) []domain.PriceRow {
	out := make([]domain.PriceRow, 0, len(rows))
	for _, row := range rows {
		c, ok := market.Lookup(row.Symbol)
		if !ok {
			e.log.Warn("price row for unlisted company, skipping",
				slog.String("symbol", row.Symbol))
			continue
		}

		updated, err := e.updateOne(c, row, overrides)
		if err != nil {
			e.log.Error("price update failed",
				slog.String("symbol", row.Symbol), slog.Any("error", err))
			continue
		}
		out = append(out, updated)
	}
	return out
}

func (e *PriceEngine) updateOne(c *domain.Company, row domain.PriceRow, overrides map[string]decimal.Decimal) (out domain.PriceRow, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("update %s: %v", c.Symbol, r)
		}
	}()

	// Previous close comes from the store's last displayed price,
	// falling back to the initial price when absent or non-positive.
	prev := c.InitialPrice
	if row.Price.IsPositive() {
		prev = row.Price
	}
	c.PreviousClose = prev

	var price decimal.Decimal
	if forced, ok := overrides[c.Symbol]; ok {
		price = forced
		c.LastTraded = forced
		c.ClearTrades()
		e.log.Info("manual override applied",
			slog.String("symbol", c.Symbol),
			slog.String("price", forced.StringFixed(2)))
	} else {
		base := c.ReferencePrice
		if vwap, ok := c.VWAP(); ok {
			base = vwap
		}
		pct := base.Mul(decimal.NewFromFloat(e.uniform(e.cfg.JitterPct)))
		abs := decimal.NewFromFloat(e.uniform(e.cfg.JitterAbs))
		price = base.Add(pct).Add(abs)
		if price.LessThan(e.cfg.PriceFloor) {
			price = e.cfg.PriceFloor
		}
	}

	anchor := price
	if e.cfg.ClampToPreviousClose {
		anchor = prev
	}
	one := decimal.NewFromInt(1)
	band := domain.Band{
		Upper: anchor.Mul(one.Add(e.cfg.CircuitPct)),
		Lower: anchor.Mul(one.Sub(e.cfg.CircuitPct)),
	}

	if price.GreaterThan(band.Upper) {
		e.log.Info("hit upper circuit",
			slog.String("symbol", c.Symbol),
			slog.String("limit", band.Upper.StringFixed(2)))
		price = band.Upper
	} else if price.LessThan(band.Lower) {
		e.log.Info("hit lower circuit",
			slog.String("symbol", c.Symbol),
			slog.String("limit", band.Lower.StringFixed(2)))
		price = band.Lower
	}

	change := decimal.Zero
	if !prev.IsZero() {
		change = price.Sub(prev).Div(prev)
	}

	c.ReferencePrice = price
	c.Circuit = band

	return domain.PriceRow{
		Symbol:       c.Symbol,
		Price:        price.Round(2),
		LastTraded:   c.LastTraded.Round(2),
		Volume:       c.Volume,
		ChangePct:    change,
		CircuitUpper: band.Upper.Round(2),
		CircuitLower: band.Lower.Round(2),
		UpdatedAt:    time.Now(),
	}, nil
}

// uniform draws from [-bound, +bound).
func (e *PriceEngine) uniform(bound float64) float64 {
	return (e.rng.Float64()*2 - 1) * bound
}
