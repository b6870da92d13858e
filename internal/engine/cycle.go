package engine

import (
	"context"
	"log/slog"
	"time"

	"stock_go/internal/domain"
	"stock_go/internal/infra"
)

// Broadcaster receives each emitted price snapshot (live feed boundary).
type Broadcaster interface {
	Broadcast(v any)
}

// Cycle runs one full settlement cycle: settle pending orders, then
// rediscover prices from the trade flow that pass just produced. Cycles are
// strictly sequential; the cycle exclusively owns the in-memory ledger
// snapshot for its duration.
type Cycle struct {
	store    domain.LedgerStore
	market   *domain.Market
	pricing  *PriceEngine
	pipeline *Pipeline
	feed     Broadcaster
	log      *slog.Logger
}

// NewCycle wires the cycle orchestrator. feed may be nil.
func NewCycle(store domain.LedgerStore, market *domain.Market, pricing *PriceEngine, pipeline *Pipeline, feed Broadcaster, log *slog.Logger) *Cycle {
	if log == nil {
		log = slog.Default()
	}
	return &Cycle{store: store, market: market, pricing: pricing, pipeline: pipeline, feed: feed, log: log}
}

// Run executes one cycle. Only a failure to read the order queue is
// returned; everything else is recovered locally. The price pass runs even
// when the settlement pass aborted, matching the outer loop's contract.
func (c *Cycle) Run(ctx context.Context) error {
	start := time.Now()

	err := c.settlePass(ctx)
	c.PricePass(ctx)

	infra.CyclesTotal.Inc()
	infra.CycleDuration.Observe(time.Since(start).Seconds())
	return err
}

func (c *Cycle) settlePass(ctx context.Context) error {
	orders, err := c.store.PendingOrders(ctx)
	if err != nil {
		c.log.Error("could not read order queue, skipping cycle", slog.Any("error", err))
		return domain.NewLedgerError("load pending orders", err)
	}
	if len(orders) == 0 {
		c.log.Debug("no new orders marked for processing")
		return nil
	}
	c.log.Info("processing order batch", slog.Int("orders", len(orders)))

	ledgers := c.prefetchLedgers(ctx, orders)

	result := c.pipeline.Settle(orders, ledgers, c.market)

	for _, outcome := range result.Outcomes {
		if err := c.store.WriteOutcome(ctx, outcome); err != nil {
			c.log.Error("failed to write order outcome",
				slog.String("order_id", outcome.OrderID), slog.Any("error", err))
		}
		label := "rejected"
		if outcome.Accepted {
			label = "accepted"
		}
		infra.OrdersProcessed.WithLabelValues(label).Inc()
	}

	for name, p := range ledgers {
		if p == nil {
			continue
		}
		if err := c.store.SaveLedger(ctx, p); err != nil {
			c.log.Error("failed to persist ledger",
				slog.String("participant", name), slog.Any("error", err))
		}
		if records := result.Records[name]; len(records) > 0 {
			if err := c.store.AppendTransactions(ctx, records); err != nil {
				c.log.Error("failed to append transactions",
					slog.String("participant", name), slog.Any("error", err))
			}
		}
	}

	c.log.Info("settlement pass completed",
		slog.Int("accepted", result.Accepted), slog.Int("rejected", result.Rejected))
	return nil
}

// prefetchLedgers loads every participant named in the batch once. A failed
// load keeps a nil entry so the pipeline rejects that participant's orders
// with the access reason instead of aborting the cycle.
func (c *Cycle) prefetchLedgers(ctx context.Context, orders []domain.Order) map[string]*domain.Participant {
	ledgers := make(map[string]*domain.Participant)
	for _, o := range orders {
		for _, name := range []string{o.Buyer, o.Seller} {
			if _, seen := ledgers[name]; seen {
				continue
			}
			ledgers[name] = nil

			cash, err := c.store.CashBalance(ctx, name)
			if err != nil {
				c.log.Error("failed to load cash balance",
					slog.String("participant", name), slog.Any("error", err))
				continue
			}
			holdings, err := c.store.Holdings(ctx, name)
			if err != nil {
				c.log.Error("failed to load holdings",
					slog.String("participant", name), slog.Any("error", err))
				continue
			}
			ledgers[name] = &domain.Participant{Name: name, Cash: cash, Holdings: holdings}
		}
	}
	return ledgers
}

// PricePass runs one price-discovery pass over the persisted price chart,
// consuming and acknowledging any active overrides. Also called once at
// startup so the chart is live before the first settlement.
func (c *Cycle) PricePass(ctx context.Context) {
	overrides, err := c.store.ActiveOverrides(ctx)
	if err != nil {
		c.log.Error("failed to read manual overrides", slog.Any("error", err))
		overrides = nil
	}

	rows, err := c.store.PriceRows(ctx)
	if err != nil {
		c.log.Error("failed to read price chart", slog.Any("error", err))
		return
	}

	emitted := c.pricing.UpdatePrices(c.market, rows, overrides)

	if len(overrides) > 0 {
		symbols := make([]string, 0, len(overrides))
		for symbol := range overrides {
			symbols = append(symbols, symbol)
		}
		if err := c.store.AcknowledgeOverrides(ctx, symbols); err != nil {
			c.log.Error("failed to acknowledge overrides", slog.Any("error", err))
		}
	}

	if err := c.store.WritePriceRows(ctx, emitted); err != nil {
		c.log.Error("failed to write price chart", slog.Any("error", err))
	}

	for _, row := range emitted {
		price, _ := row.Price.Float64()
		infra.ReferencePrice.WithLabelValues(row.Symbol).Set(price)
		infra.TradeVolume.WithLabelValues(row.Symbol).Set(float64(row.Volume))
	}

	if c.feed != nil {
		c.feed.Broadcast(emitted)
	}
}
