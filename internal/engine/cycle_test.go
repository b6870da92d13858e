package engine

import (
	"context"
	"errors"
	"testing"

	"stock_go/internal/domain"

	"github.com/shopspring/decimal"
)

// fakeStore is an in-memory LedgerStore for cycle tests.
type fakeStore struct {
	orders   []domain.Order
	cash     map[string]decimal.Decimal
	holdings map[string]map[string]int64
	rows     []domain.PriceRow

	outcomes     map[string]domain.Outcome
	saved        map[string]*domain.Participant
	transactions []domain.TransactionRecord
	written      []domain.PriceRow
	overrides    map[string]decimal.Decimal
	acked        []string

	failPending      bool
	failParticipants map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cash:             make(map[string]decimal.Decimal),
		holdings:         make(map[string]map[string]int64),
		outcomes:         make(map[string]domain.Outcome),
		saved:            make(map[string]*domain.Participant),
		overrides:        make(map[string]decimal.Decimal),
		failParticipants: make(map[string]bool),
	}
}

func (f *fakeStore) PendingOrders(ctx context.Context) ([]domain.Order, error) {
	if f.failPending {
		return nil, errors.New("queue unreachable")
	}
	return f.orders, nil
}

func (f *fakeStore) CashBalance(ctx context.Context, name string) (decimal.Decimal, error) {
	if f.failParticipants[name] {
		return decimal.Zero, errors.New("ledger unreachable")
	}
	cash, ok := f.cash[name]
	if !ok {
		return decimal.Zero, domain.ErrUnknownParticipant
	}
	return cash, nil
}

func (f *fakeStore) Holdings(ctx context.Context, name string) (map[string]int64, error) {
	if f.failParticipants[name] {
		return nil, errors.New("ledger unreachable")
	}
	holdings := make(map[string]int64)
	for company, qty := range f.holdings[name] {
		holdings[company] = qty
	}
	return holdings, nil
}

func (f *fakeStore) SaveLedger(ctx context.Context, p *domain.Participant) error {
	f.saved[p.Name] = p
	return nil
}

func (f *fakeStore) AppendTransactions(ctx context.Context, records []domain.TransactionRecord) error {
	f.transactions = append(f.transactions, records...)
	return nil
}

func (f *fakeStore) ActiveOverrides(ctx context.Context) (map[string]decimal.Decimal, error) {
	return f.overrides, nil
}

func (f *fakeStore) AcknowledgeOverrides(ctx context.Context, symbols []string) error {
	f.acked = append(f.acked, symbols...)
	return nil
}

func (f *fakeStore) PriceRows(ctx context.Context) ([]domain.PriceRow, error) {
	return f.rows, nil
}

func (f *fakeStore) WritePriceRows(ctx context.Context, rows []domain.PriceRow) error {
	f.written = rows
	return nil
}

func (f *fakeStore) WriteOutcome(ctx context.Context, outcome domain.Outcome) error {
	f.outcomes[outcome.OrderID] = outcome
	return nil
}

type recordingFeed struct {
	payloads []any
}

func (r *recordingFeed) Broadcast(v any) { r.payloads = append(r.payloads, v) }

func newTestCycle(store domain.LedgerStore, market *domain.Market, feed Broadcaster) *Cycle {
	pricing := NewPriceEngine(quietConfig(), nil, discardLogger())
	pipeline := NewPipeline(decimal.NewFromInt(7500), discardLogger())
	return NewCycle(store, market, pricing, pipeline, feed, discardLogger())
}

func TestCycle_SettlesAndPersists(t *testing.T) {
	store := newFakeStore()
	store.cash["MasterAccount"] = decimal.NewFromInt(10000)
	store.cash["Silhouette"] = decimal.Zero
	store.holdings["Silhouette"] = map[string]int64{"RELIANCE": 20}
	store.orders = []domain.Order{{
		ID: "o1", Buyer: "MasterAccount", Seller: "Silhouette",
		Company: "RELIANCE", Quantity: "10", Price: "800", Resubmit: true,
	}}
	store.rows = []domain.PriceRow{{Symbol: "RELIANCE", Price: decimal.NewFromInt(900)}}

	market := singleCompanyMarket("RELIANCE", decimal.NewFromInt(900))
	feed := &recordingFeed{}
	cycle := newTestCycle(store, market, feed)

	if err := cycle.Run(context.Background()); err != nil {
		t.Fatalf("cycle failed: %v", err)
	}

	outcome, ok := store.outcomes["o1"]
	if !ok || !outcome.Accepted {
		t.Fatalf("outcome not persisted or not accepted: %+v", outcome)
	}
	if !store.saved["MasterAccount"].Cash.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("buyer ledger not persisted: %v", store.saved["MasterAccount"])
	}
	if !store.saved["Silhouette"].Cash.Equal(decimal.NewFromInt(8000)) {
		t.Errorf("seller ledger not persisted: %v", store.saved["Silhouette"])
	}
	if len(store.transactions) != 2 {
		t.Errorf("expected BUY and SELL records, got %d", len(store.transactions))
	}

	// Price discovery ran after settlement and consumed its trade flow.
	if len(store.written) != 1 {
		t.Fatalf("price rows not written: %v", store.written)
	}
	if store.written[0].Volume != 10 {
		t.Errorf("price pass should see the cycle's trade flow, volume=%d", store.written[0].Volume)
	}
	if len(feed.payloads) != 1 {
		t.Errorf("snapshot should be broadcast once, got %d", len(feed.payloads))
	}
}

func TestCycle_OrderQueueFailureAbortsSettlementOnly(t *testing.T) {
	store := newFakeStore()
	store.failPending = true
	store.rows = []domain.PriceRow{{Symbol: "RELIANCE", Price: decimal.NewFromInt(900)}}

	cycle := newTestCycle(store, singleCompanyMarket("RELIANCE", decimal.NewFromInt(900)), nil)

	err := cycle.Run(context.Background())
	if err == nil {
		t.Fatal("queue failure should abort the cycle")
	}
	if !domain.IsRetriable(err) {
		t.Error("queue failure should be retriable on the next interval")
	}
	// The price pass still runs.
	if len(store.written) != 1 {
		t.Error("price pass should run even when settlement aborted")
	}
}

func TestCycle_ParticipantLoadFailureRejectsOrders(t *testing.T) {
	store := newFakeStore()
	store.cash["Silhouette"] = decimal.Zero
	store.holdings["Silhouette"] = map[string]int64{"RELIANCE": 20}
	store.failParticipants["MasterAccount"] = true
	store.orders = []domain.Order{{
		ID: "o1", Buyer: "MasterAccount", Seller: "Silhouette",
		Company: "RELIANCE", Quantity: "10", Price: "800", Resubmit: true,
	}}

	cycle := newTestCycle(store, singleCompanyMarket("RELIANCE", decimal.NewFromInt(900)), nil)

	if err := cycle.Run(context.Background()); err != nil {
		t.Fatalf("a single participant failure must not abort the cycle: %v", err)
	}
	outcome := store.outcomes["o1"]
	if outcome.Accepted || outcome.Reason != "participant ledger access error" {
		t.Errorf("unexpected outcome: %+v", outcome)
	}
}

func TestCycle_OverridesConsumedAndAcknowledged(t *testing.T) {
	store := newFakeStore()
	store.overrides["RELIANCE"] = decimal.NewFromInt(500)
	store.rows = []domain.PriceRow{{Symbol: "RELIANCE", Price: decimal.NewFromInt(900)}}

	market := singleCompanyMarket("RELIANCE", decimal.NewFromInt(900))
	c, _ := market.Lookup("RELIANCE")
	c.RecordTrade(decimal.NewFromInt(880), 10)

	cycle := newTestCycle(store, market, nil)
	cycle.PricePass(context.Background())

	if !c.ReferencePrice.Equal(decimal.NewFromInt(500)) {
		t.Errorf("override not applied: %v", c.ReferencePrice)
	}
	if _, ok := c.VWAP(); ok {
		t.Error("override should clear the trade window")
	}
	if len(store.acked) != 1 || store.acked[0] != "RELIANCE" {
		t.Errorf("override should be acknowledged exactly once: %v", store.acked)
	}
}
