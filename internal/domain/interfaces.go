package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// LedgerStore is the persistence collaborator: per-participant cash and
// holdings, the pending-order queue, admin overrides and the price chart.
// The core reads a snapshot at cycle start and writes results at cycle end.
type LedgerStore interface {
	// PendingOrders returns eligible orders (no outcome, resubmit gate set)
	// in submission order. A failure here aborts the whole cycle.
	PendingOrders(ctx context.Context) ([]Order, error)

	// CashBalance and Holdings load one participant's ledger.
	CashBalance(ctx context.Context, name string) (decimal.Decimal, error)
	Holdings(ctx context.Context, name string) (map[string]int64, error)

	// SaveLedger writes a participant's cash and holdings back.
	SaveLedger(ctx context.Context, p *Participant) error

	// AppendTransactions appends audit records to a participant's history.
	AppendTransactions(ctx context.Context, records []TransactionRecord) error

	// ActiveOverrides returns the manual price overrides currently set.
	// AcknowledgeOverrides clears the consumed directives.
	ActiveOverrides(ctx context.Context) (map[string]decimal.Decimal, error)
	AcknowledgeOverrides(ctx context.Context, symbols []string) error

	// PriceRows returns the price chart as last persisted; WritePriceRows
	// replaces the rows emitted by a price-discovery pass.
	PriceRows(ctx context.Context) ([]PriceRow, error)
	WritePriceRows(ctx context.Context, rows []PriceRow) error

	// WriteOutcome records an order's terminal state: status, reason,
	// cleared resubmit gate and the corrected total when present.
	WriteOutcome(ctx context.Context, outcome Outcome) error
}
