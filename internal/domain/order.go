package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a pre-paired bilateral trade row submitted externally.
// Quantity, Price and DeclaredTotal are kept as raw strings: orders are
// textual rows and the settlement pipeline is their parser.
type Order struct {
	ID            string    `gorm:"primaryKey" json:"id"`
	Buyer         string    `json:"buyer"`
	Seller        string    `json:"seller"`
	Company       string    `json:"company"`
	Quantity      string    `json:"quantity"`
	Price         string    `json:"price"`
	DeclaredTotal string    `json:"declared_total"`
	Status        string    `gorm:"index" json:"status"` // empty = pending
	Reason        string    `json:"reason"`
	Resubmit      bool      `gorm:"index" json:"resubmit"` // process gate, cleared after processing
	CreatedAt     time.Time `json:"created_at"`
}

const (
	OrderStatusAccepted = "ACCEPTED"
	OrderStatusRejected = "REJECTED"

	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Eligible reports whether the order should be picked up this cycle:
// no prior outcome and the resubmit gate set. The gate is cleared after
// processing regardless of outcome, so an order is processed at most once
// per submission.
func (o *Order) Eligible() bool {
	return o.Status == "" && o.Resubmit
}

// Outcome is the terminal result of processing one order.
// Business rejections are values, not errors: only collaborator failures
// travel the error channel.
type Outcome struct {
	OrderID  string `json:"order_id"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason"`

	// CorrectedTotal is set when the declared total was missing or stale
	// by more than 0.01 and the recomputed value is authoritative.
	CorrectedTotal *decimal.Decimal `json:"corrected_total,omitempty"`
}

// Override is an administrative directive forcing a company's reference
// price, bypassing simulated perturbation. Consumed and acknowledged
// (deactivated) within the cycle that reads it.
type Override struct {
	Company   string          `gorm:"primaryKey" json:"company"`
	Price     decimal.Decimal `gorm:"type:numeric" json:"price"`
	Active    bool            `gorm:"index" json:"active"`
	UpdatedAt time.Time       `json:"updated_at"`
}
