package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRecord is an immutable audit entry appended to a participant's
// history when an order settles. Never mutated after creation.
type TransactionRecord struct {
	ID          string          `gorm:"primaryKey" json:"id"`
	Participant string          `gorm:"index" json:"participant"`
	Timestamp   time.Time       `json:"timestamp"`
	Side        string          `json:"side"` // BUY or SELL
	Company     string          `json:"company"`
	Quantity    int64           `json:"quantity"`
	Price       decimal.Decimal `gorm:"type:numeric" json:"price"`
	Total       decimal.Decimal `gorm:"type:numeric" json:"total"`
}

// PriceRow is one company's row in the price chart: the snapshot the price
// discovery engine emits each cycle and the store persists. Price, LastTraded
// and the bounds are rounded to 2 places on emission.
type PriceRow struct {
	Symbol       string          `gorm:"primaryKey" json:"symbol"`
	Price        decimal.Decimal `gorm:"type:numeric" json:"price"`
	LastTraded   decimal.Decimal `gorm:"type:numeric" json:"last_traded"`
	Volume       int64           `json:"volume"`
	ChangePct    decimal.Decimal `gorm:"type:numeric" json:"change_pct"` // fraction vs previous close, not percent
	CircuitUpper decimal.Decimal `gorm:"type:numeric" json:"circuit_upper"`
	CircuitLower decimal.Decimal `gorm:"type:numeric" json:"circuit_lower"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
