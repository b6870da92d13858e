package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"stock_go/internal/domain"
	"stock_go/internal/infra"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Store is the ledger store: participant cash and holdings, the
// pending-order queue, manual overrides, the price chart and the
// transaction audit log, all on SQLite (pure Go driver).
type Store struct {
	db *gorm.DB
}

// participantRow is the persisted shape of a participant's cash balance.
type participantRow struct {
	Name      string          `gorm:"primaryKey"`
	Cash      decimal.Decimal `gorm:"type:numeric"`
	UpdatedAt time.Time
}

func (participantRow) TableName() string { return "participants" }

// holdingRow is one (participant, company) share quantity.
type holdingRow struct {
	Participant string `gorm:"primaryKey"`
	Company     string `gorm:"primaryKey"`
	Qty         int64
}

func (holdingRow) TableName() string { return "holdings" }

// Open connects to the database file and migrates the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create DB directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&participantRow{}, &holdingRow{},
		&domain.Order{}, &domain.Override{},
		&domain.PriceRow{}, &domain.TransactionRecord{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// Seed idempotently bootstraps participants, holdings and price rows from
// configuration. Existing rows are left untouched, so a restart never
// resets balances.
func (s *Store) Seed(ctx context.Context, cfg *infra.Config) error {
	one := decimal.NewFromInt(1)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, pc := range cfg.Participants {
			var count int64
			if err := tx.Model(&participantRow{}).Where("name = ?", pc.Name).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			if err := tx.Create(&participantRow{Name: pc.Name, Cash: pc.Cash}).Error; err != nil {
				return err
			}
			for company, qty := range pc.Holdings {
				if err := tx.Create(&holdingRow{Participant: pc.Name, Company: company, Qty: qty}).Error; err != nil {
					return err
				}
			}
		}

		for _, cc := range cfg.Companies {
			var count int64
			if err := tx.Model(&domain.PriceRow{}).Where("symbol = ?", cc.Symbol).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			// Circuits seeded around the initial price so the first
			// cycle's orders are already band-checked.
			row := domain.PriceRow{
				Symbol:       cc.Symbol,
				Price:        cc.InitialPrice,
				LastTraded:   cc.InitialPrice,
				CircuitUpper: cc.InitialPrice.Mul(one.Add(cfg.Market.CircuitPct)).Round(2),
				CircuitLower: cc.InitialPrice.Mul(one.Sub(cfg.Market.CircuitPct)).Round(2),
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ======================================================================================
// Order queue
// ======================================================================================

// PendingOrders returns eligible orders in submission order.
func (s *Store) PendingOrders(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	err := s.db.WithContext(ctx).
		Where("status = ? AND resubmit = ?", "", true).
		Order("created_at, id").
		Find(&orders).Error
	return orders, err
}

// CreateOrder inserts a new pending order row. Raw values are preserved;
// the settlement pipeline is the parser.
func (s *Store) CreateOrder(ctx context.Context, o *domain.Order) error {
	return s.db.WithContext(ctx).Create(o).Error
}

// Order retrieves one order by ID. Not found is not an error.
func (s *Store) Order(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	err := s.db.WithContext(ctx).First(&o, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &o, err
}

// WriteOutcome records an order's terminal state and clears the resubmit
// gate. The corrected total, when present, overwrites the declared total.
func (s *Store) WriteOutcome(ctx context.Context, outcome domain.Outcome) error {
	status := domain.OrderStatusRejected
	if outcome.Accepted {
		status = domain.OrderStatusAccepted
	}
	updates := map[string]any{
		"status":   status,
		"reason":   outcome.Reason,
		"resubmit": false,
	}
	if outcome.CorrectedTotal != nil {
		updates["declared_total"] = outcome.CorrectedTotal.StringFixed(2)
	}
	return s.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", outcome.OrderID).
		Updates(updates).Error
}

// ======================================================================================
// Participant ledgers
// ======================================================================================

// CashBalance loads a participant's cash balance.
func (s *Store) CashBalance(ctx context.Context, name string) (decimal.Decimal, error) {
	var row participantRow
	err := s.db.WithContext(ctx).First(&row, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, domain.ErrUnknownParticipant
	}
	return row.Cash, err
}

// Holdings loads a participant's company→quantity mapping.
func (s *Store) Holdings(ctx context.Context, name string) (map[string]int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&participantRow{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, domain.ErrUnknownParticipant
	}

	var rows []holdingRow
	if err := s.db.WithContext(ctx).Where("participant = ?", name).Find(&rows).Error; err != nil {
		return nil, err
	}
	holdings := make(map[string]int64, len(rows))
	for _, r := range rows {
		holdings[r.Company] = r.Qty
	}
	return holdings, nil
}

// SaveLedger writes a participant's cash and holdings back.
func (s *Store) SaveLedger(ctx context.Context, p *domain.Participant) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).
			Create(&participantRow{Name: p.Name, Cash: p.Cash}).Error; err != nil {
			return err
		}
		for company, qty := range p.Holdings {
			row := holdingRow{Participant: p.Name, Company: company, Qty: qty}
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// AppendTransactions appends audit records to the transaction log.
func (s *Store) AppendTransactions(ctx context.Context, records []domain.TransactionRecord) error {
	if len(records) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(&records).Error
}

// Transactions returns a participant's most recent audit records.
func (s *Store) Transactions(ctx context.Context, name string, limit int) ([]domain.TransactionRecord, error) {
	var records []domain.TransactionRecord
	err := s.db.WithContext(ctx).
		Where("participant = ?", name).
		Order("timestamp desc").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// ======================================================================================
// Manual overrides
// ======================================================================================

// SetOverride upserts an active manual price override for a company.
func (s *Store) SetOverride(ctx context.Context, company string, price decimal.Decimal) error {
	override := domain.Override{Company: company, Price: price, Active: true}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&override).Error
}

// ActiveOverrides returns the currently active manual overrides.
func (s *Store) ActiveOverrides(ctx context.Context) (map[string]decimal.Decimal, error) {
	var rows []domain.Override
	if err := s.db.WithContext(ctx).Where("active = ?", true).Find(&rows).Error; err != nil {
		return nil, err
	}
	overrides := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		overrides[r.Company] = r.Price
	}
	return overrides, nil
}

// AcknowledgeOverrides clears consumed override directives.
func (s *Store) AcknowledgeOverrides(ctx context.Context, symbols []string) error {
	if len(symbols) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&domain.Override{}).
		Where("company IN ?", symbols).
		Update("active", false).Error
}

// ======================================================================================
// Price chart
// ======================================================================================

// PriceRows returns the price chart sorted by symbol.
func (s *Store) PriceRows(ctx context.Context) ([]domain.PriceRow, error) {
	var rows []domain.PriceRow
	err := s.db.WithContext(ctx).Order("symbol").Find(&rows).Error
	return rows, err
}

// WritePriceRows persists the rows emitted by a price-discovery pass.
func (s *Store) WritePriceRows(ctx context.Context, rows []domain.PriceRow) error {
	if len(rows) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error
}
