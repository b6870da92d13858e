package engine

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"stock_go/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// totalTolerance is the maximum drift allowed between a declared total and
// the recomputed quantity × price before the source record is corrected.
var totalTolerance = decimal.NewFromFloat(0.01)

// Pipeline validates pending orders against business rules and applies
// accepted ones to the in-memory ledger snapshot. Settlement is atomic per
// order, not across the batch: validation is exhaustive before mutation,
// there is no rollback.
type Pipeline struct {
	minOrderValue decimal.Decimal
	log           *slog.Logger
	now           func() time.Time
}

// NewPipeline creates a settlement pipeline with the given order value floor.
func NewPipeline(minOrderValue decimal.Decimal, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{minOrderValue: minOrderValue, log: log, now: time.Now}
}

// SettleResult is the outcome of one settlement pass.
type SettleResult struct {
	Outcomes []domain.Outcome
	Records  map[string][]domain.TransactionRecord
	Accepted int
	Rejected int
}

// Settle processes orders strictly in submission order against the ledger
// snapshot. Later orders see the effects of earlier ones in the same batch.
// A nil entry in ledgers marks a participant whose ledger could not be
// loaded; its orders are rejected with the access reason.
//
// Every order yields a terminal outcome: rejections are values with a
// human-readable reason, never errors.
func (p *Pipeline) Settle(orders []domain.Order, ledgers map[string]*domain.Participant, market *domain.Market) SettleResult {
	result := SettleResult{
		Outcomes: make([]domain.Outcome, 0, len(orders)),
		Records:  make(map[string][]domain.TransactionRecord),
	}

	for i := range orders {
		outcome := p.processOrder(&orders[i], ledgers, market, &result)
		result.Outcomes = append(result.Outcomes, outcome)
		if outcome.Accepted {
			result.Accepted++
			p.log.Info("trade completed", slog.String("order_id", orders[i].ID))
		} else {
			result.Rejected++
			p.log.Warn("order rejected",
				slog.String("order_id", orders[i].ID),
				slog.String("reason", outcome.Reason))
		}
	}
	return result
}

// processOrder runs the fixed validation sequence and, on success, the
// atomic ledger mutation. The first failing check rejects immediately.
func (p *Pipeline) processOrder(o *domain.Order, ledgers map[string]*domain.Participant, market *domain.Market, result *SettleResult) domain.Outcome {
	// The correction side effect applies even when the order is later
	// rejected, so the outcome carries it either way.
	var corrected *decimal.Decimal
	reject := func(reason string) domain.Outcome {
		return domain.Outcome{OrderID: o.ID, Accepted: false, Reason: reason, CorrectedTotal: corrected}
	}

	// 1. Parse quantity and price from the raw row values.
	qty, err := strconv.ParseInt(strings.TrimSpace(o.Quantity), 10, 64)
	price, perr := decimal.NewFromString(strings.TrimSpace(o.Price))
	if err != nil || perr != nil || qty <= 0 || !price.IsPositive() {
		return reject("invalid quantity or price")
	}

	// 2. Recompute the total; the declared value is advisory. A missing or
	// stale declared total is corrected in the source record, not rejected.
	total := price.Mul(decimal.NewFromInt(qty)).Round(2)
	declared, derr := decimal.NewFromString(strings.TrimSpace(o.DeclaredTotal))
	if o.DeclaredTotal == "" || derr != nil || declared.Sub(total).Abs().GreaterThan(totalTolerance) {
		corrected = &total
	}

	// Membership is validated at ingress rather than surfacing later as a
	// settlement failure.
	symbol := strings.ToUpper(strings.TrimSpace(o.Company))
	company, ok := market.Lookup(symbol)
	if !ok {
		return reject(fmt.Sprintf("unknown company %q", symbol))
	}

	// 3. Order value floor.
	if total.LessThan(p.minOrderValue) {
		return reject(fmt.Sprintf("order value %s below minimum %s",
			total.StringFixed(2), p.minOrderValue.StringFixed(2)))
	}

	// 4. Both sides must resolve to a loaded ledger.
	buyer, bok := ledgers[o.Buyer]
	seller, sok := ledgers[o.Seller]
	if !bok || !sok || buyer == nil || seller == nil {
		return reject("participant ledger access error")
	}

	// 5. Circuit band, when established for the company.
	if company.Circuit.Established() && !company.Circuit.Contains(price) {
		return reject(fmt.Sprintf("price %s outside circuit %s-%s",
			price.StringFixed(2),
			company.Circuit.Lower.StringFixed(2),
			company.Circuit.Upper.StringFixed(2)))
	}

	// 6. Buyer funds.
	if buyer.Cash.LessThan(total) {
		return reject(fmt.Sprintf("insufficient cash (has %s, needs %s)",
			buyer.Cash.StringFixed(2), total.StringFixed(2)))
	}

	// 7. Seller stock.
	if held := seller.Holding(symbol); held < qty {
		return reject(fmt.Sprintf("insufficient stock (has %d, needs %d)", held, qty))
	}

	if err := p.apply(buyer, seller, company, symbol, qty, price, total); err != nil {
		// Validation should make this unreachable; if it happens anyway the
		// order is rejected with the raw error and the batch continues.
		return reject("trade execution failed: " + err.Error())
	}

	ts := p.now()
	result.Records[buyer.Name] = append(result.Records[buyer.Name], domain.TransactionRecord{
		ID: uuid.NewString(), Participant: buyer.Name, Timestamp: ts,
		Side: domain.SideBuy, Company: symbol, Quantity: qty, Price: price, Total: total,
	})
	result.Records[seller.Name] = append(result.Records[seller.Name], domain.TransactionRecord{
		ID: uuid.NewString(), Participant: seller.Name, Timestamp: ts,
		Side: domain.SideSell, Company: symbol, Quantity: qty, Price: price, Total: total,
	})

	return domain.Outcome{OrderID: o.ID, Accepted: true, Reason: "trade completed", CorrectedTotal: corrected}
}

// apply moves cash and shares between the two ledgers and records the trade
// on the company. Debit and RemoveShares were both validated, so neither can
// fail here under normal operation.
func (p *Pipeline) apply(buyer, seller *domain.Participant, company *domain.Company, symbol string, qty int64, price, total decimal.Decimal) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	if err := buyer.Debit(total); err != nil {
		return err
	}
	if err := seller.RemoveShares(symbol, qty); err != nil {
		buyer.Credit(total) // undo the debit, nothing else has moved yet
		return err
	}
	seller.Credit(total)
	buyer.AddShares(symbol, qty)
	company.RecordTrade(price, qty)
	return nil
}
