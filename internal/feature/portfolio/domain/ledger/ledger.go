// Package ledger folds buy/sell transactions into weighted-average-cost
// holdings and values them against current prices.
//
// A Ledger is a single-writer accumulator. It holds no lock; callers
// serialize Apply per user.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stock_insight/internal/feature/portfolio/domain"
	"stock_insight/internal/feature/portfolio/domain/entity"
)

var hundred = decimal.NewFromInt(100)

// Ledger holds one user's holdings and the log they were derived from.
type Ledger struct {
	holdings map[string]entity.Holding
	log      []entity.Transaction
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{holdings: map[string]entity.Holding{}}
}

// Replay folds txs in order into a fresh ledger. It stops at the first
// transaction that cannot be applied and reports its position.
func Replay(txs []entity.Transaction) (*Ledger, error) {
	l := New()
	for i, tx := range txs {
		if _, err := l.Apply(tx); err != nil {
			return nil, fmt.Errorf("replay transaction %d (%s): %w", i, tx.ID, err)
		}
	}
	return l, nil
}

// Normalize validates tx and returns it with an upper-cased symbol and
// Total recomputed as Shares*Price.
func Normalize(tx entity.Transaction) (entity.Transaction, error) {
	tx.Symbol = strings.ToUpper(strings.TrimSpace(tx.Symbol))
	if tx.Symbol == "" {
		return tx, fmt.Errorf("empty symbol: %w", domain.ErrInvalidInput)
	}
	if !tx.Shares.IsPositive() {
		return tx, fmt.Errorf("shares %s must be positive: %w", tx.Shares, domain.ErrInvalidInput)
	}
	if !tx.Price.IsPositive() {
		return tx, fmt.Errorf("price %s must be positive: %w", tx.Price, domain.ErrInvalidInput)
	}
	if _, err := entity.ParseAction(string(tx.Action)); err != nil {
		return tx, err
	}
	tx.Action = entity.Action(strings.ToLower(string(tx.Action)))
	tx.Total = tx.Shares.Mul(tx.Price)
	return tx, nil
}

// Apply validates tx, updates the affected holding and appends tx to the
// log. On error neither the holdings nor the log change.
//
// A buy blends into the average cost. A sell removes cost at the current
// average cost, so the sale price never moves the remaining basis. A
// holding that reaches zero shares is removed.
func (l *Ledger) Apply(tx entity.Transaction) (entity.Transaction, error) {
	tx, err := Normalize(tx)
	if err != nil {
		return entity.Transaction{}, err
	}

	h, held := l.holdings[tx.Symbol]
	switch tx.Action {
	case entity.ActionBuy:
		if !held {
			h = entity.Holding{Symbol: tx.Symbol, Shares: decimal.Zero, AvgCost: decimal.Zero, TotalCost: decimal.Zero}
		}
		h.TotalCost = h.TotalCost.Add(tx.Total)
		h.Shares = h.Shares.Add(tx.Shares)
		h.AvgCost = h.TotalCost.Div(h.Shares)
	case entity.ActionSell:
		if !held || tx.Shares.GreaterThan(h.Shares) {
			have := decimal.Zero
			if held {
				have = h.Shares
			}
			return entity.Transaction{}, fmt.Errorf("sell %s %s, holding %s: %w", tx.Shares, tx.Symbol, have, domain.ErrInsufficientShares)
		}
		h.TotalCost = h.TotalCost.Sub(tx.Shares.Mul(h.AvgCost))
		h.Shares = h.Shares.Sub(tx.Shares)
	default:
		return entity.Transaction{}, fmt.Errorf("%q: %w", tx.Action, domain.ErrUnknownAction)
	}

	if h.Shares.IsZero() {
		delete(l.holdings, tx.Symbol)
	} else {
		l.holdings[tx.Symbol] = h
	}
	l.log = append(l.log, tx)
	return tx, nil
}

// Holdings returns the current holdings ordered by symbol.
func (l *Ledger) Holdings() []entity.Holding {
	out := make([]entity.Holding, 0, len(l.holdings))
	for _, h := range l.holdings {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Holding returns the holding for symbol, if any.
func (l *Ledger) Holding(symbol string) (entity.Holding, bool) {
	h, ok := l.holdings[strings.ToUpper(strings.TrimSpace(symbol))]
	return h, ok
}

// Transactions returns a copy of the log in application order.
func (l *Ledger) Transactions() []entity.Transaction {
	out := make([]entity.Transaction, len(l.log))
	copy(out, l.log)
	return out
}

// PriceLookup returns the current quote for a symbol. It may fail per
// symbol independently.
type PriceLookup func(ctx context.Context, symbol string) (entity.Quote, error)

// Value marks every holding to market.
//
// A failed lookup does not abort the valuation: that holding is flagged,
// contributes zero to TotalValue and still contributes its cost to
// TotalCost, which makes the aggregate gain look worse than it is.
func (l *Ledger) Value(ctx context.Context, lookup PriceLookup) entity.Valuation {
	return Value(ctx, l.Holdings(), lookup)
}

// Value marks the given holdings to market. See Ledger.Value.
func Value(ctx context.Context, holdings []entity.Holding, lookup PriceLookup) entity.Valuation {
	v := entity.Valuation{
		TotalValue:       decimal.Zero,
		TotalCost:        decimal.Zero,
		TotalGainLoss:    decimal.Zero,
		TotalGainLossPct: decimal.Zero,
		Holdings:         make([]entity.HoldingValuation, 0, len(holdings)),
		AsOf:             time.Now().UTC(),
	}
	for _, h := range holdings {
		hv := entity.HoldingValuation{
			Symbol:       h.Symbol,
			Shares:       h.Shares,
			AvgCost:      h.AvgCost,
			CostBasis:    h.TotalCost,
			CurrentPrice: decimal.Zero,
			CurrentValue: decimal.Zero,
			GainLoss:     decimal.Zero,
			GainLossPct:  decimal.Zero,
			DayChange:    decimal.Zero,
			DayChangePct: decimal.Zero,
		}
		q, err := lookup(ctx, h.Symbol)
		if err != nil {
			hv.PriceUnavailable = true
			hv.PriceError = fmt.Errorf("%s: %w: %v", h.Symbol, domain.ErrPriceUnavailable, err).Error()
		} else {
			hv.CurrentPrice = q.Price
			hv.CurrentValue = h.Shares.Mul(q.Price)
			hv.GainLoss = hv.CurrentValue.Sub(h.TotalCost)
			hv.GainLossPct = pct(hv.GainLoss, h.TotalCost)
			hv.DayChange = q.Change.Mul(h.Shares)
			hv.DayChangePct = q.PercentChange
			v.TotalValue = v.TotalValue.Add(hv.CurrentValue)
		}
		v.TotalCost = v.TotalCost.Add(h.TotalCost)
		v.Holdings = append(v.Holdings, hv)
	}
	v.TotalGainLoss = v.TotalValue.Sub(v.TotalCost)
	v.TotalGainLossPct = pct(v.TotalGainLoss, v.TotalCost)
	return v
}

// pct returns part/whole*100, or 0 when whole is not positive.
func pct(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}
