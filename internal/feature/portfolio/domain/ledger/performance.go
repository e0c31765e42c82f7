package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"stock_insight/internal/feature/portfolio/domain/entity"
)

// ClosePoint is one historical close of a symbol.
type ClosePoint struct {
	Time  time.Time
	Close decimal.Decimal
}

// PerformanceSeries values the current share counts at every historical
// close. Timestamps are the union across symbols in ascending order; a
// symbol without a close at a timestamp contributes nothing there.
func PerformanceSeries(holdings []entity.Holding, closes map[string][]ClosePoint) []entity.PerformancePoint {
	byTime := map[int64]*entity.PerformancePoint{}
	for _, h := range holdings {
		for _, c := range closes[h.Symbol] {
			key := c.Time.UnixNano()
			p, ok := byTime[key]
			if !ok {
				p = &entity.PerformancePoint{Time: c.Time, Total: decimal.Zero, BySymbol: map[string]decimal.Decimal{}}
				byTime[key] = p
			}
			value := h.Shares.Mul(c.Close)
			p.BySymbol[h.Symbol] = value
			p.Total = p.Total.Add(value)
		}
	}

	out := make([]entity.PerformancePoint, 0, len(byTime))
	for _, p := range byTime {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}
