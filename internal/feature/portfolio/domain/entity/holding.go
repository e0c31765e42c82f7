package entity

import "github.com/shopspring/decimal"

// Holding is a weighted-average-cost position in one symbol.
// A holding with zero shares does not exist.
type Holding struct {
	Symbol    string
	Shares    decimal.Decimal
	AvgCost   decimal.Decimal
	TotalCost decimal.Decimal
}

// Equal compares two holdings numerically.
func (h Holding) Equal(o Holding) bool {
	return h.Symbol == o.Symbol &&
		h.Shares.Equal(o.Shares) &&
		h.AvgCost.Equal(o.AvgCost) &&
		h.TotalCost.Equal(o.TotalCost)
}
