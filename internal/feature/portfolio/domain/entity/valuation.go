package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is the latest market price of a symbol.
type Quote struct {
	Symbol        string
	Price         decimal.Decimal
	Change        decimal.Decimal // absolute change vs previous close
	PercentChange decimal.Decimal
	Time          time.Time
}

// HoldingValuation is one holding marked to market.
type HoldingValuation struct {
	Symbol       string
	Shares       decimal.Decimal
	AvgCost      decimal.Decimal
	CostBasis    decimal.Decimal
	CurrentPrice decimal.Decimal
	CurrentValue decimal.Decimal
	GainLoss     decimal.Decimal
	GainLossPct  decimal.Decimal
	DayChange    decimal.Decimal
	DayChangePct decimal.Decimal

	// PriceUnavailable is set when the lookup failed. The holding then
	// contributes zero value but its full cost to the totals.
	PriceUnavailable bool
	PriceError       string
}

// Valuation is a point-in-time snapshot of a portfolio.
type Valuation struct {
	TotalValue       decimal.Decimal
	TotalCost        decimal.Decimal
	TotalGainLoss    decimal.Decimal
	TotalGainLossPct decimal.Decimal
	Holdings         []HoldingValuation
	AsOf             time.Time
}

// PerformancePoint is the market value of the current holdings at one timestamp.
type PerformancePoint struct {
	Time     time.Time
	Total    decimal.Decimal
	BySymbol map[string]decimal.Decimal
}
