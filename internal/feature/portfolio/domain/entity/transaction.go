package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one immutable entry of the append-only log.
// Holdings are a projection of the log, never the other way round.
type Transaction struct {
	ID         string
	Symbol     string
	Action     Action
	Shares     decimal.Decimal
	Price      decimal.Decimal
	Total      decimal.Decimal // Shares * Price
	ExecutedAt time.Time
}
