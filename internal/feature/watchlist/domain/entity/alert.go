package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stock_insight/internal/feature/watchlist/domain"
)

// Condition is the side of the target price an alert waits for.
type Condition string

const (
	ConditionAbove Condition = "above"
	ConditionBelow Condition = "below"
)

// ParseCondition accepts "above" or "below" in any case.
func ParseCondition(s string) (Condition, error) {
	switch c := Condition(strings.ToLower(strings.TrimSpace(s))); c {
	case ConditionAbove, ConditionBelow:
		return c, nil
	default:
		return "", fmt.Errorf("condition %q: %w", s, domain.ErrInvalidInput)
	}
}

// Alert fires when the price reaches TargetPrice from the Condition side.
// TriggeredAt records the first check that saw it fire; the alert stays
// active afterwards until removed.
type Alert struct {
	ID          uint
	Symbol      string
	Condition   Condition
	TargetPrice decimal.Decimal
	CreatedAt   time.Time
	TriggeredAt *time.Time
}

// Triggered reports whether price satisfies the alert. Both bounds are
// inclusive: "above" fires at price >= target, "below" at price <= target.
func (a Alert) Triggered(price decimal.Decimal) bool {
	switch a.Condition {
	case ConditionAbove:
		return price.GreaterThanOrEqual(a.TargetPrice)
	case ConditionBelow:
		return price.LessThanOrEqual(a.TargetPrice)
	default:
		return false
	}
}

// Status is one watched symbol evaluated against the latest quote.
type Status struct {
	Symbol        string
	Price         decimal.Decimal
	Change        decimal.Decimal
	PercentChange decimal.Decimal

	// PriceUnavailable is set when the quote lookup failed. Alerts for the
	// symbol are then not evaluated.
	PriceUnavailable bool
	PriceError       string

	Alerts    []Alert
	Triggered []Alert
}
