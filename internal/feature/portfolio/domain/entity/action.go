// Package entity defines the domain models for the portfolio feature.
package entity

import (
	"fmt"
	"strings"

	"stock_insight/internal/feature/portfolio/domain"
)

// Action is the direction of a transaction.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// ParseAction accepts "buy" or "sell" in any case.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionBuy, ActionSell:
		return a, nil
	default:
		return "", fmt.Errorf("%q: %w", s, domain.ErrUnknownAction)
	}
}
