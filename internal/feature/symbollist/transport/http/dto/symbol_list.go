// Package dto defines data transfer objects for the symbollist HTTP API.
package dto

import "stock_insight/internal/feature/symbollist/domain/entity"

// SymbolItem represents a symbol in the API response.
// It contains only the public-facing fields needed by clients.
type SymbolItem struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Market string `json:"market,omitempty"`
}

// FromSymbols converts entities, keeping their order. nil becomes an empty slice.
func FromSymbols(symbols []entity.Symbol) []SymbolItem {
	out := make([]SymbolItem, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, SymbolItem{Code: s.Code, Name: s.Name, Market: s.Market})
	}
	return out
}
