// Package usecase implements the business logic for symbol-related operations.
package usecase

import (
	"context"
	"fmt"
	"strings"

	"stock_insight/internal/feature/symbollist/domain/entity"
)

// DefaultSearchLimit caps search results when the caller gives no limit.
const DefaultSearchLimit = 50

// SymbolRepository abstracts the persistence layer for symbol (stock ticker) data.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type SymbolRepository interface {
	ListActive(ctx context.Context) ([]entity.Symbol, error)
	ListActiveCodes(ctx context.Context) ([]string, error)
	SearchActive(ctx context.Context, q string) ([]entity.Symbol, error)
	Upsert(ctx context.Context, symbols []entity.Symbol) error
}

// SymbolUsecase provides business logic for symbol operations.
type SymbolUsecase struct {
	repo SymbolRepository
}

// NewSymbolUsecase creates a new SymbolUsecase with the given repository.
func NewSymbolUsecase(r SymbolRepository) *SymbolUsecase {
	return &SymbolUsecase{repo: r}
}

// ListActiveSymbols returns all active symbols from the repository.
func (u *SymbolUsecase) ListActiveSymbols(ctx context.Context) ([]entity.Symbol, error) {
	return u.repo.ListActive(ctx)
}

// ListActiveCodes returns the codes the ingest job should fetch.
func (u *SymbolUsecase) ListActiveCodes(ctx context.Context) ([]string, error) {
	return u.repo.ListActiveCodes(ctx)
}

// Search returns active symbols matching q, best matches first:
// exact code, code prefix, code substring, then name substring.
// An empty query returns no results.
func (u *SymbolUsecase) Search(ctx context.Context, q string, limit int) ([]entity.Symbol, error) {
	q = strings.ToUpper(strings.TrimSpace(q))
	if q == "" {
		return []entity.Symbol{}, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	candidates, err := u.repo.SearchActive(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search symbols: %w", err)
	}

	var tiers [4][]entity.Symbol
	for _, s := range candidates {
		code := strings.ToUpper(s.Code)
		switch {
		case code == q:
			tiers[0] = append(tiers[0], s)
		case strings.HasPrefix(code, q):
			tiers[1] = append(tiers[1], s)
		case strings.Contains(code, q):
			tiers[2] = append(tiers[2], s)
		case strings.Contains(strings.ToUpper(s.Name), q):
			tiers[3] = append(tiers[3], s)
		}
	}

	out := make([]entity.Symbol, 0, len(candidates))
	for _, tier := range tiers {
		out = append(out, tier...)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Register validates and stores symbols. Codes are upper-cased; new symbols are active.
func (u *SymbolUsecase) Register(ctx context.Context, symbols []entity.Symbol) error {
	for i := range symbols {
		symbols[i].Code = strings.ToUpper(strings.TrimSpace(symbols[i].Code))
		if symbols[i].Code == "" {
			return fmt.Errorf("symbol %d: empty code", i)
		}
		if symbols[i].Name == "" {
			symbols[i].Name = symbols[i].Code
		}
		symbols[i].IsActive = true
	}
	return u.repo.Upsert(ctx, symbols)
}
