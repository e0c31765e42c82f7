package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"stock_insight/internal/feature/portfolio/domain/entity"
	"stock_insight/internal/feature/portfolio/usecase"
	watchlistusecase "stock_insight/internal/feature/watchlist/usecase"
)

// QuoteCache decorates a QuoteProvider with a short-lived Redis cache so
// repeated valuations within the TTL don't spend API quota. Failed lookups
// are never cached.
type QuoteCache struct {
	inner     usecase.QuoteProvider
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var (
	_ usecase.QuoteProvider          = (*QuoteCache)(nil)
	_ watchlistusecase.QuoteProvider = (*QuoteCache)(nil)
)

// NewQuoteCache wraps inner. ttl <= 0 defaults to one minute; an empty namespace to "quotes".
func NewQuoteCache(rdb *redis.Client, ttl time.Duration, inner usecase.QuoteProvider, namespace string) *QuoteCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if namespace == "" {
		namespace = "quotes"
	}
	return &QuoteCache{inner: inner, rdb: rdb, ttl: ttl, namespace: namespace}
}

// GetQuote returns a cached quote when present, otherwise asks the inner provider.
func (q *QuoteCache) GetQuote(ctx context.Context, symbol string) (entity.Quote, error) {
	if q.rdb == nil {
		return q.inner.GetQuote(ctx, symbol)
	}

	key := fmt.Sprintf("%s:%s", q.namespace, safe(strings.ToUpper(symbol)))
	var cached entity.Quote
	if getJSON(ctx, q.rdb, key, &cached) {
		return cached, nil
	}

	quote, err := q.inner.GetQuote(ctx, symbol)
	if err != nil {
		return entity.Quote{}, err
	}
	setJSON(ctx, q.rdb, key, quote, q.ttl)
	return quote, nil
}
