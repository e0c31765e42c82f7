package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"stock_insight/internal/feature/candles/domain/entity"
	"stock_insight/internal/feature/candles/usecase"
)

// CandleStore is the repository the cache wraps: reads and ingest writes.
type CandleStore interface {
	usecase.CandleRepository
	usecase.CandleWriter
}

// CachingCandleRepository decorates a CandleStore with Redis caching.
// Writes invalidate every cached window of the affected symbol+interval.
type CachingCandleRepository struct {
	inner     CandleStore
	rdb       *redis.Client
	ttl       time.Duration
	expiry    func() time.Duration
	namespace string
}

var _ CandleStore = (*CachingCandleRepository)(nil)

// NewCachingCandleRepository decorates a CandleStore with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "candles".
func NewCachingCandleRepository(rdb *redis.Client, ttl time.Duration, inner CandleStore, namespace string) *CachingCandleRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "candles"
	}
	return &CachingCandleRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// WithExpiry replaces the fixed TTL with one computed per write, e.g. "until the next ingest run".
func (c *CachingCandleRepository) WithExpiry(f func() time.Duration) *CachingCandleRepository {
	c.expiry = f
	return c
}

func (c *CachingCandleRepository) currentTTL() time.Duration {
	if c.expiry != nil {
		if d := c.expiry(); d > 0 {
			return d
		}
	}
	return c.ttl
}

// UpsertBatch writes through to the inner store and invalidates related cache entries.
func (c *CachingCandleRepository) UpsertBatch(ctx context.Context, candles []entity.Candle) error {
	if err := c.inner.UpsertBatch(ctx, candles); err != nil {
		return err
	}
	if c.rdb == nil || len(candles) == 0 {
		return nil
	}

	seen := map[string]struct{}{}
	for _, cd := range candles {
		prefix := c.cacheKeyPrefix(cd.Symbol, cd.Interval)
		if _, ok := seen[prefix]; ok {
			continue
		}
		seen[prefix] = struct{}{}
		// best effort
		_ = deleteByPattern(ctx, c.rdb, prefix+"*")
	}
	return nil
}

// Find checks the cache first and falls back to the inner store.
func (c *CachingCandleRepository) Find(ctx context.Context, symbol, interval string, outputsize int) ([]entity.Candle, error) {
	if c.rdb == nil {
		return c.inner.Find(ctx, symbol, interval, outputsize)
	}

	key := c.cacheKey(symbol, interval, outputsize)
	var out []entity.Candle
	if getJSON(ctx, c.rdb, key, &out) {
		return out, nil
	}

	out, err := c.inner.Find(ctx, symbol, interval, outputsize)
	if err != nil {
		return nil, err
	}
	setJSON(ctx, c.rdb, key, out, c.currentTTL())
	return out, nil
}

func (c *CachingCandleRepository) cacheKey(symbol, interval string, outputsize int) string {
	return fmt.Sprintf("%s%d", c.cacheKeyPrefix(symbol, interval), outputsize)
}

func (c *CachingCandleRepository) cacheKeyPrefix(symbol, interval string) string {
	return fmt.Sprintf("%s:%s:%s:", c.namespace, safe(symbol), safe(interval))
}
