// Package cache provides Redis-backed decorators for repository interfaces.
// Every decorator bypasses Redis when the client is nil.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// getJSON reads key into out. A miss, a Redis error or a corrupted entry
// all report false; corrupted entries are deleted.
func getJSON(ctx context.Context, rdb *redis.Client, key string, out any) bool {
	b, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("cache get failed", "key", key, "error", err)
		}
		return false
	}
	if len(b) == 0 {
		return false
	}
	if err := json.Unmarshal(b, out); err != nil {
		_ = rdb.Del(ctx, key).Err()
		return false
	}
	return true
}

// setJSON stores v under key. Failures are logged and otherwise ignored.
func setJSON(ctx context.Context, rdb *redis.Client, key string, v any, ttl time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := rdb.Set(ctx, key, b, ttl).Err(); err != nil {
		slog.Warn("cache set failed", "key", key, "error", err)
	}
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func deleteByPattern(ctx context.Context, rdb *redis.Client, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			return nil
		}
	}
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}

// UntilNextDaily returns the time from now until the next hour:00 in loc.
// The result is in (0, 24h].
func UntilNextDaily(now time.Time, hour int, loc *time.Location) time.Duration {
	now = now.In(loc)
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
