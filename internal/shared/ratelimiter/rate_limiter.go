// Package ratelimiter は外部API呼び出しの頻度を固定ウィンドウで制限します。
package ratelimiter

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RateLimiterInterface は、API呼び出しなどの操作の頻度を制限するインターフェースです。
type RateLimiterInterface interface {
	// Wait は呼び出し枠が空くまで待機します。ctx がキャンセルされた場合はそのエラーを返します。
	Wait(ctx context.Context) error
}

// RateLimiter は interval あたり limit 回までの呼び出しを許可します。
// 複数のgoroutineから安全に使えます。
type RateLimiter struct {
	mu        sync.Mutex
	limit     int           // interval あたりの上限
	interval  time.Duration // どの単位でリセットするか
	count     int
	lastReset time.Time
	now       func() time.Time
}

// NewRateLimiter は新しいRateLimiterのインスタンスを生成します。limit < 1 は 1 として扱います。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	if limit < 1 {
		limit = 1
	}
	return &RateLimiter{
		limit:     limit,
		interval:  interval,
		lastReset: time.Now(),
		now:       time.Now,
	}
}

// Wait はレートリミットの上限に達しているかを確認し、必要であれば次のウィンドウまで待機します。
func (rl *RateLimiter) Wait(ctx context.Context) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	// interval を過ぎたらカウントリセット
	if now.Sub(rl.lastReset) >= rl.interval {
		rl.count = 0
		rl.lastReset = now
	}

	rl.count++
	if rl.count <= rl.limit {
		return nil
	}

	sleep := rl.interval - now.Sub(rl.lastReset)
	if sleep > 0 {
		slog.Info("rate limit reached, waiting", "limit", rl.limit, "sleep", sleep)
		timer := time.NewTimer(sleep)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			rl.count--
			return ctx.Err()
		case <-timer.C:
		}
	}
	// リセット
	rl.count = 1
	rl.lastReset = rl.now()
	return nil
}
