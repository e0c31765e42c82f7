// Package config はアプリ全体の設定を環境変数（と任意の .env）から読み込みます。
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"stock_insight/internal/platform/db"
	"stock_insight/internal/platform/externalapi/twelvedata"
	"stock_insight/internal/platform/redis"
)

// JWTConfig はトークン検証・発行の設定です。
type JWTConfig struct {
	Secret string        `envconfig:"JWT_SECRET"`
	Expiry time.Duration `envconfig:"JWT_EXPIRY" default:"24h"`
}

// HTTPConfig はAPIサーバーの設定です。
type HTTPConfig struct {
	Addr            string        `envconfig:"HTTP_ADDR" default:":8080"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
}

// IngestConfig はローソク足取り込みバッチの設定です。
// Cron が空なら一度だけ実行して終了します。
type IngestConfig struct {
	Cron          string        `envconfig:"INGEST_CRON"`
	RatePerMinute int           `envconfig:"INGEST_RATE_PER_MINUTE" default:"8"`
	OutputSize    int           `envconfig:"INGEST_OUTPUT_SIZE" default:"200"`
	Intervals     []string      `envconfig:"INGEST_INTERVALS" default:"1day,1week,1month"`
	Timeout       time.Duration `envconfig:"INGEST_TIMEOUT" default:"30m"`
}

// CacheConfig はRedisキャッシュのTTLです。
// CandleRefreshHour が 0..23 の場合、ローソク足キャッシュはその時刻（CacheTZ）まで保持します。
type CacheConfig struct {
	CandleTTL         time.Duration `envconfig:"CACHE_CANDLE_TTL" default:"5m"`
	QuoteTTL          time.Duration `envconfig:"CACHE_QUOTE_TTL" default:"1m"`
	CandleRefreshHour int           `envconfig:"CACHE_CANDLE_REFRESH_HOUR" default:"-1"`
	TZ                string        `envconfig:"CACHE_TZ" default:"UTC"`
}

// AppConfig はシステム全体の設定です。
type AppConfig struct {
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	DB         db.Config
	Redis      redis.Config
	TwelveData twelvedata.Config
	JWT        JWTConfig
	HTTP       HTTPConfig
	Ingest     IngestConfig
	Cache      CacheConfig
}

// Load は環境変数から設定を読み込みます。
// .env は本番環境では存在しないことがあるため、読み込みエラーは無視します。
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Ingest.RatePerMinute < 1 {
		return nil, fmt.Errorf("INGEST_RATE_PER_MINUTE must be positive, got %d", cfg.Ingest.RatePerMinute)
	}
	if _, err := time.LoadLocation(cfg.Cache.TZ); err != nil {
		return nil, fmt.Errorf("CACHE_TZ: %w", err)
	}
	return &cfg, nil
}

// SlogLevel は LOG_LEVEL を slog.Level に変換します。不明な値は info です。
func (c *AppConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
