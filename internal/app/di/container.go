package di

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"stock_insight/internal/app/router"
	candleadapters "stock_insight/internal/feature/candles/adapters"
	candleshandler "stock_insight/internal/feature/candles/transport/handler"
	candleusecase "stock_insight/internal/feature/candles/usecase"
	indicatorshandler "stock_insight/internal/feature/indicators/transport/handler"
	indicatorsusecase "stock_insight/internal/feature/indicators/usecase"
	portfolioadapters "stock_insight/internal/feature/portfolio/adapters"
	portfoliohandler "stock_insight/internal/feature/portfolio/transport/handler"
	portfoliousecase "stock_insight/internal/feature/portfolio/usecase"
	symboladapters "stock_insight/internal/feature/symbollist/adapters"
	symbolhandler "stock_insight/internal/feature/symbollist/transport/handler"
	symbolusecase "stock_insight/internal/feature/symbollist/usecase"
	watchlistadapters "stock_insight/internal/feature/watchlist/adapters"
	watchlisthandler "stock_insight/internal/feature/watchlist/transport/handler"
	watchlistusecase "stock_insight/internal/feature/watchlist/usecase"
	"stock_insight/internal/platform/cache"
	"stock_insight/internal/platform/config"
	"stock_insight/internal/platform/db"
	healthhandler "stock_insight/internal/platform/http/handler"
	infraredis "stock_insight/internal/platform/redis"
	"stock_insight/internal/shared/ratelimiter"
)

// Container は組み立て済みのコンポーネントです。cmd 配下の各バイナリが必要な部分だけ使います。
type Container struct {
	DB    *gorm.DB
	Redis *goredis.Client // nil ならキャッシュなし

	Candles   *cache.CachingCandleRepository
	Symbols   *symbolusecase.SymbolUsecase
	Portfolio portfoliohandler.PortfolioUsecase
	Watchlist watchlisthandler.WatchlistUsecase
	Ingest    *candleusecase.IngestUsecase

	Handlers router.Handlers
}

// Build は設定からDB・Redis・外部APIクライアント・ユースケース・ハンドラーを組み立てます。
// Redis に接続できない場合は警告を出してキャッシュなしで続行します。
func Build(ctx context.Context, cfg *config.AppConfig) (*Container, error) {
	gdb, err := db.Open(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return BuildWithDB(ctx, cfg, gdb)
}

// BuildWithDB は接続済みの *gorm.DB を使って組み立てます。
func BuildWithDB(ctx context.Context, cfg *config.AppConfig, gdb *gorm.DB) (*Container, error) {
	rdb, err := infraredis.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		slog.Warn("Redis unavailable. Running without cache.", "error", err)
		rdb = nil
	}

	market := NewMarket(cfg.TwelveData)

	// Repository
	candleRepo := candleadapters.NewCandleRepository(gdb)
	symbolRepo := symboladapters.NewSymbolRepository(gdb)
	portfolioStore := portfolioadapters.NewPortfolioStore(gdb)
	watchlistStore := watchlistadapters.NewWatchlistStore(gdb)

	// Redisキャッシュでラップ
	cachedCandles := cache.NewCachingCandleRepository(rdb, cfg.Cache.CandleTTL, candleRepo, "candles")
	if h := cfg.Cache.CandleRefreshHour; h >= 0 && h <= 23 {
		loc, err := time.LoadLocation(cfg.Cache.TZ)
		if err != nil {
			return nil, fmt.Errorf("cache tz: %w", err)
		}
		cachedCandles = cachedCandles.WithExpiry(func() time.Duration {
			return cache.UntilNextDaily(time.Now(), h, loc)
		})
	}
	quotes := cache.NewQuoteCache(rdb, cfg.Cache.QuoteTTL, market, "quotes")

	// Usecase
	candlesUC := candleusecase.NewCandlesUsecase(cachedCandles)
	symbolUC := symbolusecase.NewSymbolUsecase(symbolRepo)
	indicatorsUC := indicatorsusecase.NewIndicatorsUsecase(cachedCandles)
	portfolioUC := portfoliousecase.NewPortfolioUsecase(portfolioStore, quotes, cachedCandles)
	watchlistUC := watchlistusecase.NewWatchlistUsecase(watchlistStore, quotes)
	ingestUC := candleusecase.NewIngestUsecase(market, cachedCandles,
		ratelimiter.NewRateLimiter(cfg.Ingest.RatePerMinute, time.Minute)).
		WithOutputSize(cfg.Ingest.OutputSize).
		WithIntervals(cfg.Ingest.Intervals)

	checks := map[string]healthhandler.Check{"db": db.Ping(gdb)}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	return &Container{
		DB:        gdb,
		Redis:     rdb,
		Candles:   cachedCandles,
		Symbols:   symbolUC,
		Portfolio: portfolioUC,
		Watchlist: watchlistUC,
		Ingest:    ingestUC,
		Handlers: router.Handlers{
			Candles:    candleshandler.NewCandlesHandler(candlesUC),
			Symbols:    symbolhandler.NewSymbolHandler(symbolUC),
			Indicators: indicatorshandler.NewIndicatorsHandler(indicatorsUC),
			Portfolio:  portfoliohandler.NewPortfolioHandler(portfolioUC),
			Watchlist:  watchlisthandler.NewWatchlistHandler(watchlistUC),
			Readiness:  checks,
			JWTSecret:  cfg.JWT.Secret,
		},
	}, nil
}

// Close はRedisとDBの接続を閉じます。
func (c *Container) Close() error {
	var errs []error
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if c.DB != nil {
		if sqlDB, err := c.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close db: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}
