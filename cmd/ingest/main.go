// ingest は有効な銘柄のローソク足を Twelve Data から取得してDBに保存します。
// INGEST_CRON が設定されていれば常駐し、そのスケジュールで繰り返し実行します。
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"stock_insight/internal/app/di"
	candleusecase "stock_insight/internal/feature/candles/usecase"
	"stock_insight/internal/platform/config"
)

// symbolLister は取り込み対象の銘柄コードを返します。
type symbolLister interface {
	ListActiveCodes(ctx context.Context) ([]string, error)
}

// ingester は銘柄群のローソク足を取り込みます。
type ingester interface {
	IngestAll(ctx context.Context, symbols []string) (candleusecase.IngestResult, error)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := di.Build(ctx, cfg)
	if err != nil {
		slog.Error("failed to build application", "error", err)
		os.Exit(1)
	}
	defer func() { _ = c.Close() }()

	if cfg.Ingest.Cron == "" {
		if _, err := runOnce(ctx, c.Symbols, c.Ingest, cfg.Ingest.Timeout); err != nil {
			slog.Error("ingest failed", "error", err)
			os.Exit(1)
		}
		slog.Info("ingest ok")
		return
	}

	sched := cron.New()
	if err := schedule(ctx, sched, cfg.Ingest.Cron, c.Symbols, c.Ingest, cfg.Ingest.Timeout); err != nil {
		slog.Error("failed to register schedule", "error", err)
		os.Exit(1)
	}
	sched.Start()
	slog.Info("ingest scheduler started", "cron", cfg.Ingest.Cron)

	<-ctx.Done()
	// 実行中のジョブの完了を待つ
	<-sched.Stop().Done()
	slog.Info("ingest scheduler stopped")
}

// runOnce は有効銘柄を読み込み、全銘柄を一度取り込みます。
func runOnce(ctx context.Context, symbols symbolLister, uc ingester, timeout time.Duration) (candleusecase.IngestResult, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	codes, err := symbols.ListActiveCodes(ctx)
	if err != nil {
		return candleusecase.IngestResult{}, fmt.Errorf("failed to load symbols: %w", err)
	}
	return uc.IngestAll(ctx, codes)
}

// schedule は spec（標準の5フィールド形式）で runOnce を登録します。
func schedule(ctx context.Context, c *cron.Cron, spec string, symbols symbolLister, uc ingester, timeout time.Duration) error {
	_, err := c.AddFunc(spec, func() {
		res, err := runOnce(ctx, symbols, uc, timeout)
		if err != nil {
			slog.Error("scheduled ingest failed", "error", err)
			return
		}
		slog.Info("scheduled ingest done", "succeeded", res.Succeeded, "failed", res.Failed)
	})
	if err != nil {
		return fmt.Errorf("register ingest task: %w", err)
	}
	return nil
}
