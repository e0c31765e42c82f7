package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"stock_insight/internal/app/di"
	"stock_insight/internal/app/router"
	"stock_insight/internal/platform/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	configureGinMode()

	// JWT_SECRETチェック（開発中の注意喚起）
	if cfg.JWT.Secret == "" {
		slog.Warn("JWT_SECRET is not set. Every authenticated route will answer 500.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := di.Build(ctx, cfg)
	if err != nil {
		slog.Error("failed to build application", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := c.Close(); err != nil {
			slog.Error("failed to close resources", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router.NewRouter(c.Handlers),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("server failed", "error", err)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}

// configureGinMode は GIN_MODE が未指定なら release モードにします。
// debug モードのルート一覧や警告ログは明示的に GIN_MODE=debug を渡したときだけ出します。
func configureGinMode() {
	if os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.ReleaseMode)
	}
}
