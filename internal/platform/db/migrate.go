package db

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	candleadapters "stock_insight/internal/feature/candles/adapters"
	portfolioadapters "stock_insight/internal/feature/portfolio/adapters"
	symboladapters "stock_insight/internal/feature/symbollist/adapters"
	watchlistadapters "stock_insight/internal/feature/watchlist/adapters"
)

// Models はマイグレーション対象のgormモデルです。
func Models() []any {
	return []any{
		&candleadapters.CandleModel{},
		&symboladapters.SymbolModel{},
		&portfolioadapters.TransactionModel{},
		&portfolioadapters.HoldingModel{},
		&portfolioadapters.LogHeadModel{},
		&watchlistadapters.WatchlistItemModel{},
		&watchlistadapters.PriceAlertModel{},
	}
}

// Migrate は全テーブルを AutoMigrate します。
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	slog.Info("migrations applied", "tables", len(Models()))
	return nil
}
