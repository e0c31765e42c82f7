// Package usecase はローソク足データ操作のビジネスロジックを実装します。
package usecase

import (
	"context"
	"fmt"
	"strings"

	"stock_insight/internal/feature/candles/domain"
	"stock_insight/internal/feature/candles/domain/entity"
)

const (
	// DefaultInterval はローソク足クエリのデフォルト時間間隔です。
	DefaultInterval = "1day"
	// DefaultOutputSize はデフォルトのローソク足返却件数です。
	DefaultOutputSize = 200
	// MaxOutputSize はローソク足の最大返却件数です。
	MaxOutputSize = 5000
)

// CandleRepository はローソク足データの読み取りレイヤーを抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type CandleRepository interface {
	// Find は新しい順に最大 outputsize 件のローソク足を返します。
	Find(ctx context.Context, symbol, interval string, outputsize int) ([]entity.Candle, error)
}

// candlesUsecase はローソク足データ操作のユースケースを定義します。
type candlesUsecase struct {
	candle CandleRepository
}

// NewCandlesUsecase はcandlesUsecaseの新しいインスタンスを生成します。
func NewCandlesUsecase(candle CandleRepository) *candlesUsecase {
	return &candlesUsecase{candle: candle}
}

// NormalizeSymbol は銘柄コードの前後空白を除き大文字化します。
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// GetCandles は指定された銘柄と時間間隔のローソク足データを取得します。
// interval 未指定、outputsize が範囲外の場合はデフォルト値を使います。
func (cu *candlesUsecase) GetCandles(ctx context.Context, symbol, interval string, outputsize int) ([]entity.Candle, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, domain.ErrEmptySymbol
	}
	if interval == "" {
		interval = DefaultInterval
	}
	if outputsize <= 0 || outputsize > MaxOutputSize {
		outputsize = DefaultOutputSize
	}

	cs, err := cu.candle.Find(ctx, symbol, interval, outputsize)
	if err != nil {
		return nil, fmt.Errorf("find candles %s %s: %w", symbol, interval, err)
	}
	return cs, nil
}
