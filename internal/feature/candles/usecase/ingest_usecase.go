package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"stock_insight/internal/feature/candles/domain/entity"
	"stock_insight/internal/shared/ratelimiter"
)

// DefaultIngestOutputSize は1回のリクエストで取得するデータ件数です。
const DefaultIngestOutputSize = 200

// DefaultIngestIntervals はデータ取得の対象となる時間足のリストです。
var DefaultIngestIntervals = []string{"1day", "1week", "1month"}

// MarketRepository は株価データを取得するリポジトリのインターフェイスです。
// 外部 API の実装を抽象化します。
type MarketRepository interface {
	GetTimeSeries(ctx context.Context, symbol, interval string, outputsize int) ([]entity.Candle, error)
}

// CandleWriter はローソク足の書き込みレイヤーです。
type CandleWriter interface {
	UpsertBatch(ctx context.Context, candles []entity.Candle) error
}

// IngestResult は IngestAll の集計です。
type IngestResult struct {
	Succeeded int
	Failed    int
}

// IngestUsecase は外部APIからデータを取得し、データベースに永続化するユースケースを定義します。
type IngestUsecase struct {
	market      MarketRepository
	candle      CandleWriter
	rateLimiter ratelimiter.RateLimiterInterface
	intervals   []string
	outputsize  int
}

// NewIngestUsecase は新しい IngestUsecase を作成します。
func NewIngestUsecase(market MarketRepository, candle CandleWriter, rateLimiter ratelimiter.RateLimiterInterface) *IngestUsecase {
	return &IngestUsecase{
		market:      market,
		candle:      candle,
		rateLimiter: rateLimiter,
		intervals:   DefaultIngestIntervals,
		outputsize:  DefaultIngestOutputSize,
	}
}

// WithOutputSize は1リクエストあたりの取得件数を変更します。0以下は無視します。
func (iu *IngestUsecase) WithOutputSize(n int) *IngestUsecase {
	if n > 0 {
		iu.outputsize = n
	}
	return iu
}

// WithIntervals は取得対象の時間足を変更します。空なら無視します。
func (iu *IngestUsecase) WithIntervals(intervals []string) *IngestUsecase {
	if len(intervals) > 0 {
		iu.intervals = intervals
	}
	return iu
}

// IngestSymbol は1銘柄・1時間足の時系列データを外部リポジトリから取得し、
// データベースに一括で挿入（または更新）します。
func (iu *IngestUsecase) IngestSymbol(ctx context.Context, symbol, interval string) error {
	cs, err := iu.market.GetTimeSeries(ctx, symbol, interval, iu.outputsize)
	if err != nil {
		return fmt.Errorf("fetch %s %s: %w", symbol, interval, err)
	}

	// 取得したデータに銘柄コードと時間足を設定
	for i := range cs {
		cs[i].Symbol = symbol
		cs[i].Interval = interval
	}
	if err := iu.candle.UpsertBatch(ctx, cs); err != nil {
		return fmt.Errorf("save %s %s: %w", symbol, interval, err)
	}
	return nil
}

// IngestAll は全銘柄 × 全時間足を取得して永続化します。APIのレートリミットを考慮して、
// リクエスト前に待機します。個別の失敗はログに出して続行し、ctx のキャンセルだけが処理を止めます。
func (iu *IngestUsecase) IngestAll(ctx context.Context, symbols []string) (IngestResult, error) {
	var res IngestResult
	for _, s := range symbols {
		for _, interval := range iu.intervals {
			if err := iu.rateLimiter.Wait(ctx); err != nil {
				return res, err
			}
			if err := iu.IngestSymbol(ctx, s, interval); err != nil {
				res.Failed++
				slog.Error("failed to ingest data", "symbol", s, "interval", interval, "error", err)
				continue
			}
			res.Succeeded++
		}
	}
	slog.Info("ingest finished", "symbols", len(symbols), "succeeded", res.Succeeded, "failed", res.Failed)
	return res, nil
}
