// Package usecase はローソク足からテクニカル指標を算出するビジネスロジックを実装します。
package usecase

import (
	"context"
	"fmt"
	"time"

	candleentity "stock_insight/internal/feature/candles/domain/entity"
	candleusecase "stock_insight/internal/feature/candles/usecase"
	"stock_insight/internal/feature/indicators/domain"
	"stock_insight/internal/feature/indicators/domain/indicator"
)

// CandleRepository はローソク足データの読み取りレイヤーを抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type CandleRepository interface {
	Find(ctx context.Context, symbol, interval string, outputsize int) ([]candleentity.Candle, error)
}

// Params は各指標のウィンドウ幅です。ゼロ値のフィールドはデフォルトで補完されます。
type Params struct {
	SMAShort   int
	SMALong    int
	EMA        int
	RSI        int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
	BBWindow   int
	BBStd      float64
	StochK     int
	StochD     int
	WilliamsR  int
	ATR        int
	Volume     int
	Levels     int
}

// DefaultParams は一般的なチャートツールと同じ既定値を返します。
func DefaultParams() Params {
	return Params{
		SMAShort:   20,
		SMALong:    50,
		EMA:        12,
		RSI:        14,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
		BBWindow:   20,
		BBStd:      2,
		StochK:     14,
		StochD:     3,
		WilliamsR:  14,
		ATR:        14,
		Volume:     indicator.DefaultVolumeWindow,
		Levels:     20,
	}
}

// WithDefaults はゼロ値のフィールドを既定値で埋めたコピーを返します。
// 負の値はそのまま残り、Validate で弾かれます。
func (p Params) WithDefaults() Params {
	d := DefaultParams()
	fill := func(v *int, def int) {
		if *v == 0 {
			*v = def
		}
	}
	fill(&p.SMAShort, d.SMAShort)
	fill(&p.SMALong, d.SMALong)
	fill(&p.EMA, d.EMA)
	fill(&p.RSI, d.RSI)
	fill(&p.MACDFast, d.MACDFast)
	fill(&p.MACDSlow, d.MACDSlow)
	fill(&p.MACDSignal, d.MACDSignal)
	fill(&p.BBWindow, d.BBWindow)
	fill(&p.StochK, d.StochK)
	fill(&p.StochD, d.StochD)
	fill(&p.WilliamsR, d.WilliamsR)
	fill(&p.ATR, d.ATR)
	fill(&p.Volume, d.Volume)
	fill(&p.Levels, d.Levels)
	if p.BBStd == 0 {
		p.BBStd = d.BBStd
	}
	return p
}

// Validate はすべてのウィンドウが正であることを確認します。
func (p Params) Validate() error {
	windows := map[string]int{
		"sma_short":   p.SMAShort,
		"sma_long":    p.SMALong,
		"ema":         p.EMA,
		"rsi":         p.RSI,
		"macd_fast":   p.MACDFast,
		"macd_slow":   p.MACDSlow,
		"macd_signal": p.MACDSignal,
		"bb_window":   p.BBWindow,
		"stoch_k":     p.StochK,
		"stoch_d":     p.StochD,
		"williams_r":  p.WilliamsR,
		"atr":         p.ATR,
		"volume":      p.Volume,
		"levels":      p.Levels,
	}
	for name, w := range windows {
		if w < 1 {
			return fmt.Errorf("%s=%d: %w", name, w, domain.ErrInvalidWindow)
		}
	}
	if p.BBStd < 0 {
		return fmt.Errorf("bb_std=%v: %w", p.BBStd, domain.ErrInvalidWindow)
	}
	return nil
}

// Report は時刻と位置が揃った指標系列の集合です。
type Report struct {
	Symbol     string
	Interval   string
	Params     Params
	Times      []time.Time
	Close      indicator.Series
	SMAShort   indicator.Series
	SMALong    indicator.Series
	EMA        indicator.Series
	RSI        indicator.Series
	MACD       indicator.MACDResult
	Bollinger  indicator.BollingerResult
	Stochastic indicator.StochasticResult
	WilliamsR  indicator.Series
	ATR        indicator.Series
	OBV        indicator.Series
	VolumeSMA  indicator.Series
}

// LevelsReport はサポート/レジスタンスと最新足のピボットです。
type LevelsReport struct {
	Symbol   string
	Interval string
	Window   int
	Levels   indicator.Levels
	Pivots   indicator.Pivots
	AsOf     time.Time
}

type indicatorsUsecase struct {
	candle CandleRepository
}

// NewIndicatorsUsecase はindicatorsUsecaseの新しいインスタンスを生成します。
func NewIndicatorsUsecase(candle CandleRepository) *indicatorsUsecase {
	return &indicatorsUsecase{candle: candle}
}

// Compute は指定銘柄のローソク足から全指標を算出します。
func (u *indicatorsUsecase) Compute(ctx context.Context, symbol, interval string, outputsize int, p Params) (Report, error) {
	p = p.WithDefaults()
	if err := p.Validate(); err != nil {
		return Report{}, err
	}
	series, interval, err := u.load(ctx, symbol, interval, outputsize)
	if err != nil {
		return Report{}, err
	}

	closes := series.Closes()
	highs := series.Highs()
	lows := series.Lows()
	volumes := series.Volumes()

	return Report{
		Symbol:     symbol,
		Interval:   interval,
		Params:     p,
		Times:      series.Times(),
		Close:      indicator.Series(closes),
		SMAShort:   indicator.SMA(closes, p.SMAShort),
		SMALong:    indicator.SMA(closes, p.SMALong),
		EMA:        indicator.EMA(closes, p.EMA),
		RSI:        indicator.RSI(closes, p.RSI),
		MACD:       indicator.MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal),
		Bollinger:  indicator.Bollinger(closes, p.BBWindow, p.BBStd),
		Stochastic: indicator.Stochastic(highs, lows, closes, p.StochK, p.StochD),
		WilliamsR:  indicator.WilliamsR(highs, lows, closes, p.WilliamsR),
		ATR:        indicator.ATR(highs, lows, closes, p.ATR),
		OBV:        indicator.OBV(closes, volumes),
		VolumeSMA:  indicator.VolumeSMA(volumes, p.Volume),
	}, nil
}

// Levels はサポート/レジスタンスと最新足のピボットポイントを返します。
func (u *indicatorsUsecase) Levels(ctx context.Context, symbol, interval string, outputsize, window int) (LevelsReport, error) {
	if window == 0 {
		window = DefaultParams().Levels
	}
	if window < 1 {
		return LevelsReport{}, fmt.Errorf("window=%d: %w", window, domain.ErrInvalidWindow)
	}
	series, interval, err := u.load(ctx, symbol, interval, outputsize)
	if err != nil {
		return LevelsReport{}, err
	}
	pivots, _ := indicator.PivotPointsFromBars(series)
	last, _ := series.Last()
	return LevelsReport{
		Symbol:   symbol,
		Interval: interval,
		Window:   window,
		Levels:   indicator.SupportResistance(series.Highs(), series.Lows(), window),
		Pivots:   pivots,
		AsOf:     last.Time,
	}, nil
}

// Analyze は最新足のテクニカルサマリーを返します。
func (u *indicatorsUsecase) Analyze(ctx context.Context, symbol, interval string, outputsize int) (indicator.Summary, error) {
	series, _, err := u.load(ctx, symbol, interval, outputsize)
	if err != nil {
		return indicator.Summary{}, err
	}
	s, _ := indicator.Analyze(series)
	return s, nil
}

// load はローソク足を取得し、時刻昇順の PriceSeries に変換します。
func (u *indicatorsUsecase) load(ctx context.Context, symbol, interval string, outputsize int) (indicator.PriceSeries, string, error) {
	if interval == "" {
		interval = candleusecase.DefaultInterval
	}
	if outputsize <= 0 || outputsize > candleusecase.MaxOutputSize {
		outputsize = candleusecase.DefaultOutputSize
	}
	cs, err := u.candle.Find(ctx, symbol, interval, outputsize)
	if err != nil {
		return nil, interval, fmt.Errorf("find candles %s/%s: %w", symbol, interval, err)
	}
	if len(cs) == 0 {
		return nil, interval, fmt.Errorf("%s/%s: %w", symbol, interval, domain.ErrNoData)
	}
	return ToPriceSeries(cs), interval, nil
}

// ToPriceSeries はリポジトリの新しい順のローソク足を時刻昇順の系列に変換します。
func ToPriceSeries(cs []candleentity.Candle) indicator.PriceSeries {
	series := make(indicator.PriceSeries, len(cs))
	for i, c := range cs {
		series[i] = indicator.Bar{
			Time:   c.Time,
			Open:   c.Open,
			High:   c.High,
			Low:    c.Low,
			Close:  c.Close,
			Volume: float64(c.Volume),
		}
	}
	return series.Sorted()
}
