// Package dto はindicatorsフィーチャーのレスポンスDTOです。
// 未定義値（ウォームアップ期間やゼロ除算）は JSON の null として返します。
package dto

import (
	"math"

	"github.com/guregu/null/v5"

	"stock_insight/internal/feature/indicators/domain/indicator"
)

// IndicatorsResponse は時刻と位置が揃った指標系列です。
type IndicatorsResponse struct {
	Symbol     string       `json:"symbol"`
	Interval   string       `json:"interval"`
	Time       []string     `json:"time"`
	Close      []null.Float `json:"close"`
	SMAShort   []null.Float `json:"sma_short"`
	SMALong    []null.Float `json:"sma_long"`
	EMA        []null.Float `json:"ema"`
	RSI        []null.Float `json:"rsi"`
	MACD       MACDSeries   `json:"macd"`
	Bollinger  BandsSeries  `json:"bollinger"`
	Stochastic StochSeries  `json:"stochastic"`
	WilliamsR  []null.Float `json:"williams_r"`
	ATR        []null.Float `json:"atr"`
	OBV        []null.Float `json:"obv"`
	VolumeSMA  []null.Float `json:"volume_sma"`
	Params     ParamsEcho   `json:"params"`
}

// MACDSeries はMACDの3本線です。
type MACDSeries struct {
	MACD      []null.Float `json:"macd"`
	Signal    []null.Float `json:"signal"`
	Histogram []null.Float `json:"histogram"`
}

// BandsSeries はボリンジャーバンドです。
type BandsSeries struct {
	Upper  []null.Float `json:"upper"`
	Middle []null.Float `json:"middle"`
	Lower  []null.Float `json:"lower"`
}

// StochSeries はストキャスティクスの %K/%D です。
type StochSeries struct {
	K []null.Float `json:"k"`
	D []null.Float `json:"d"`
}

// ParamsEcho は実際に使われたウィンドウ幅です。
type ParamsEcho struct {
	SMAShort   int     `json:"sma_short"`
	SMALong    int     `json:"sma_long"`
	EMA        int     `json:"ema"`
	RSI        int     `json:"rsi"`
	MACDFast   int     `json:"macd_fast"`
	MACDSlow   int     `json:"macd_slow"`
	MACDSignal int     `json:"macd_signal"`
	BBWindow   int     `json:"bb_window"`
	BBStd      float64 `json:"bb_std"`
	StochK     int     `json:"stoch_k"`
	StochD     int     `json:"stoch_d"`
	WilliamsR  int     `json:"williams_r"`
	ATR        int     `json:"atr"`
	Volume     int     `json:"volume"`
}

// LevelsResponse はサポート/レジスタンスとピボットです。
type LevelsResponse struct {
	Symbol     string    `json:"symbol"`
	Interval   string    `json:"interval"`
	Window     int       `json:"window"`
	AsOf       string    `json:"as_of"`
	Support    []float64 `json:"support"`
	Resistance []float64 `json:"resistance"`
	Pivots     Pivots    `json:"pivots"`
}

// Pivots はクラシックピボットです。
type Pivots struct {
	Pivot float64 `json:"pivot"`
	R1    float64 `json:"r1"`
	R2    float64 `json:"r2"`
	R3    float64 `json:"r3"`
	S1    float64 `json:"s1"`
	S2    float64 `json:"s2"`
	S3    float64 `json:"s3"`
}

// AnalysisResponse は最新足のテクニカルサマリーです。
type AnalysisResponse struct {
	Symbol          string       `json:"symbol"`
	Price           float64      `json:"price"`
	SMA20           float64      `json:"sma_20"`
	SMA50           float64      `json:"sma_50"`
	PriceVsSMA20Pct null.Float   `json:"price_vs_sma20_pct"`
	PriceVsSMA50Pct null.Float   `json:"price_vs_sma50_pct"`
	Trend           string       `json:"trend"`
	RSI             float64      `json:"rsi"`
	RSISignal       string       `json:"rsi_signal"`
	MACD            null.Float   `json:"macd"`
	MACDSignal      null.Float   `json:"macd_signal"`
	MACDBullish     bool         `json:"macd_bullish"`
	MACDCrossover   null.String  `json:"macd_crossover"`
	ATR             float64      `json:"atr"`
	ATRPct          null.Float   `json:"atr_pct"`
	Support         null.Float   `json:"support"`
	Resistance      null.Float   `json:"resistance"`
	Patterns        []string     `json:"patterns"`
	Signals         []SignalItem `json:"signals"`
	Recommendation  string       `json:"recommendation"`
}

// SignalItem は売買シグナル1件です。
type SignalItem struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

// Float は NaN を null に変換します。
func Float(v float64) null.Float {
	return null.NewFloat(v, !math.IsNaN(v))
}

// FloatSeries は系列の各値を Float で変換します。
func FloatSeries(s indicator.Series) []null.Float {
	out := make([]null.Float, len(s))
	for i, v := range s {
		out[i] = Float(v)
	}
	return out
}
