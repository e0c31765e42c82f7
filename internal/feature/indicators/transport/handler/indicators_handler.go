// Package handler はindicatorsフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/guregu/null/v5"

	"stock_insight/internal/feature/indicators/domain"
	"stock_insight/internal/feature/indicators/domain/indicator"
	"stock_insight/internal/feature/indicators/transport/http/dto"
	"stock_insight/internal/feature/indicators/usecase"
)

// IndicatorsUsecase は指標算出ユースケースのインターフェースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type IndicatorsUsecase interface {
	Compute(ctx context.Context, symbol, interval string, outputsize int, p usecase.Params) (usecase.Report, error)
	Levels(ctx context.Context, symbol, interval string, outputsize, window int) (usecase.LevelsReport, error)
	Analyze(ctx context.Context, symbol, interval string, outputsize int) (indicator.Summary, error)
}

// IndicatorsHandler はテクニカル指標のHTTPリクエストを処理します。
type IndicatorsHandler struct {
	uc IndicatorsUsecase
}

// NewIndicatorsHandler はIndicatorsHandlerの新しいインスタンスを生成します。
func NewIndicatorsHandler(uc IndicatorsUsecase) *IndicatorsHandler {
	return &IndicatorsHandler{uc: uc}
}

// errBadQuery はクエリパラメータが数値として解釈できない場合のエラーです。
var errBadQuery = errors.New("invalid query parameter")

// Get は全指標を時系列で返します。
//
// エンドポイント例:
// GET /indicators/:code?interval=1day&outputsize=200&sma=20&rsi=14
func (h *IndicatorsHandler) Get(c *gin.Context) {
	code := c.Param("code")
	interval := c.DefaultQuery("interval", "1day")
	outputsize, _ := strconv.Atoi(c.DefaultQuery("outputsize", "200"))

	p, err := parseParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	r, err := h.uc.Compute(c.Request.Context(), code, interval, outputsize, p)
	if err != nil {
		writeError(c, err)
		return
	}

	times := make([]string, len(r.Times))
	for i, t := range r.Times {
		times[i] = t.UTC().Format("2006-01-02")
	}
	c.JSON(http.StatusOK, dto.IndicatorsResponse{
		Symbol:   r.Symbol,
		Interval: r.Interval,
		Time:     times,
		Close:    dto.FloatSeries(r.Close),
		SMAShort: dto.FloatSeries(r.SMAShort),
		SMALong:  dto.FloatSeries(r.SMALong),
		EMA:      dto.FloatSeries(r.EMA),
		RSI:      dto.FloatSeries(r.RSI),
		MACD: dto.MACDSeries{
			MACD:      dto.FloatSeries(r.MACD.MACD),
			Signal:    dto.FloatSeries(r.MACD.Signal),
			Histogram: dto.FloatSeries(r.MACD.Histogram),
		},
		Bollinger: dto.BandsSeries{
			Upper:  dto.FloatSeries(r.Bollinger.Upper),
			Middle: dto.FloatSeries(r.Bollinger.Middle),
			Lower:  dto.FloatSeries(r.Bollinger.Lower),
		},
		Stochastic: dto.StochSeries{
			K: dto.FloatSeries(r.Stochastic.K),
			D: dto.FloatSeries(r.Stochastic.D),
		},
		WilliamsR: dto.FloatSeries(r.WilliamsR),
		ATR:       dto.FloatSeries(r.ATR),
		OBV:       dto.FloatSeries(r.OBV),
		VolumeSMA: dto.FloatSeries(r.VolumeSMA),
		Params: dto.ParamsEcho{
			SMAShort:   r.Params.SMAShort,
			SMALong:    r.Params.SMALong,
			EMA:        r.Params.EMA,
			RSI:        r.Params.RSI,
			MACDFast:   r.Params.MACDFast,
			MACDSlow:   r.Params.MACDSlow,
			MACDSignal: r.Params.MACDSignal,
			BBWindow:   r.Params.BBWindow,
			BBStd:      r.Params.BBStd,
			StochK:     r.Params.StochK,
			StochD:     r.Params.StochD,
			WilliamsR:  r.Params.WilliamsR,
			ATR:        r.Params.ATR,
			Volume:     r.Params.Volume,
		},
	})
}

// Levels はサポート/レジスタンスとピボットを返します。
//
// エンドポイント例:
// GET /indicators/:code/levels?window=20
func (h *IndicatorsHandler) Levels(c *gin.Context) {
	code := c.Param("code")
	interval := c.DefaultQuery("interval", "1day")
	outputsize, _ := strconv.Atoi(c.DefaultQuery("outputsize", "200"))
	window, err := queryInt(c, "window")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	r, err := h.uc.Levels(c.Request.Context(), code, interval, outputsize, window)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.LevelsResponse{
		Symbol:     r.Symbol,
		Interval:   r.Interval,
		Window:     r.Window,
		AsOf:       r.AsOf.UTC().Format("2006-01-02"),
		Support:    r.Levels.Support,
		Resistance: r.Levels.Resistance,
		Pivots: dto.Pivots{
			Pivot: r.Pivots.Pivot,
			R1:    r.Pivots.R1,
			R2:    r.Pivots.R2,
			R3:    r.Pivots.R3,
			S1:    r.Pivots.S1,
			S2:    r.Pivots.S2,
			S3:    r.Pivots.S3,
		},
	})
}

// Analysis は最新足のテクニカルサマリーを返します。
//
// エンドポイント例:
// GET /indicators/:code/analysis
func (h *IndicatorsHandler) Analysis(c *gin.Context) {
	code := c.Param("code")
	interval := c.DefaultQuery("interval", "1day")
	outputsize, _ := strconv.Atoi(c.DefaultQuery("outputsize", "200"))

	s, err := h.uc.Analyze(c.Request.Context(), code, interval, outputsize)
	if err != nil {
		writeError(c, err)
		return
	}

	patterns := make([]string, 0, len(s.Patterns))
	for _, p := range s.Patterns {
		patterns = append(patterns, string(p))
	}
	signals := make([]dto.SignalItem, 0, len(s.Signals))
	for _, sig := range s.Signals {
		signals = append(signals, dto.SignalItem{Action: string(sig.Action), Reason: sig.Reason})
	}
	c.JSON(http.StatusOK, dto.AnalysisResponse{
		Symbol:          code,
		Price:           s.Price,
		SMA20:           s.SMA20,
		SMA50:           s.SMA50,
		PriceVsSMA20Pct: dto.Float(s.PriceVsSMA20Pct),
		PriceVsSMA50Pct: dto.Float(s.PriceVsSMA50Pct),
		Trend:           string(s.Trend),
		RSI:             s.RSI,
		RSISignal:       string(s.RSISignal),
		MACD:            dto.Float(s.MACD),
		MACDSignal:      dto.Float(s.MACDSignal),
		MACDBullish:     s.MACDBullish,
		MACDCrossover:   null.NewString(string(s.MACDCrossover), s.MACDCrossover != ""),
		ATR:             s.ATR,
		ATRPct:          dto.Float(s.ATRPct),
		Support:         dto.Float(s.Support),
		Resistance:      dto.Float(s.Resistance),
		Patterns:        patterns,
		Signals:         signals,
		Recommendation:  string(s.Recommendation),
	})
}

// parseParams はクエリからウィンドウ幅を読み取ります。未指定は0のままusecaseで補完されます。
func parseParams(c *gin.Context) (usecase.Params, error) {
	var p usecase.Params
	fields := []struct {
		key string
		dst *int
	}{
		{"sma", &p.SMAShort},
		{"sma_long", &p.SMALong},
		{"ema", &p.EMA},
		{"rsi", &p.RSI},
		{"macd_fast", &p.MACDFast},
		{"macd_slow", &p.MACDSlow},
		{"macd_signal", &p.MACDSignal},
		{"bb", &p.BBWindow},
		{"stoch_k", &p.StochK},
		{"stoch_d", &p.StochD},
		{"willr", &p.WilliamsR},
		{"atr", &p.ATR},
		{"volume", &p.Volume},
	}
	for _, f := range fields {
		v, err := queryInt(c, f.key)
		if err != nil {
			return usecase.Params{}, err
		}
		*f.dst = v
	}
	if raw := c.Query("bb_std"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return usecase.Params{}, fmt.Errorf("bb_std=%q: %w", raw, errBadQuery)
		}
		p.BBStd = v
	}
	return p, nil
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s=%q: %w", key, raw, errBadQuery)
	}
	return v, nil
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidWindow):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNoData):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}
