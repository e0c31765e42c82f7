package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_insight/internal/feature/indicators/domain"
	"stock_insight/internal/feature/indicators/domain/indicator"
	"stock_insight/internal/feature/indicators/transport/handler"
	"stock_insight/internal/feature/indicators/usecase"
)

type mockIndicatorsUsecase struct {
	ComputeFunc func(ctx context.Context, symbol, interval string, outputsize int, p usecase.Params) (usecase.Report, error)
	LevelsFunc  func(ctx context.Context, symbol, interval string, outputsize, window int) (usecase.LevelsReport, error)
	AnalyzeFunc func(ctx context.Context, symbol, interval string, outputsize int) (indicator.Summary, error)
}

func (m *mockIndicatorsUsecase) Compute(ctx context.Context, symbol, interval string, outputsize int, p usecase.Params) (usecase.Report, error) {
	return m.ComputeFunc(ctx, symbol, interval, outputsize, p)
}

func (m *mockIndicatorsUsecase) Levels(ctx context.Context, symbol, interval string, outputsize, window int) (usecase.LevelsReport, error) {
	return m.LevelsFunc(ctx, symbol, interval, outputsize, window)
}

func (m *mockIndicatorsUsecase) Analyze(ctx context.Context, symbol, interval string, outputsize int) (indicator.Summary, error) {
	return m.AnalyzeFunc(ctx, symbol, interval, outputsize)
}

func newRouter(uc handler.IndicatorsUsecase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handler.NewIndicatorsHandler(uc)
	r := gin.New()
	r.GET("/indicators/:code", h.Get)
	r.GET("/indicators/:code/levels", h.Levels)
	r.GET("/indicators/:code/analysis", h.Analysis)
	return r
}

func TestIndicatorsHandler_Get(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	nan := math.NaN()

	mock := &mockIndicatorsUsecase{
		ComputeFunc: func(ctx context.Context, symbol, interval string, outputsize int, p usecase.Params) (usecase.Report, error) {
			assert.Equal(t, "AAPL", symbol)
			assert.Equal(t, "1week", interval)
			assert.Equal(t, 50, outputsize)
			assert.Equal(t, 10, p.SMAShort)
			assert.Equal(t, 2.5, p.BBStd)
			assert.Zero(t, p.RSI)
			return usecase.Report{
				Symbol:   symbol,
				Interval: interval,
				Params:   usecase.DefaultParams(),
				Times:    []time.Time{day, day.AddDate(0, 0, 1)},
				Close:    indicator.Series{10, 11},
				SMAShort: indicator.Series{nan, 10.5},
			}, nil
		},
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/indicators/AAPL?interval=1week&outputsize=50&sma=10&bb_std=2.5", nil)
	newRouter(mock).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []any{"2024-01-01", "2024-01-02"}, body["time"])
	// ウォームアップ期間は null
	assert.Equal(t, []any{nil, 10.5}, body["sma_short"])
	assert.Equal(t, []any{10.0, 11.0}, body["close"])
}

func TestIndicatorsHandler_GetErrors(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		err            error
		expectedStatus int
	}{
		{"non numeric window", "/indicators/AAPL?rsi=abc", nil, http.StatusBadRequest},
		{"invalid window", "/indicators/AAPL?rsi=-1", domain.ErrInvalidWindow, http.StatusBadRequest},
		{"no data", "/indicators/ZZZZ", domain.ErrNoData, http.StatusNotFound},
		{"upstream failure", "/indicators/AAPL", errors.New("db down"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockIndicatorsUsecase{
				ComputeFunc: func(ctx context.Context, symbol, interval string, outputsize int, p usecase.Params) (usecase.Report, error) {
					return usecase.Report{}, tt.err
				},
			}
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, tt.url, nil)
			newRouter(mock).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestIndicatorsHandler_Levels(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mock := &mockIndicatorsUsecase{
		LevelsFunc: func(ctx context.Context, symbol, interval string, outputsize, window int) (usecase.LevelsReport, error) {
			assert.Equal(t, 10, window)
			return usecase.LevelsReport{
				Symbol:   symbol,
				Interval: interval,
				Window:   window,
				AsOf:     day,
				Levels:   indicator.Levels{Support: []float64{90}, Resistance: []float64{}},
				Pivots:   indicator.PivotPoints(120, 80, 100),
			}, nil
		},
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/indicators/AAPL/levels?window=10", nil)
	newRouter(mock).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"symbol":"AAPL","interval":"1day","window":10,"as_of":"2024-03-01",
		"support":[90],"resistance":[],
		"pivots":{"pivot":100,"r1":120,"r2":140,"r3":160,"s1":80,"s2":60,"s3":40}
	}`, w.Body.String())
}

func TestIndicatorsHandler_Analysis(t *testing.T) {
	mock := &mockIndicatorsUsecase{
		AnalyzeFunc: func(ctx context.Context, symbol, interval string, outputsize int) (indicator.Summary, error) {
			return indicator.Summary{
				Price:           100,
				PriceVsSMA20Pct: math.NaN(),
				PriceVsSMA50Pct: math.NaN(),
				Trend:           indicator.TrendNeutral,
				RSI:             50,
				RSISignal:       indicator.MomentumNeutral,
				ATRPct:          1.5,
				Support:         math.NaN(),
				Resistance:      110,
				Patterns:        []indicator.Pattern{indicator.PatternDoji},
				Signals:         []indicator.Signal{},
				Recommendation:  indicator.ActionHold,
			}, nil
		},
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/indicators/AAPL/analysis", nil)
	newRouter(mock).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Nil(t, body["support"])
	assert.Equal(t, 110.0, body["resistance"])
	assert.Nil(t, body["macd_crossover"])
	assert.Nil(t, body["price_vs_sma20_pct"])
	assert.Equal(t, []any{"doji"}, body["patterns"])
	assert.Equal(t, []any{}, body["signals"])
	assert.Equal(t, "HOLD", body["recommendation"])
}
