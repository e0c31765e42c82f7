package twelvedata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	candleentity "stock_insight/internal/feature/candles/domain/entity"
	candleusecase "stock_insight/internal/feature/candles/usecase"
	portfolioentity "stock_insight/internal/feature/portfolio/domain/entity"
	portfoliousecase "stock_insight/internal/feature/portfolio/usecase"
	watchlistusecase "stock_insight/internal/feature/watchlist/usecase"
	"stock_insight/internal/platform/externalapi/twelvedata/dto"
)

// TwelveDataMarket はTwelve Data外部APIから株価データを取得するクライアントです。
// ローソク足（ingest用）と現在値クォート（ポートフォリオ評価・アラート判定用）の両方を提供します。
type TwelveDataMarket struct {
	cfg    Config
	client *http.Client
}

// コンパイル時にインターフェース実装を検証します。
var (
	_ candleusecase.MarketRepository = (*TwelveDataMarket)(nil)
	_ portfoliousecase.QuoteProvider = (*TwelveDataMarket)(nil)
	_ watchlistusecase.QuoteProvider = (*TwelveDataMarket)(nil)
)

// NewTwelveDataMarket は指定された設定とHTTPクライアントでTwelveDataMarketの新しいインスタンスを生成します。
func NewTwelveDataMarket(cfg Config, client *http.Client) *TwelveDataMarket {
	return &TwelveDataMarket{cfg: cfg, client: client}
}

// get は path にクエリを付けてGETし、レスポンスを out にデコードします。
// 4xx/5xx は "twelvedata http <code>" エラーになります。
func (t *TwelveDataMarket) get(ctx context.Context, path string, q url.Values, out any) error {
	q.Set("apikey", t.cfg.TwelveDataAPIKey)
	u := fmt.Sprintf("%s/%s?%s", strings.TrimRight(t.cfg.BaseURL, "/"), path, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	res, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode >= 400 {
		return fmt.Errorf("twelvedata http %d", res.StatusCode)
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// GetTimeSeries はTwelve Data APIから時系列株価データを取得し、
// entity.Candle のスライスとして返します（APIの並びのまま、新しい順）。
func (t *TwelveDataMarket) GetTimeSeries(ctx context.Context, symbol, interval string, outputsize int) ([]candleentity.Candle, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("outputsize", strconv.Itoa(outputsize))

	var body dto.TimeSeriesResponse
	if err := t.get(ctx, "time_series", q, &body); err != nil {
		return nil, err
	}
	if body.Status == "error" {
		return nil, fmt.Errorf("twelvedata: %s", body.Message)
	}

	candles := make([]candleentity.Candle, 0, len(body.Values))
	for _, v := range body.Values {
		tm, err := parseDatetime(v.Datetime)
		if err != nil {
			return nil, err
		}
		o, err := strconv.ParseFloat(v.Open, 64)
		if err != nil {
			return nil, fmt.Errorf("parse open %q: %w", v.Open, err)
		}
		h, err := strconv.ParseFloat(v.High, 64)
		if err != nil {
			return nil, fmt.Errorf("parse high %q: %w", v.High, err)
		}
		l, err := strconv.ParseFloat(v.Low, 64)
		if err != nil {
			return nil, fmt.Errorf("parse low %q: %w", v.Low, err)
		}
		c, err := strconv.ParseFloat(v.Close, 64)
		if err != nil {
			return nil, fmt.Errorf("parse close %q: %w", v.Close, err)
		}
		// 指数などは出来高を返さないため空文字は0扱い
		var vol64 int64
		if v.Volume != "" {
			vol64, err = strconv.ParseInt(v.Volume, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("parse volume %q: %w", v.Volume, err)
			}
		}

		candles = append(candles, candleentity.Candle{
			Time:   tm,
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: vol64,
		})
	}
	return candles, nil
}

// GetQuote は /quote から最新値を取得します。価格は終値(close)、
// 前日比は change / percent_change をそのまま使います。
func (t *TwelveDataMarket) GetQuote(ctx context.Context, symbol string) (portfolioentity.Quote, error) {
	q := url.Values{}
	q.Set("symbol", symbol)

	var body dto.QuoteResponse
	if err := t.get(ctx, "quote", q, &body); err != nil {
		return portfolioentity.Quote{}, err
	}
	if body.Status == "error" {
		return portfolioentity.Quote{}, fmt.Errorf("twelvedata: %s", body.Message)
	}

	price, err := decimal.NewFromString(body.Close)
	if err != nil {
		return portfolioentity.Quote{}, fmt.Errorf("parse close %q: %w", body.Close, err)
	}
	quote := portfolioentity.Quote{Symbol: symbol, Price: price}
	if body.Change != "" {
		if quote.Change, err = decimal.NewFromString(body.Change); err != nil {
			return portfolioentity.Quote{}, fmt.Errorf("parse change %q: %w", body.Change, err)
		}
	}
	if body.PercentChange != "" {
		if quote.PercentChange, err = decimal.NewFromString(body.PercentChange); err != nil {
			return portfolioentity.Quote{}, fmt.Errorf("parse percent_change %q: %w", body.PercentChange, err)
		}
	}
	switch {
	case body.Timestamp > 0:
		quote.Time = time.Unix(body.Timestamp, 0).UTC()
	case body.Datetime != "":
		if tm, err := parseDatetime(body.Datetime); err == nil {
			quote.Time = tm
		}
	}
	return quote, nil
}

func parseDatetime(s string) (time.Time, error) {
	tm, err := time.Parse("2006-01-02 15:04:05", s)
	if err == nil {
		return tm, nil
	}
	tm, err = time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return tm, nil
}
