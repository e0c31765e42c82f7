// Package dto はcandlesフィーチャーのレスポンスDTOです。
package dto

import (
	"time"

	"stock_insight/internal/feature/candles/domain/entity"
)

// CandleResponse はロウソク足データのレスポンスDTOです。
type CandleResponse struct {
	Time   string  `json:"time"`   // 日足以上は日付、日中足はRFC3339
	Open   float64 `json:"open"`   // 始値
	High   float64 `json:"high"`   // 高値
	Low    float64 `json:"low"`    // 安値
	Close  float64 `json:"close"`  // 終値
	Volume int64   `json:"volume"` // 出来高
}

// FormatTime は0時ちょうどなら日付のみ、それ以外はRFC3339で返します。
func FormatTime(t time.Time) string {
	t = t.UTC()
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}

// FromCandles はエンティティを並び順のまま変換します。nil は空配列になります。
func FromCandles(cs []entity.Candle) []CandleResponse {
	out := make([]CandleResponse, 0, len(cs))
	for _, x := range cs {
		out = append(out, CandleResponse{
			Time:   FormatTime(x.Time),
			Open:   x.Open,
			High:   x.High,
			Low:    x.Low,
			Close:  x.Close,
			Volume: x.Volume,
		})
	}
	return out
}
