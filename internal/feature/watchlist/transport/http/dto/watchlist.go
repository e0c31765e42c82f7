// Package dto はwatchlistフィーチャーのリクエスト/レスポンスDTOです。
package dto

import (
	"time"

	"github.com/guregu/null/v5"
	"github.com/shopspring/decimal"

	"stock_insight/internal/feature/watchlist/domain/entity"
)

// AddItemRequest はウォッチリストへの追加リクエストです。
type AddItemRequest struct {
	Symbol string `json:"symbol" binding:"required"`
}

// AddAlertRequest は価格アラートの登録リクエストです。condition は above/below です。
type AddAlertRequest struct {
	Symbol      string          `json:"symbol" binding:"required"`
	Condition   string          `json:"condition" binding:"required"`
	TargetPrice decimal.Decimal `json:"target_price"`
}

// ItemResponse はウォッチ中の銘柄1件です。
type ItemResponse struct {
	Symbol  string    `json:"symbol"`
	AddedAt time.Time `json:"added_at"`
}

// AlertResponse は価格アラート1件です。未発火なら triggered_at は null です。
type AlertResponse struct {
	ID          uint            `json:"id"`
	Symbol      string          `json:"symbol"`
	Condition   string          `json:"condition"`
	TargetPrice decimal.Decimal `json:"target_price"`
	CreatedAt   time.Time       `json:"created_at"`
	TriggeredAt null.Time       `json:"triggered_at"`
}

// StatusResponse は銘柄ごとの現在値とアラート評価です。
type StatusResponse struct {
	Symbol           string          `json:"symbol"`
	Price            decimal.Decimal `json:"price"`
	Change           decimal.Decimal `json:"change"`
	PercentChange    decimal.Decimal `json:"percent_change"`
	PriceUnavailable bool            `json:"price_unavailable"`
	PriceError       null.String     `json:"price_error"`
	Alerts           []AlertResponse `json:"alerts"`
	Triggered        []AlertResponse `json:"triggered"`
}

// FromItems はエンティティを並び順のまま変換します。nil は空配列になります。
func FromItems(es []entity.Item) []ItemResponse {
	out := make([]ItemResponse, 0, len(es))
	for _, e := range es {
		out = append(out, ItemResponse{Symbol: e.Symbol, AddedAt: e.AddedAt})
	}
	return out
}

// FromAlert はエンティティをDTOに変換します。
func FromAlert(e entity.Alert) AlertResponse {
	return AlertResponse{
		ID:          e.ID,
		Symbol:      e.Symbol,
		Condition:   string(e.Condition),
		TargetPrice: e.TargetPrice,
		CreatedAt:   e.CreatedAt,
		TriggeredAt: null.TimeFromPtr(e.TriggeredAt),
	}
}

// FromAlerts はエンティティを並び順のまま変換します。nil は空配列になります。
func FromAlerts(es []entity.Alert) []AlertResponse {
	out := make([]AlertResponse, 0, len(es))
	for _, e := range es {
		out = append(out, FromAlert(e))
	}
	return out
}

// FromStatuses はエンティティを並び順のまま変換します。
func FromStatuses(es []entity.Status) []StatusResponse {
	out := make([]StatusResponse, 0, len(es))
	for _, e := range es {
		out = append(out, StatusResponse{
			Symbol:           e.Symbol,
			Price:            e.Price,
			Change:           e.Change,
			PercentChange:    e.PercentChange,
			PriceUnavailable: e.PriceUnavailable,
			PriceError:       null.NewString(e.PriceError, e.PriceError != ""),
			Alerts:           FromAlerts(e.Alerts),
			Triggered:        FromAlerts(e.Triggered),
		})
	}
	return out
}
