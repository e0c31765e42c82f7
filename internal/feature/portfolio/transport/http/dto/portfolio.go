// Package dto はportfolioフィーチャーのリクエスト/レスポンスDTOです。
// 金額は精度を保つため decimal の文字列表現で返します。
package dto

import (
	"time"

	"github.com/guregu/null/v5"
	"github.com/shopspring/decimal"

	candledto "stock_insight/internal/feature/candles/transport/http/dto"
	"stock_insight/internal/feature/portfolio/domain/entity"
)

// TransactionRequest は取引登録のリクエストです。shares/price は数値・文字列どちらも受け付けます。
type TransactionRequest struct {
	Symbol     string          `json:"symbol" binding:"required"`
	Action     string          `json:"action" binding:"required"`
	Shares     decimal.Decimal `json:"shares"`
	Price      decimal.Decimal `json:"price"`
	ExecutedAt *time.Time      `json:"executed_at"`
}

// TransactionItem は取引ログ1件です。インポートでも同じ形を使います。
type TransactionItem struct {
	ID         string          `json:"id"`
	Symbol     string          `json:"symbol"`
	Action     string          `json:"action"`
	Shares     decimal.Decimal `json:"shares"`
	Price      decimal.Decimal `json:"price"`
	Total      decimal.Decimal `json:"total"`
	ExecutedAt time.Time       `json:"executed_at"`
}

// HoldingItem は保有1件です。
type HoldingItem struct {
	Symbol    string          `json:"symbol"`
	Shares    decimal.Decimal `json:"shares"`
	AvgCost   decimal.Decimal `json:"avg_cost"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

// ApplyResponse は取引適用の結果です。全株売却時 holding は null です。
type ApplyResponse struct {
	Transaction TransactionItem `json:"transaction"`
	Holding     *HoldingItem    `json:"holding"`
}

// HoldingValuationItem は時価評価済みの保有です。
type HoldingValuationItem struct {
	Symbol           string          `json:"symbol"`
	Shares           decimal.Decimal `json:"shares"`
	AvgCost          decimal.Decimal `json:"avg_cost"`
	CostBasis        decimal.Decimal `json:"cost_basis"`
	CurrentPrice     decimal.Decimal `json:"current_price"`
	CurrentValue     decimal.Decimal `json:"current_value"`
	GainLoss         decimal.Decimal `json:"gain_loss"`
	GainLossPct      decimal.Decimal `json:"gain_loss_pct"`
	DayChange        decimal.Decimal `json:"day_change"`
	DayChangePct     decimal.Decimal `json:"day_change_pct"`
	PriceUnavailable bool            `json:"price_unavailable"`
	PriceError       null.String     `json:"price_error"`
}

// ValuationResponse はポートフォリオ評価のスナップショットです。
type ValuationResponse struct {
	TotalValue       decimal.Decimal        `json:"total_value"`
	TotalCost        decimal.Decimal        `json:"total_cost"`
	TotalGainLoss    decimal.Decimal        `json:"total_gain_loss"`
	TotalGainLossPct decimal.Decimal        `json:"total_gain_loss_pct"`
	Holdings         []HoldingValuationItem `json:"holdings"`
	AsOf             time.Time              `json:"as_of"`
}

// ExportResponse は保有と取引ログのエクスポートです。
type ExportResponse struct {
	Holdings     []HoldingItem     `json:"holdings"`
	Transactions []TransactionItem `json:"transactions"`
	ExportedAt   time.Time         `json:"exported_at"`
}

// ImportRequest は ExportResponse と互換のインポート入力です。holdings は無視されます。
type ImportRequest struct {
	Transactions []TransactionItem `json:"transactions" binding:"required"`
}

// ImportResponse はインポート件数です。
type ImportResponse struct {
	Imported int `json:"imported"`
}

// RebuildResponse はログからの再構築結果です。
type RebuildResponse struct {
	Diverged bool          `json:"diverged"`
	Holdings []HoldingItem `json:"holdings"`
	Stored   []HoldingItem `json:"stored"`
}

// PerformancePoint は時点ごとの評価額です。
type PerformancePoint struct {
	Time     string                     `json:"time"`
	Total    decimal.Decimal            `json:"total"`
	BySymbol map[string]decimal.Decimal `json:"by_symbol"`
}

// FromPerformance は評価額の推移を変換します。
// 時刻はローソク足と同じ規則（UTC 0時なら日付、それ以外は RFC3339）で整形します。
func FromPerformance(pts []entity.PerformancePoint) []PerformancePoint {
	out := make([]PerformancePoint, 0, len(pts))
	for _, p := range pts {
		out = append(out, PerformancePoint{
			Time:     candledto.FormatTime(p.Time),
			Total:    p.Total,
			BySymbol: p.BySymbol,
		})
	}
	return out
}

// FromTransaction はエンティティをDTOに変換します。
func FromTransaction(e entity.Transaction) TransactionItem {
	return TransactionItem{
		ID:         e.ID,
		Symbol:     e.Symbol,
		Action:     string(e.Action),
		Shares:     e.Shares,
		Price:      e.Price,
		Total:      e.Total,
		ExecutedAt: e.ExecutedAt,
	}
}

// FromTransactions はスライスを変換します。nil は空配列になります。
func FromTransactions(es []entity.Transaction) []TransactionItem {
	out := make([]TransactionItem, 0, len(es))
	for _, e := range es {
		out = append(out, FromTransaction(e))
	}
	return out
}

// FromHolding はエンティティをDTOに変換します。
func FromHolding(e entity.Holding) HoldingItem {
	return HoldingItem{Symbol: e.Symbol, Shares: e.Shares, AvgCost: e.AvgCost, TotalCost: e.TotalCost}
}

// FromHoldings はスライスを変換します。nil は空配列になります。
func FromHoldings(es []entity.Holding) []HoldingItem {
	out := make([]HoldingItem, 0, len(es))
	for _, e := range es {
		out = append(out, FromHolding(e))
	}
	return out
}

// FromValuation はエンティティをDTOに変換します。
func FromValuation(v entity.Valuation) ValuationResponse {
	items := make([]HoldingValuationItem, 0, len(v.Holdings))
	for _, h := range v.Holdings {
		items = append(items, HoldingValuationItem{
			Symbol:           h.Symbol,
			Shares:           h.Shares,
			AvgCost:          h.AvgCost,
			CostBasis:        h.CostBasis,
			CurrentPrice:     h.CurrentPrice,
			CurrentValue:     h.CurrentValue,
			GainLoss:         h.GainLoss,
			GainLossPct:      h.GainLossPct.Round(4),
			DayChange:        h.DayChange,
			DayChangePct:     h.DayChangePct,
			PriceUnavailable: h.PriceUnavailable,
			PriceError:       null.NewString(h.PriceError, h.PriceError != ""),
		})
	}
	return ValuationResponse{
		TotalValue:       v.TotalValue,
		TotalCost:        v.TotalCost,
		TotalGainLoss:    v.TotalGainLoss,
		TotalGainLossPct: v.TotalGainLossPct.Round(4),
		Holdings:         items,
		AsOf:             v.AsOf,
	}
}

// ToTransactions はインポート入力をエンティティに変換します。total は再計算されます。
func (r ImportRequest) ToTransactions() []entity.Transaction {
	out := make([]entity.Transaction, 0, len(r.Transactions))
	for _, t := range r.Transactions {
		out = append(out, entity.Transaction{
			ID:         t.ID,
			Symbol:     t.Symbol,
			Action:     entity.Action(t.Action),
			Shares:     t.Shares,
			Price:      t.Price,
			ExecutedAt: t.ExecutedAt,
		})
	}
	return out
}
