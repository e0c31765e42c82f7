// Package adapters はcandlesフィーチャーの永続化実装（gorm）を提供します。
package adapters

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stock_insight/internal/feature/candles/domain/entity"
	"stock_insight/internal/feature/candles/usecase"
)

type candleGorm struct {
	db *gorm.DB
}

var (
	_ usecase.CandleRepository = (*candleGorm)(nil)
	_ usecase.CandleWriter     = (*candleGorm)(nil)
)

// NewCandleRepository はgormベースのローソク足リポジトリを生成します。sqlite / postgres のどちらでも動きます。
func NewCandleRepository(db *gorm.DB) *candleGorm {
	return &candleGorm{db: db}
}

// CandleModel は candles テーブルの行です。(symbol, interval, time) で一意です。
type CandleModel struct {
	ID       uint      `gorm:"primaryKey"`
	Symbol   string    `gorm:"size:32;not null;uniqueIndex:candle_sym_int_time,priority:1"`
	Interval string    `gorm:"size:16;not null;uniqueIndex:candle_sym_int_time,priority:2"`
	Time     time.Time `gorm:"not null;uniqueIndex:candle_sym_int_time,priority:3"`

	Open   float64 `gorm:"not null"`
	High   float64 `gorm:"not null"`
	Low    float64 `gorm:"not null"`
	Close  float64 `gorm:"not null"`
	Volume int64   `gorm:"not null;default:0"`
}

func (CandleModel) TableName() string {
	return "candles"
}

func toModel(e entity.Candle) CandleModel {
	return CandleModel{
		Symbol:   e.Symbol,
		Interval: e.Interval,
		Time:     e.Time.UTC(),
		Open:     e.Open,
		High:     e.High,
		Low:      e.Low,
		Close:    e.Close,
		Volume:   e.Volume,
	}
}

// ToEntity はモデルをドメインエンティティに変換します。
func (m CandleModel) ToEntity() entity.Candle {
	return entity.Candle{
		Symbol:   m.Symbol,
		Interval: m.Interval,
		Time:     m.Time.UTC(),
		Open:     m.Open,
		High:     m.High,
		Low:      m.Low,
		Close:    m.Close,
		Volume:   m.Volume,
	}
}

// UpsertBatch は (symbol, interval, time) が衝突した行を上書きしつつ一括保存します。
func (r *candleGorm) UpsertBatch(ctx context.Context, candles []entity.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	ms := make([]CandleModel, 0, len(candles))
	for _, e := range candles {
		ms = append(ms, toModel(e))
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "interval"}, {Name: "time"}},
		DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume"}),
	}).Create(&ms).Error
}

// Find は新しい順に最大 outputsize 件を返します。outputsize <= 0 は全件です。
// interval は postgres の予約語なので、列名は map 条件と clause で方言ごとにクォートさせます。
func (r *candleGorm) Find(ctx context.Context, symbol, interval string, outputsize int) ([]entity.Candle, error) {
	var rows []CandleModel
	q := r.db.WithContext(ctx).
		Where(map[string]any{"symbol": symbol, "interval": interval}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "time"}, Desc: true})
	if outputsize > 0 {
		q = q.Limit(outputsize)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.Candle, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.ToEntity())
	}
	return out, nil
}
