// Package adapters はwatchlistフィーチャーのgormリポジトリ実装を提供します。
package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stock_insight/internal/feature/watchlist/domain"
	"stock_insight/internal/feature/watchlist/domain/entity"
	"stock_insight/internal/feature/watchlist/usecase"
)

type watchlistGorm struct {
	db *gorm.DB
}

var _ usecase.Store = (*watchlistGorm)(nil)

// NewWatchlistStore は指定されたDB接続でStoreの実装を生成します。
func NewWatchlistStore(db *gorm.DB) *watchlistGorm {
	return &watchlistGorm{db: db}
}

// WatchlistItemModel はユーザーがウォッチする銘柄です。(user_id, symbol) は一意です。
type WatchlistItemModel struct {
	ID      uint      `gorm:"primaryKey"`
	UserID  uint      `gorm:"not null;uniqueIndex:watchlist_user_symbol,priority:1"`
	Symbol  string    `gorm:"size:32;not null;uniqueIndex:watchlist_user_symbol,priority:2"`
	AddedAt time.Time `gorm:"not null"`
}

func (WatchlistItemModel) TableName() string {
	return "watchlist_items"
}

// PriceAlertModel は銘柄ごとの価格アラートです。目標価格は文字列で保存します。
type PriceAlertModel struct {
	ID          uint            `gorm:"primaryKey"`
	UserID      uint            `gorm:"not null;index:price_alert_user_symbol,priority:1"`
	Symbol      string          `gorm:"size:32;not null;index:price_alert_user_symbol,priority:2"`
	Condition   string          `gorm:"size:8;not null"`
	TargetPrice decimal.Decimal `gorm:"type:varchar(64);not null"`
	CreatedAt   time.Time
	TriggeredAt *time.Time
}

func (PriceAlertModel) TableName() string {
	return "price_alerts"
}

// ToEntity はモデルをドメインエンティティに変換します。
func (m WatchlistItemModel) ToEntity() entity.Item {
	return entity.Item{Symbol: m.Symbol, AddedAt: m.AddedAt.UTC()}
}

// ToEntity はモデルをドメインエンティティに変換します。
func (m PriceAlertModel) ToEntity() entity.Alert {
	a := entity.Alert{
		ID:          m.ID,
		Symbol:      m.Symbol,
		Condition:   entity.Condition(m.Condition),
		TargetPrice: m.TargetPrice,
		CreatedAt:   m.CreatedAt.UTC(),
	}
	if m.TriggeredAt != nil {
		t := m.TriggeredAt.UTC()
		a.TriggeredAt = &t
	}
	return a
}

// AddItem は銘柄を追加します。一意制約に当たった場合は ErrAlreadyWatched を返します。
func (r *watchlistGorm) AddItem(ctx context.Context, userID uint, item entity.Item) error {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&WatchlistItemModel{UserID: userID, Symbol: item.Symbol, AddedAt: item.AddedAt.UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrAlreadyWatched
	}
	return nil
}

// ListItems はウォッチリストを追加の新しい順で返します。
func (r *watchlistGorm) ListItems(ctx context.Context, userID uint) ([]entity.Item, error) {
	var rows []WatchlistItemModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("added_at DESC").
		Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.Item, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.ToEntity())
	}
	return out, nil
}

// RemoveItem は銘柄とそのアラートを1トランザクションで削除します。
func (r *watchlistGorm) RemoveItem(ctx context.Context, userID uint, symbol string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND symbol = ?", userID, symbol).Delete(&WatchlistItemModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotWatched
		}
		return tx.Where("user_id = ? AND symbol = ?", userID, symbol).Delete(&PriceAlertModel{}).Error
	})
}

// AddAlert はアラートを保存し、採番済みのエンティティを返します。
func (r *watchlistGorm) AddAlert(ctx context.Context, userID uint, alert entity.Alert) (entity.Alert, error) {
	m := PriceAlertModel{
		UserID:      userID,
		Symbol:      alert.Symbol,
		Condition:   string(alert.Condition),
		TargetPrice: alert.TargetPrice,
		CreatedAt:   alert.CreatedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return entity.Alert{}, fmt.Errorf("create alert: %w", err)
	}
	return m.ToEntity(), nil
}

// ListAlerts はアラートを作成順で返します。
func (r *watchlistGorm) ListAlerts(ctx context.Context, userID uint) ([]entity.Alert, error) {
	var rows []PriceAlertModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.Alert, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.ToEntity())
	}
	return out, nil
}

// RemoveAlert はユーザー自身のアラートだけを削除します。
func (r *watchlistGorm) RemoveAlert(ctx context.Context, userID uint, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&PriceAlertModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("alert %d: %w", id, domain.ErrAlertNotFound)
	}
	return nil
}

// MarkTriggered は発火時刻が未記録のアラートにだけ at を記録します。
func (r *watchlistGorm) MarkTriggered(ctx context.Context, userID uint, ids []uint, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&PriceAlertModel{}).
		Where("user_id = ? AND id IN ? AND triggered_at IS NULL", userID, ids).
		Update("triggered_at", at.UTC()).Error
}
