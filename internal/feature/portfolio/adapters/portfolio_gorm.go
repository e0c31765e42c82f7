// Package adapters はportfolioフィーチャーのgormリポジトリ実装を提供します。
package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stock_insight/internal/feature/portfolio/domain"
	"stock_insight/internal/feature/portfolio/domain/entity"
	"stock_insight/internal/feature/portfolio/usecase"
)

type portfolioGorm struct {
	db *gorm.DB
}

var _ usecase.Store = (*portfolioGorm)(nil)

// NewPortfolioStore は指定されたDB接続でStoreの実装を生成します。
func NewPortfolioStore(db *gorm.DB) *portfolioGorm {
	return &portfolioGorm{db: db}
}

// TransactionModel は追記専用の取引ログです。Seq が適用順を表します。
// 金額は丸めを避けるため文字列で保存します。
type TransactionModel struct {
	Seq        uint            `gorm:"primaryKey;autoIncrement"`
	TxID       string          `gorm:"size:64;not null;uniqueIndex"`
	UserID     uint            `gorm:"not null;index"`
	Symbol     string          `gorm:"size:32;not null"`
	Action     string          `gorm:"size:8;not null"`
	Shares     decimal.Decimal `gorm:"type:varchar(64);not null"`
	Price      decimal.Decimal `gorm:"type:varchar(64);not null"`
	Total      decimal.Decimal `gorm:"type:varchar(64);not null"`
	ExecutedAt time.Time       `gorm:"not null"`
	CreatedAt  time.Time
}

func (TransactionModel) TableName() string {
	return "portfolio_transactions"
}

// HoldingModel は取引ログから導出される保有の射影です。
type HoldingModel struct {
	ID        uint            `gorm:"primaryKey"`
	UserID    uint            `gorm:"not null;uniqueIndex:holding_user_symbol,priority:1"`
	Symbol    string          `gorm:"size:32;not null;uniqueIndex:holding_user_symbol,priority:2"`
	Shares    decimal.Decimal `gorm:"type:varchar(64);not null"`
	AvgCost   decimal.Decimal `gorm:"type:varchar(64);not null"`
	TotalCost decimal.Decimal `gorm:"type:varchar(64);not null"`
	UpdatedAt time.Time
}

func (HoldingModel) TableName() string {
	return "portfolio_holdings"
}

// LogHeadModel はユーザーごとのログの版数です。ログや射影を書き換えるたびに1つ進み、
// Commit は読み込み時の版数と一致する場合だけ成功します（楽観ロック）。
type LogHeadModel struct {
	UserID    uint   `gorm:"primaryKey;autoIncrement:false"`
	Version   uint64 `gorm:"not null"`
	UpdatedAt time.Time
}

func (LogHeadModel) TableName() string {
	return "portfolio_log_heads"
}

func toTransactionModel(userID uint, e entity.Transaction) TransactionModel {
	return TransactionModel{
		TxID:       e.ID,
		UserID:     userID,
		Symbol:     e.Symbol,
		Action:     string(e.Action),
		Shares:     e.Shares,
		Price:      e.Price,
		Total:      e.Total,
		ExecutedAt: e.ExecutedAt.UTC(),
	}
}

// ToEntity はモデルをドメインエンティティに変換します。
func (m TransactionModel) ToEntity() entity.Transaction {
	return entity.Transaction{
		ID:         m.TxID,
		Symbol:     m.Symbol,
		Action:     entity.Action(m.Action),
		Shares:     m.Shares,
		Price:      m.Price,
		Total:      m.Total,
		ExecutedAt: m.ExecutedAt.UTC(),
	}
}

func toHoldingModel(userID uint, e entity.Holding) HoldingModel {
	return HoldingModel{
		UserID:    userID,
		Symbol:    e.Symbol,
		Shares:    e.Shares,
		AvgCost:   e.AvgCost,
		TotalCost: e.TotalCost,
	}
}

// ToEntity はモデルをドメインエンティティに変換します。
func (m HoldingModel) ToEntity() entity.Holding {
	return entity.Holding{
		Symbol:    m.Symbol,
		Shares:    m.Shares,
		AvgCost:   m.AvgCost,
		TotalCost: m.TotalCost,
	}
}

// ListTransactions はユーザーの取引ログを適用順で返します。
func (r *portfolioGorm) ListTransactions(ctx context.Context, userID uint) ([]entity.Transaction, error) {
	var rows []TransactionModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("seq ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.Transaction, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.ToEntity())
	}
	return out, nil
}

// ListHoldings は保有射影を銘柄順で返します。
func (r *portfolioGorm) ListHoldings(ctx context.Context, userID uint) ([]entity.Holding, error) {
	var rows []HoldingModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("symbol ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.Holding, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.ToEntity())
	}
	return out, nil
}

// LogVersion はユーザーのログの現在の版数を返します。未作成なら0です。
func (r *portfolioGorm) LogVersion(ctx context.Context, userID uint) (uint64, error) {
	var head LogHeadModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Limit(1).
		Find(&head).Error; err != nil {
		return 0, err
	}
	return head.Version, nil
}

// advanceVersion は版数が version のままなら1つ進めます。
// 別の書き手が先に進めていれば domain.ErrConcurrentUpdate を返します。
func advanceVersion(tx *gorm.DB, userID uint, version uint64) error {
	var res *gorm.DB
	if version == 0 {
		res = tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&LogHeadModel{UserID: userID, Version: 1})
	} else {
		res = tx.Model(&LogHeadModel{}).
			Where("user_id = ? AND version = ?", userID, version).
			Updates(map[string]any{"version": gorm.Expr("version + 1"), "updated_at": time.Now().UTC()})
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %d at version %d: %w", userID, version, domain.ErrConcurrentUpdate)
	}
	return nil
}

// Commit はログ追記と射影の置き換えを1トランザクションで行います。
// version は呼び出し側がログを読んだ時点の LogVersion です。
func (r *portfolioGorm) Commit(ctx context.Context, userID uint, version uint64, appended []entity.Transaction, holdings []entity.Holding) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := advanceVersion(tx, userID, version); err != nil {
			return err
		}
		if len(appended) > 0 {
			ms := make([]TransactionModel, 0, len(appended))
			for _, e := range appended {
				ms = append(ms, toTransactionModel(userID, e))
			}
			if err := tx.Create(&ms).Error; err != nil {
				return err
			}
		}

		// 射影に残らない銘柄（全株売却済み）を削除
		keep := make([]string, 0, len(holdings))
		for _, h := range holdings {
			keep = append(keep, h.Symbol)
		}
		del := tx.Where("user_id = ?", userID)
		if len(keep) > 0 {
			del = del.Where("symbol NOT IN ?", keep)
		}
		if err := del.Delete(&HoldingModel{}).Error; err != nil {
			return err
		}

		if len(holdings) == 0 {
			return nil
		}
		hs := make([]HoldingModel, 0, len(holdings))
		for _, h := range holdings {
			hs = append(hs, toHoldingModel(userID, h))
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "symbol"}},
			DoUpdates: clause.AssignmentColumns([]string{"shares", "avg_cost", "total_cost", "updated_at"}),
		}).Create(&hs).Error
	})
}

// Clear はユーザーのログと射影を削除します。
// 版数は進めるだけで消さないため、削除前に読んだ書き手の Commit は失敗します。
func (r *portfolioGorm) Clear(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&LogHeadModel{}).
			Where("user_id = ?", userID).
			Updates(map[string]any{"version": gorm.Expr("version + 1"), "updated_at": time.Now().UTC()}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&TransactionModel{}).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", userID).Delete(&HoldingModel{}).Error
	})
}
