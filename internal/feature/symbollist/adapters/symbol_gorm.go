// Package adapters はsymbollistフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stock_insight/internal/feature/symbollist/domain/entity"
	"stock_insight/internal/feature/symbollist/usecase"
)

// SymbolModel は symbols テーブルの行です。
type SymbolModel struct {
	ID        uint      `gorm:"primaryKey"`
	Code      string    `gorm:"size:20;not null;uniqueIndex"`
	Name      string    `gorm:"size:255;not null"`
	Market    string    `gorm:"size:100;not null"`
	IsActive  bool      `gorm:"not null;default:true"`
	SortKey   int       `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (SymbolModel) TableName() string {
	return "symbols"
}

// ToEntity はモデルをドメインエンティティに変換します。
func (m SymbolModel) ToEntity() entity.Symbol {
	return entity.Symbol{Code: m.Code, Name: m.Name, Market: m.Market, IsActive: m.IsActive, SortKey: m.SortKey}
}

// symbolGorm はSymbolRepositoryインターフェースのgorm実装です。
type symbolGorm struct {
	db *gorm.DB
}

var _ usecase.SymbolRepository = (*symbolGorm)(nil)

// NewSymbolRepository は指定されたDB接続でリポジトリの新しいインスタンスを生成します。
func NewSymbolRepository(db *gorm.DB) *symbolGorm {
	return &symbolGorm{db: db}
}

func (r *symbolGorm) active(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&SymbolModel{}).
		Where(map[string]any{"is_active": true}).
		Order("sort_key ASC").Order("code ASC")
}

func toEntities(rows []SymbolModel) []entity.Symbol {
	out := make([]entity.Symbol, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.ToEntity())
	}
	return out
}

// ListActive はsort_key順にすべてのアクティブな銘柄を返します。
func (r *symbolGorm) ListActive(ctx context.Context) ([]entity.Symbol, error) {
	var rows []SymbolModel
	if err := r.active(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toEntities(rows), nil
}

// ListActiveCodes はsort_key順にアクティブな銘柄のコードのみを返します。
func (r *symbolGorm) ListActiveCodes(ctx context.Context) ([]string, error) {
	var codes []string
	if err := r.active(ctx).Pluck("code", &codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

// SearchActive はコードまたは銘柄名に q を含むアクティブな銘柄を返します（大文字小文字を区別しない）。
// 並び替えは usecase 側で行います。
func (r *symbolGorm) SearchActive(ctx context.Context, q string) ([]entity.Symbol, error) {
	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
	var rows []SymbolModel
	if err := r.active(ctx).
		Where(`LOWER(code) LIKE ? ESCAPE '\' OR LOWER(name) LIKE ? ESCAPE '\'`, pattern, pattern).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toEntities(rows), nil
}

// Upsert はコードをキーに銘柄を登録または更新します。
func (r *symbolGorm) Upsert(ctx context.Context, symbols []entity.Symbol) error {
	if len(symbols) == 0 {
		return nil
	}
	ms := make([]SymbolModel, 0, len(symbols))
	for _, s := range symbols {
		ms = append(ms, SymbolModel{Code: s.Code, Name: s.Name, Market: s.Market, IsActive: s.IsActive, SortKey: s.SortKey})
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "market", "is_active", "sort_key", "updated_at"}),
	}).Create(&ms).Error
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
