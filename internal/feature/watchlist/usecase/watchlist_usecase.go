// Package usecase はウォッチリストと価格アラートのビジネスロジックを実装します。
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	portfolioentity "stock_insight/internal/feature/portfolio/domain/entity"
	"stock_insight/internal/feature/watchlist/domain"
	"stock_insight/internal/feature/watchlist/domain/entity"
)

// maxSymbolLen は保存列の長さに合わせた銘柄コードの上限です。
const maxSymbolLen = 32

// Store はウォッチリストとアラートの永続化を抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type Store interface {
	// AddItem は銘柄を追加します。既にあれば domain.ErrAlreadyWatched。
	AddItem(ctx context.Context, userID uint, item entity.Item) error
	// ListItems は追加の新しい順で返します。
	ListItems(ctx context.Context, userID uint) ([]entity.Item, error)
	// RemoveItem は銘柄とそのアラートを削除します。なければ domain.ErrNotWatched。
	RemoveItem(ctx context.Context, userID uint, symbol string) error
	// AddAlert はアラートを保存し、ID を採番して返します。
	AddAlert(ctx context.Context, userID uint, alert entity.Alert) (entity.Alert, error)
	// ListAlerts は作成順で返します。
	ListAlerts(ctx context.Context, userID uint) ([]entity.Alert, error)
	// RemoveAlert はアラートを削除します。なければ domain.ErrAlertNotFound。
	RemoveAlert(ctx context.Context, userID uint, id uint) error
	// MarkTriggered は未記録のアラートに初回発火時刻を記録します。
	MarkTriggered(ctx context.Context, userID uint, ids []uint, at time.Time) error
}

// QuoteProvider は現在値の取得を抽象化します。
type QuoteProvider interface {
	GetQuote(ctx context.Context, symbol string) (portfolioentity.Quote, error)
}

type watchlistUsecase struct {
	store  Store
	quotes QuoteProvider
	now    func() time.Time
}

// NewWatchlistUsecase はwatchlistUsecaseの新しいインスタンスを生成します。
func NewWatchlistUsecase(store Store, quotes QuoteProvider) *watchlistUsecase {
	return &watchlistUsecase{
		store:  store,
		quotes: quotes,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock はテスト用に現在時刻を差し替えます。
func (u *watchlistUsecase) WithClock(now func() time.Time) *watchlistUsecase {
	u.now = now
	return u
}

func normalizeSymbol(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" || len(s) > maxSymbolLen {
		return "", fmt.Errorf("symbol %q: %w", s, domain.ErrInvalidInput)
	}
	return s, nil
}

// Add は銘柄をウォッチリストに追加します。
func (u *watchlistUsecase) Add(ctx context.Context, userID uint, symbol string) (entity.Item, error) {
	sym, err := normalizeSymbol(symbol)
	if err != nil {
		return entity.Item{}, err
	}
	item := entity.Item{Symbol: sym, AddedAt: u.now()}
	if err := u.store.AddItem(ctx, userID, item); err != nil {
		return entity.Item{}, fmt.Errorf("add %s: %w", sym, err)
	}
	return item, nil
}

// List はウォッチリストを返します。
func (u *watchlistUsecase) List(ctx context.Context, userID uint) ([]entity.Item, error) {
	return u.store.ListItems(ctx, userID)
}

// Remove は銘柄とそのアラートを削除します。
func (u *watchlistUsecase) Remove(ctx context.Context, userID uint, symbol string) error {
	sym, err := normalizeSymbol(symbol)
	if err != nil {
		return err
	}
	if err := u.store.RemoveItem(ctx, userID, sym); err != nil {
		return fmt.Errorf("remove %s: %w", sym, err)
	}
	return nil
}

// AddAlert はウォッチ中の銘柄に価格アラートを設定します。
func (u *watchlistUsecase) AddAlert(ctx context.Context, userID uint, symbol, condition string, target decimal.Decimal) (entity.Alert, error) {
	sym, err := normalizeSymbol(symbol)
	if err != nil {
		return entity.Alert{}, err
	}
	cond, err := entity.ParseCondition(condition)
	if err != nil {
		return entity.Alert{}, err
	}
	if !target.IsPositive() {
		return entity.Alert{}, fmt.Errorf("target price %s must be positive: %w", target, domain.ErrInvalidInput)
	}

	items, err := u.store.ListItems(ctx, userID)
	if err != nil {
		return entity.Alert{}, err
	}
	if !containsSymbol(items, sym) {
		return entity.Alert{}, fmt.Errorf("alert on %s: %w", sym, domain.ErrNotWatched)
	}

	return u.store.AddAlert(ctx, userID, entity.Alert{
		Symbol:      sym,
		Condition:   cond,
		TargetPrice: target,
		CreatedAt:   u.now(),
	})
}

// Alerts は設定済みのアラートを返します。
func (u *watchlistUsecase) Alerts(ctx context.Context, userID uint) ([]entity.Alert, error) {
	return u.store.ListAlerts(ctx, userID)
}

// RemoveAlert はアラートを削除します。
func (u *watchlistUsecase) RemoveAlert(ctx context.Context, userID uint, id uint) error {
	return u.store.RemoveAlert(ctx, userID, id)
}

// Check はウォッチ中の各銘柄の現在値を取得し、アラートを評価します。
// 現在値が取れない銘柄は PriceUnavailable を立てて続行し、全体は失敗させません。
// 初めて発火したアラートには発火時刻を記録します。
func (u *watchlistUsecase) Check(ctx context.Context, userID uint) ([]entity.Status, error) {
	items, err := u.store.ListItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	alerts, err := u.store.ListAlerts(ctx, userID)
	if err != nil {
		return nil, err
	}
	bySymbol := make(map[string][]entity.Alert, len(items))
	for _, a := range alerts {
		bySymbol[a.Symbol] = append(bySymbol[a.Symbol], a)
	}

	now := u.now()
	var fresh []uint
	out := make([]entity.Status, 0, len(items))
	for _, it := range items {
		st := entity.Status{
			Symbol:        it.Symbol,
			Price:         decimal.Zero,
			Change:        decimal.Zero,
			PercentChange: decimal.Zero,
			Alerts:        bySymbol[it.Symbol],
			Triggered:     []entity.Alert{},
		}
		q, err := u.quotes.GetQuote(ctx, it.Symbol)
		if err != nil {
			st.PriceUnavailable = true
			st.PriceError = err.Error()
			slog.Warn("price unavailable during watchlist check", "user_id", userID, "symbol", it.Symbol, "error", err)
			out = append(out, st)
			continue
		}
		st.Price, st.Change, st.PercentChange = q.Price, q.Change, q.PercentChange
		for i := range st.Alerts {
			a := &st.Alerts[i]
			if !a.Triggered(q.Price) {
				continue
			}
			if a.TriggeredAt == nil {
				fresh = append(fresh, a.ID)
				a.TriggeredAt = &now
			}
			st.Triggered = append(st.Triggered, *a)
		}
		out = append(out, st)
	}

	if len(fresh) > 0 {
		if err := u.store.MarkTriggered(ctx, userID, fresh, now); err != nil {
			// 評価結果は返せるので記録失敗はログに留める
			slog.Error("failed to record triggered alerts", "user_id", userID, "alerts", fresh, "error", err)
		}
	}
	return out, nil
}

func containsSymbol(items []entity.Item, symbol string) bool {
	for _, it := range items {
		if it.Symbol == symbol {
			return true
		}
	}
	return false
}
