// Package usecase はポートフォリオ台帳のビジネスロジックを実装します。
//
// 取引ログが唯一の正であり、保有（holdings）はログを畳み込んだ射影です。
// 書き込みはユーザー単位で直列化され、ログ追記と射影の更新は
// Store.Commit の単一トランザクションで行われます。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	candleentity "stock_insight/internal/feature/candles/domain/entity"
	candleusecase "stock_insight/internal/feature/candles/usecase"
	"stock_insight/internal/feature/portfolio/domain"
	"stock_insight/internal/feature/portfolio/domain/entity"
	"stock_insight/internal/feature/portfolio/domain/ledger"
	"stock_insight/internal/shared/userlock"
)

// Store は取引ログと保有射影の永続化を抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type Store interface {
	// ListTransactions はユーザーの取引ログを適用順で返します。
	ListTransactions(ctx context.Context, userID uint) ([]entity.Transaction, error)
	// ListHoldings は保存済みの保有射影を銘柄順で返します。
	ListHoldings(ctx context.Context, userID uint) ([]entity.Holding, error)
	// LogVersion はログの版数です。Commit と Clear のたびに進みます。
	LogVersion(ctx context.Context, userID uint) (uint64, error)
	// Commit は appended をログに追記し、保有射影を holdings で置き換えます。
	// 両方が成功するか、どちらも反映されないかのいずれかです。
	// 版数が version から進んでいれば domain.ErrConcurrentUpdate を返し、何も書きません。
	Commit(ctx context.Context, userID uint, version uint64, appended []entity.Transaction, holdings []entity.Holding) error
	// Clear はユーザーのログと射影を削除します。
	Clear(ctx context.Context, userID uint) error
}

// QuoteProvider は現在値の取得を抽象化します。
type QuoteProvider interface {
	GetQuote(ctx context.Context, symbol string) (entity.Quote, error)
}

// CandleReader はパフォーマンス算出用の過去終値を読み取ります。
type CandleReader interface {
	Find(ctx context.Context, symbol, interval string, outputsize int) ([]candleentity.Candle, error)
}

// TransactionRequest は取引の入力です。
type TransactionRequest struct {
	Symbol     string
	Action     string
	Shares     decimal.Decimal
	Price      decimal.Decimal
	ExecutedAt time.Time // ゼロ値なら現在時刻
}

// ApplyResult は取引適用後の状態です。Holding は全株売却で消えた場合 nil です。
type ApplyResult struct {
	Transaction entity.Transaction
	Holding     *entity.Holding
}

// Snapshot はエクスポート用の保有と取引ログです。
type Snapshot struct {
	Holdings     []entity.Holding
	Transactions []entity.Transaction
	ExportedAt   time.Time
}

// RebuildResult はログから射影を再構築した結果です。
type RebuildResult struct {
	Holdings []entity.Holding
	Stored   []entity.Holding
	Diverged bool
}

// maxCommitAttempts は別プロセスとの競合時に読み直して再試行する上限です。
const maxCommitAttempts = 3

type portfolioUsecase struct {
	store   Store
	quotes  QuoteProvider
	candles CandleReader
	locks   *userlock.Locks
	now     func() time.Time
	newID   func() string
}

// NewPortfolioUsecase はportfolioUsecaseの新しいインスタンスを生成します。
func NewPortfolioUsecase(store Store, quotes QuoteProvider, candles CandleReader) *portfolioUsecase {
	return &portfolioUsecase{
		store:   store,
		quotes:  quotes,
		candles: candles,
		locks:   userlock.New(),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   func() string { return uuid.NewString() },
	}
}

// WithClock はテスト用に現在時刻とID生成を差し替えます。
func (u *portfolioUsecase) WithClock(now func() time.Time, newID func() string) *portfolioUsecase {
	u.now = now
	u.newID = newID
	return u
}

// ApplyTransaction はログを再生した台帳に取引を適用し、成功時のみ永続化します。
func (u *portfolioUsecase) ApplyTransaction(ctx context.Context, userID uint, req TransactionRequest) (ApplyResult, error) {
	action, err := entity.ParseAction(req.Action)
	if err != nil {
		return ApplyResult{}, err
	}

	unlock := u.locks.Lock(userID)
	defer unlock()

	at := req.ExecutedAt
	if at.IsZero() {
		at = u.now()
	}
	tx := entity.Transaction{
		ID:         u.newID(),
		Symbol:     req.Symbol,
		Action:     action,
		Shares:     req.Shares,
		Price:      req.Price,
		ExecutedAt: at.UTC(),
	}

	var res ApplyResult
	err = u.retryOnConflict(ctx, userID, func(l *ledger.Ledger, version uint64) error {
		applied, err := l.Apply(tx)
		if err != nil {
			return err
		}
		if err := u.store.Commit(ctx, userID, version, []entity.Transaction{applied}, l.Holdings()); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		res = ApplyResult{Transaction: applied}
		if h, ok := l.Holding(applied.Symbol); ok {
			res.Holding = &h
		}
		return nil
	})
	if err != nil {
		return ApplyResult{}, err
	}
	slog.Info("portfolio transaction applied",
		"user_id", userID, "symbol", res.Transaction.Symbol, "action", res.Transaction.Action,
		"shares", res.Transaction.Shares.String(), "price", res.Transaction.Price.String())
	return res, nil
}

// Holdings は保有射影を返します。
func (u *portfolioUsecase) Holdings(ctx context.Context, userID uint) ([]entity.Holding, error) {
	return u.store.ListHoldings(ctx, userID)
}

// Transactions は取引ログを返します。
func (u *portfolioUsecase) Transactions(ctx context.Context, userID uint) ([]entity.Transaction, error) {
	return u.store.ListTransactions(ctx, userID)
}

// Valuation は保有を現在値で評価します。価格取得の失敗は銘柄単位で扱い、全体は失敗させません。
func (u *portfolioUsecase) Valuation(ctx context.Context, userID uint) (entity.Valuation, error) {
	holdings, err := u.store.ListHoldings(ctx, userID)
	if err != nil {
		return entity.Valuation{}, err
	}
	v := ledger.Value(ctx, holdings, u.quotes.GetQuote)
	v.AsOf = u.now()
	for _, h := range v.Holdings {
		if h.PriceUnavailable {
			slog.Warn("price unavailable during valuation", "user_id", userID, "symbol", h.Symbol, "error", h.PriceError)
		}
	}
	return v, nil
}

// ExportCSV は取引ログをCSVで書き出します。
func (u *portfolioUsecase) ExportCSV(ctx context.Context, userID uint, w io.Writer) error {
	txs, err := u.store.ListTransactions(ctx, userID)
	if err != nil {
		return err
	}
	return ledger.WriteCSV(w, txs)
}

// Export は保有と取引ログのスナップショットを返します。
func (u *portfolioUsecase) Export(ctx context.Context, userID uint) (Snapshot, error) {
	txs, err := u.store.ListTransactions(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	holdings, err := u.store.ListHoldings(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Holdings: holdings, Transactions: txs, ExportedAt: u.now()}, nil
}

// Import は既存ログの後ろに txs を追記します。
// 既存ログ＋txs 全体を再生し、1件でも失敗すれば何も保存しません。
func (u *portfolioUsecase) Import(ctx context.Context, userID uint, txs []entity.Transaction) (int, error) {
	unlock := u.locks.Lock(userID)
	defer unlock()

	var appended []entity.Transaction
	err := u.retryOnConflict(ctx, userID, func(l *ledger.Ledger, version uint64) error {
		seen := make(map[string]struct{}, len(l.Transactions())+len(txs))
		for _, tx := range l.Transactions() {
			seen[tx.ID] = struct{}{}
		}
		appended = make([]entity.Transaction, 0, len(txs))
		for i, tx := range txs {
			if strings.TrimSpace(tx.ID) == "" {
				tx.ID = u.newID()
			}
			if _, dup := seen[tx.ID]; dup {
				return fmt.Errorf("import row %d: duplicate id %q: %w", i, tx.ID, domain.ErrInvalidInput)
			}
			seen[tx.ID] = struct{}{}
			if tx.ExecutedAt.IsZero() {
				tx.ExecutedAt = u.now()
			}
			applied, err := l.Apply(tx)
			if err != nil {
				return fmt.Errorf("import row %d: %w", i, err)
			}
			appended = append(appended, applied)
		}
		if err := u.store.Commit(ctx, userID, version, appended, l.Holdings()); err != nil {
			return fmt.Errorf("commit import: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	slog.Info("portfolio imported", "user_id", userID, "transactions", len(appended))
	return len(appended), nil
}

// ImportCSV は ExportCSV 形式のログを取り込みます。
func (u *portfolioUsecase) ImportCSV(ctx context.Context, userID uint, r io.Reader) (int, error) {
	txs, err := ledger.ReadCSV(r)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return u.Import(ctx, userID, txs)
}

// Clear はユーザーのログと保有を削除します。
func (u *portfolioUsecase) Clear(ctx context.Context, userID uint) error {
	unlock := u.locks.Lock(userID)
	defer unlock()
	if err := u.store.Clear(ctx, userID); err != nil {
		return err
	}
	slog.Info("portfolio cleared", "user_id", userID)
	return nil
}

// Rebuild はログから保有射影を再計算して保存し、保存済み射影との乖離を報告します。
func (u *portfolioUsecase) Rebuild(ctx context.Context, userID uint) (RebuildResult, error) {
	unlock := u.locks.Lock(userID)
	defer unlock()

	var res RebuildResult
	err := u.retryOnConflict(ctx, userID, func(l *ledger.Ledger, version uint64) error {
		stored, err := u.store.ListHoldings(ctx, userID)
		if err != nil {
			return err
		}
		rebuilt := l.Holdings()
		res = RebuildResult{Holdings: rebuilt, Stored: stored, Diverged: !sameHoldings(stored, rebuilt)}
		if err := u.store.Commit(ctx, userID, version, nil, rebuilt); err != nil {
			return fmt.Errorf("commit rebuild: %w", err)
		}
		return nil
	})
	if err != nil {
		return RebuildResult{}, err
	}
	if res.Diverged {
		slog.Warn("holdings projection diverged from log", "user_id", userID,
			"stored", len(res.Stored), "rebuilt", len(res.Holdings))
	}
	return res, nil
}

// Performance は現在の株数で過去終値を評価した時系列を返します。
// 終値が取得できない銘柄はスキップします。
func (u *portfolioUsecase) Performance(ctx context.Context, userID uint, interval string, outputsize int) ([]entity.PerformancePoint, error) {
	if interval == "" {
		interval = candleusecase.DefaultInterval
	}
	if outputsize <= 0 || outputsize > candleusecase.MaxOutputSize {
		outputsize = candleusecase.DefaultOutputSize
	}
	holdings, err := u.store.ListHoldings(ctx, userID)
	if err != nil {
		return nil, err
	}
	closes := make(map[string][]ledger.ClosePoint, len(holdings))
	for _, h := range holdings {
		cs, err := u.candles.Find(ctx, h.Symbol, interval, outputsize)
		if err != nil {
			slog.Warn("skip symbol in performance", "symbol", h.Symbol, "error", err)
			continue
		}
		pts := make([]ledger.ClosePoint, 0, len(cs))
		for _, c := range cs {
			pts = append(pts, ledger.ClosePoint{Time: c.Time, Close: decimal.NewFromFloat(c.Close)})
		}
		closes[h.Symbol] = pts
	}
	return ledger.PerformanceSeries(holdings, closes), nil
}

// replay は版数を読んでからログを読み、台帳を再生します。
// 版数を先に読むので、その後の書き込みは Commit で必ず競合として検出されます。
func (u *portfolioUsecase) replay(ctx context.Context, userID uint) (*ledger.Ledger, uint64, error) {
	version, err := u.store.LogVersion(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	txs, err := u.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	l, err := ledger.Replay(txs)
	if err != nil {
		return nil, 0, fmt.Errorf("stored log is not replayable: %w", err)
	}
	return l, version, nil
}

// retryOnConflict は再生した台帳で fn を実行し、別プロセスとの競合なら読み直して再試行します。
func (u *portfolioUsecase) retryOnConflict(ctx context.Context, userID uint, fn func(l *ledger.Ledger, version uint64) error) error {
	var err error
	for attempt := 1; attempt <= maxCommitAttempts; attempt++ {
		l, version, rerr := u.replay(ctx, userID)
		if rerr != nil {
			return rerr
		}
		err = fn(l, version)
		if !errors.Is(err, domain.ErrConcurrentUpdate) {
			return err
		}
		slog.Warn("portfolio log changed during write, retrying", "user_id", userID, "attempt", attempt)
	}
	return err
}

func sameHoldings(a, b []entity.Holding) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
