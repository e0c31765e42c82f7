package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"stock_insight/internal/feature/portfolio/domain"
	"stock_insight/internal/feature/portfolio/domain/entity"
)

// setupTestDB はインメモリSQLiteを準備します。
// :memory: は接続ごとに別DBになるため接続数を1に固定します。
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to initialize test database")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&TransactionModel{}, &HoldingModel{}, &LogHeadModel{}), "failed to migrate tables")
	return db
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleTx(id, symbol string, action entity.Action, shares, price string) entity.Transaction {
	return entity.Transaction{
		ID:         id,
		Symbol:     symbol,
		Action:     action,
		Shares:     dec(shares),
		Price:      dec(price),
		Total:      dec(shares).Mul(dec(price)),
		ExecutedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestPortfolioGorm_CommitAndList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewPortfolioStore(setupTestDB(t))

	avg := dec("44").Div(dec("7"))
	err := store.Commit(ctx, 1, 0,
		[]entity.Transaction{
			sampleTx("a", "AAPL", entity.ActionBuy, "3", "10"),
			sampleTx("b", "MSFT", entity.ActionBuy, "1", "300"),
		},
		[]entity.Holding{
			{Symbol: "AAPL", Shares: dec("7"), AvgCost: avg, TotalCost: dec("44")},
			{Symbol: "MSFT", Shares: dec("1"), AvgCost: dec("300"), TotalCost: dec("300")},
		})
	require.NoError(t, err)

	txs, err := store.ListTransactions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "a", txs[0].ID)
	assert.Equal(t, "b", txs[1].ID)
	assert.True(t, dec("30").Equal(txs[0].Total))
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), txs[0].ExecutedAt)

	holdings, err := store.ListHoldings(ctx, 1)
	require.NoError(t, err)
	require.Len(t, holdings, 2)
	assert.Equal(t, "AAPL", holdings[0].Symbol)
	// 文字列保存なので割り切れない平均単価も丸められない
	assert.True(t, avg.Equal(holdings[0].AvgCost), "got %s", holdings[0].AvgCost)

	// 他ユーザーは空
	other, err := store.ListHoldings(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestPortfolioGorm_CommitReplacesProjection(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewPortfolioStore(setupTestDB(t))

	require.NoError(t, store.Commit(ctx, 1, 0,
		[]entity.Transaction{sampleTx("a", "AAPL", entity.ActionBuy, "1", "1"), sampleTx("b", "MSFT", entity.ActionBuy, "1", "1")},
		[]entity.Holding{
			{Symbol: "AAPL", Shares: dec("1"), AvgCost: dec("1"), TotalCost: dec("1")},
			{Symbol: "MSFT", Shares: dec("1"), AvgCost: dec("1"), TotalCost: dec("1")},
		}))

	// MSFT を全株売却、AAPL を買い増し
	require.NoError(t, store.Commit(ctx, 1, 1,
		[]entity.Transaction{sampleTx("c", "MSFT", entity.ActionSell, "1", "2")},
		[]entity.Holding{{Symbol: "AAPL", Shares: dec("2"), AvgCost: dec("1"), TotalCost: dec("2")}}))

	holdings, err := store.ListHoldings(ctx, 1)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.True(t, dec("2").Equal(holdings[0].Shares))

	// 空の射影はすべて削除
	require.NoError(t, store.Commit(ctx, 1, 2, nil, nil))
	holdings, err = store.ListHoldings(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, holdings)

	txs, err := store.ListTransactions(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, txs, 3, "the log is never rewritten")
}

func TestPortfolioGorm_CommitIsAtomic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewPortfolioStore(setupTestDB(t))
	require.NoError(t, store.Commit(ctx, 1, 0,
		[]entity.Transaction{sampleTx("dup", "AAPL", entity.ActionBuy, "1", "1")},
		[]entity.Holding{{Symbol: "AAPL", Shares: dec("1"), AvgCost: dec("1"), TotalCost: dec("1")}}))

	// 同じTxIDでユニーク制約違反 → 射影も更新されない
	err := store.Commit(ctx, 1, 1,
		[]entity.Transaction{sampleTx("dup", "AAPL", entity.ActionBuy, "5", "1")},
		[]entity.Holding{{Symbol: "AAPL", Shares: dec("6"), AvgCost: dec("1"), TotalCost: dec("6")}})
	require.Error(t, err)

	holdings, err := store.ListHoldings(ctx, 1)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.True(t, dec("1").Equal(holdings[0].Shares))
	txs, _ := store.ListTransactions(ctx, 1)
	assert.Len(t, txs, 1)

	// 失敗したコミットは版数も進めない
	v, err := store.LogVersion(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v)
}

func TestPortfolioGorm_Clear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewPortfolioStore(setupTestDB(t))
	for _, uid := range []uint{1, 2} {
		require.NoError(t, store.Commit(ctx, uid, 0,
			[]entity.Transaction{sampleTx("t"+string(rune('0'+uid)), "AAPL", entity.ActionBuy, "1", "1")},
			[]entity.Holding{{Symbol: "AAPL", Shares: dec("1"), AvgCost: dec("1"), TotalCost: dec("1")}}))
	}

	require.NoError(t, store.Clear(ctx, 1))

	txs, _ := store.ListTransactions(ctx, 1)
	assert.Empty(t, txs)
	h, _ := store.ListHoldings(ctx, 1)
	assert.Empty(t, h)

	txs, _ = store.ListTransactions(ctx, 2)
	assert.Len(t, txs, 1)

	// 削除前に読んだ書き手は書き込めない
	err := store.Commit(ctx, 1, 1, nil, []entity.Holding{{Symbol: "AAPL", Shares: dec("1"), AvgCost: dec("1"), TotalCost: dec("1")}})
	assert.ErrorIs(t, err, domain.ErrConcurrentUpdate)
	h, _ = store.ListHoldings(ctx, 1)
	assert.Empty(t, h)
}

func TestPortfolioGorm_LogVersion(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewPortfolioStore(setupTestDB(t))

	v, err := store.LogVersion(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, v)

	for want := uint64(1); want <= 3; want++ {
		require.NoError(t, store.Commit(ctx, 1, want-1, nil, nil))
		v, err = store.LogVersion(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
}

// 再構築がログを読んだ後に別プロセスが取引を追記した場合、
// 古いログから作った射影で新しい射影を上書きしてはならない。
func TestPortfolioGorm_CommitRejectsStaleVersion(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewPortfolioStore(setupTestDB(t))
	one := []entity.Holding{{Symbol: "AAPL", Shares: dec("1"), AvgCost: dec("10"), TotalCost: dec("10")}}
	two := []entity.Holding{{Symbol: "AAPL", Shares: dec("2"), AvgCost: dec("10"), TotalCost: dec("20")}}

	require.NoError(t, store.Commit(ctx, 1, 0, []entity.Transaction{sampleTx("a", "AAPL", entity.ActionBuy, "1", "10")}, one))

	// 再構築側: 版数とログ（1件）を読む
	staleVersion, err := store.LogVersion(ctx, 1)
	require.NoError(t, err)
	staleLog, err := store.ListTransactions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, staleLog, 1)

	// サーバー側: 2件目を追記
	require.NoError(t, store.Commit(ctx, 1, staleVersion, []entity.Transaction{sampleTx("b", "AAPL", entity.ActionBuy, "1", "10")}, two))

	// 再構築側: 1件分の射影で上書きしようとする
	err = store.Commit(ctx, 1, staleVersion, nil, one)
	require.ErrorIs(t, err, domain.ErrConcurrentUpdate)

	holdings, err := store.ListHoldings(ctx, 1)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.True(t, dec("2").Equal(holdings[0].Shares), "the newer projection must survive")
	txs, _ := store.ListTransactions(ctx, 1)
	assert.Len(t, txs, 2)
}

func TestPortfolioGorm_FirstCommitRace(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewPortfolioStore(setupTestDB(t))

	require.NoError(t, store.Commit(ctx, 1, 0, []entity.Transaction{sampleTx("a", "AAPL", entity.ActionBuy, "1", "1")}, nil))
	// 同じく空のログを読んだ別の書き手
	err := store.Commit(ctx, 1, 0, []entity.Transaction{sampleTx("b", "AAPL", entity.ActionBuy, "1", "1")}, nil)
	assert.ErrorIs(t, err, domain.ErrConcurrentUpdate)
	txs, _ := store.ListTransactions(ctx, 1)
	assert.Len(t, txs, 1)
}
