package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestBuildDSN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "sqlite uses the file path",
			cfg:  Config{Driver: DriverSQLite, SQLitePath: "data/app.db"},
			want: "data/app.db",
		},
		{
			name: "postgres over tcp",
			cfg: Config{Driver: DriverPostgres, User: "u", Password: "p", Name: "stocks",
				Host: "localhost", Port: "5432", SSLMode: "disable"},
			want: "host=localhost user=u password=p dbname=stocks port=5432 sslmode=disable TimeZone=UTC",
		},
		{
			name: "cloud sql socket takes precedence",
			cfg: Config{Driver: DriverPostgres, User: "u", Password: "p", Name: "stocks",
				Host: "localhost", Port: "5432", SSLMode: "disable", InstanceName: "proj:region:inst"},
			want: "host=/cloudsql/proj:region:inst user=u password=p dbname=stocks sslmode=disable TimeZone=UTC",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, BuildDSN(tt.cfg))
		})
	}
}

func TestOpenerFor_UnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := OpenerFor(Config{Driver: "mysql"})
	assert.ErrorContains(t, err, "unsupported DB_DRIVER")
}

// TestConnectWithRetry_SuccessOnFirstTry は初回接続成功時にリトライせずDBを返すことを検証します。
func TestConnectWithRetry_SuccessOnFirstTry(t *testing.T) {
	t.Parallel()

	mockDB := &gorm.DB{}
	attempts := 0
	db, err := ConnectWithRetry("test-dsn", 5*time.Second, func(dsn string) (*gorm.DB, error) {
		attempts++
		assert.Equal(t, "test-dsn", dsn)
		return mockDB, nil
	})

	require.NoError(t, err)
	assert.Same(t, mockDB, db)
	assert.Equal(t, 1, attempts)
}

// TestConnectWithRetry_RetriesOnFailure は接続失敗時にリトライして最終的に成功することを検証します。
func TestConnectWithRetry_RetriesOnFailure(t *testing.T) {
	// リトライ間隔のsleepがあるため並列にしない
	mockDB := &gorm.DB{}
	attempts := 0
	db, err := ConnectWithRetry("test-dsn", 10*time.Second, func(dsn string) (*gorm.DB, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("connection refused")
		}
		return mockDB, nil
	})

	require.NoError(t, err)
	assert.Same(t, mockDB, db)
	assert.Equal(t, 3, attempts)
}

// TestConnectWithRetry_TimeoutAfterRetries はタイムアウト後にエラーが返されることを検証します。
func TestConnectWithRetry_TimeoutAfterRetries(t *testing.T) {
	t.Parallel()

	attempts := 0
	cause := errors.New("connection refused")
	_, err := ConnectWithRetry("test-dsn", 100*time.Millisecond, func(dsn string) (*gorm.DB, error) {
		attempts++
		return nil, cause
	})

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, attempts)
}

// TestLoadConfigFromEnv は環境変数からデータベース設定が正しく読み込まれることを検証します。
func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_USER", "envuser")
	t.Setenv("DB_PASSWORD", "envpass")
	t.Setenv("DB_NAME", "envdb")
	t.Setenv("DB_HOST", "envhost")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("RUN_MIGRATIONS", "true")
	t.Setenv("DB_CONNECT_TIMEOUT", "5s")

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Driver)
	assert.Equal(t, "envuser", cfg.User)
	assert.Equal(t, "envpass", cfg.Password)
	assert.Equal(t, "envdb", cfg.Name)
	assert.Equal(t, "envhost", cfg.Host)
	assert.Equal(t, "5433", cfg.Port)
	assert.Equal(t, "disable", cfg.SSLMode)
	assert.True(t, cfg.RunMigrations)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)
}

func TestLoadConfigFromEnv_Invalid(t *testing.T) {
	t.Setenv("RUN_MIGRATIONS", "maybe")

	_, err := LoadConfigFromEnv()
	assert.Error(t, err)
}

func TestOpen_SQLiteWithMigrations(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Driver:         DriverSQLite,
		SQLitePath:     filepath.Join(t.TempDir(), "test.db"),
		RunMigrations:  true,
		ConnectTimeout: time.Second,
	}
	db, err := Open(context.Background(), cfg)
	require.NoError(t, err)

	for _, table := range []string{"candles", "symbols", "portfolio_transactions", "portfolio_holdings", "portfolio_log_heads", "watchlist_items", "price_alerts"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.NoError(t, Ping(db)(context.Background()))
}

func TestPing_NilDB(t *testing.T) {
	t.Parallel()

	assert.Error(t, Ping(nil)(context.Background()))
}
