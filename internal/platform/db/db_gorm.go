// Package db はgormの接続（sqlite / postgres）とマイグレーションを提供します。
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	retryInterval = 3 * time.Second
)

// Config はデータベース接続設定です。
type Config struct {
	Driver         string        `envconfig:"DB_DRIVER" default:"sqlite"`
	SQLitePath     string        `envconfig:"DB_SQLITE_PATH" default:"stock_insight.db"`
	User           string        `envconfig:"DB_USER"`
	Password       string        `envconfig:"DB_PASSWORD"`
	Name           string        `envconfig:"DB_NAME"`
	Host           string        `envconfig:"DB_HOST" default:"localhost"`
	Port           string        `envconfig:"DB_PORT" default:"5432"`
	SSLMode        string        `envconfig:"DB_SSLMODE" default:"disable"`
	InstanceName   string        `envconfig:"INSTANCE_CONNECTION_NAME"`
	RunMigrations  bool          `envconfig:"RUN_MIGRATIONS" default:"false"`
	ConnectTimeout time.Duration `envconfig:"DB_CONNECT_TIMEOUT" default:"60s"`
	Debug          bool          `envconfig:"DB_DEBUG" default:"false"`
}

// LoadConfigFromEnv は環境変数からデータベース設定を読み込みます。
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load db config: %w", err)
	}
	return cfg, nil
}

// BuildDSN はドライバーに応じた接続文字列を組み立てます。
// postgres で InstanceName が設定されている場合は Cloud SQL の Unix ソケットを優先します。
func BuildDSN(cfg Config) string {
	if cfg.Driver != DriverPostgres {
		return cfg.SQLitePath
	}
	host, port := cfg.Host, cfg.Port
	if cfg.InstanceName != "" {
		host, port = "/cloudsql/"+cfg.InstanceName, ""
	}
	parts := []string{
		"host=" + host,
		"user=" + cfg.User,
		"password=" + cfg.Password,
		"dbname=" + cfg.Name,
	}
	if port != "" {
		parts = append(parts, "port="+port)
	}
	parts = append(parts, "sslmode="+cfg.SSLMode, "TimeZone=UTC")
	return strings.Join(parts, " ")
}

// Opener はDSNからgorm接続を開く関数です。テストで差し替えます。
type Opener func(dsn string) (*gorm.DB, error)

// OpenerFor はドライバー名に対応する Opener を返します。
func OpenerFor(cfg Config) (Opener, error) {
	gcfg := &gorm.Config{Logger: newLogger(cfg.Debug)}
	switch cfg.Driver {
	case DriverSQLite:
		return func(dsn string) (*gorm.DB, error) { return gorm.Open(sqlite.Open(dsn), gcfg) }, nil
	case DriverPostgres:
		return func(dsn string) (*gorm.DB, error) { return gorm.Open(postgres.Open(dsn), gcfg) }, nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
}

// ConnectWithRetry は timeout に達するまで retryInterval 間隔で接続を再試行します。
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(retryInterval).After(deadline) {
			return nil, fmt.Errorf("db connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err, "retry_in", retryInterval)
		time.Sleep(retryInterval)
	}
}

// Open は設定どおりに接続し、RunMigrations が有効ならマイグレーションを実行します。
func Open(ctx context.Context, cfg Config) (*gorm.DB, error) {
	open, err := OpenerFor(cfg)
	if err != nil {
		return nil, err
	}
	db, err := ConnectWithRetry(BuildDSN(cfg), cfg.ConnectTimeout, open)
	if err != nil {
		return nil, err
	}
	if cfg.Driver == DriverSQLite {
		// sqlite は単一ライターなので接続を1本に絞り、トランザクション間の競合を避ける
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	slog.Info("database connected", "driver", cfg.Driver)

	if cfg.RunMigrations {
		if err := Migrate(ctx, db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// Ping は接続の疎通確認です。readiness チェックに使います。
func Ping(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if db == nil {
			return errors.New("db not initialized")
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

// slogWriter はgormのログをslogに流します。
type slogWriter struct{}

func (slogWriter) Printf(format string, args ...any) {
	slog.Info(fmt.Sprintf(format, args...), "component", "gorm")
}

func newLogger(debug bool) logger.Interface {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	return logger.New(slogWriter{}, logger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}
