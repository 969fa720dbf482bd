// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping helpers for
// PostgreSQL (production) and SQLite (pure Go driver, local runs and tests),
// plus schema migrations and a readiness ping.
package repo

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/qrtag-backend/internal/domain"
	"github.com/tbourn/qrtag-backend/internal/errs"
)

// Options tunes the connection factory behind Open.
type Options struct {
	// MaxOpenConns caps concurrently pinned connections (one per in-flight
	// request). Values <= 0 default to 10.
	MaxOpenConns int
	// Tracing installs the GORM OpenTelemetry plugin.
	Tracing bool
	// LogLevel is the GORM logger level; zero means logger.Warn.
	LogLevel logger.LogLevel
}

// Open connects to the store named by dsn.
//
// Accepted forms:
//   - postgres://… or postgresql://… or a key=value DSN ("host=… user=…")
//   - sqlite://<path>, file:<path>[?query], or :memory:
//
// An empty dsn or an unknown scheme is a configuration error.
func Open(dsn string, opt Options) (*gorm.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errs.Configuration("DATABASE_URL is not set")
	}

	var (
		db  *gorm.DB
		err error
	)
	switch {
	case isPostgresDSN(dsn):
		db, err = gorm.Open(postgres.Open(dsn), gormConfig(opt))
	case strings.HasPrefix(dsn, "sqlite://"):
		db, err = OpenSQLite(strings.TrimPrefix(dsn, "sqlite://"))
	case dsn == ":memory:":
		// A plain :memory: database is private to one connection; share it
		// so every pooled connection sees the same schema.
		db, err = OpenSQLite("file::memory:?cache=shared")
	case strings.HasPrefix(dsn, "file:"):
		db, err = OpenSQLite(dsn)
	default:
		return nil, errs.Configuration("DATABASE_URL has an unsupported scheme")
	}
	if err != nil {
		return nil, err
	}

	if opt.Tracing {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			return nil, err
		}
	}

	// Pool: acts as the connection factory; each request pins one connection.
	if sqlDB, err := db.DB(); err == nil {
		n := opt.MaxOpenConns
		if n <= 0 {
			n = 10
		}
		sqlDB.SetMaxOpenConns(n)
		sqlDB.SetMaxIdleConns(n)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if !strings.HasPrefix(path, "file:") && path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if _, err := os.Stat(dir); err != nil {
				return nil, err
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(path), gormConfig(Options{}))
	if err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA busy_timeout=5000;")

	return db, nil
}

// AutoMigrate creates or updates the tables owned by this service.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Profile{},
		&domain.Idempotency{},
	)
}

// Ping checks that the store answers within ctx.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func gormConfig(opt Options) *gorm.Config {
	lvl := opt.LogLevel
	if lvl == 0 {
		lvl = logger.Warn
	}
	return &gorm.Config{
		Logger:         logger.Default.LogMode(lvl),
		TranslateError: true,
	}
}

func isPostgresDSN(dsn string) bool {
	low := strings.ToLower(dsn)
	return strings.HasPrefix(low, "postgres://") ||
		strings.HasPrefix(low, "postgresql://") ||
		strings.Contains(low, "host=")
}
