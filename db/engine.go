// Package db manages the process-wide connection pool and the scoped
// sessions every query of CMS runs in. It also creates, drops and checks the
// version of the schema defined in package model.
package db

import (
	"context"
	"database/sql"
	"log/slog"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cms-dev/cms/v2/config"
	"github.com/cms-dev/cms/v2/errors"
)

// Options tune Open beyond what the configuration file holds.
type Options struct {
	// Logger receives pool events and, at debug level, every statement.
	// Defaults to slog.Default().
	Logger *slog.Logger

	// SkipVersionCheck opens a database whose schema is missing or stale.
	// Only Init and Drop have a reason to set it.
	SkipVersionCheck bool
}

// Engine owns the connection pool. Create one per process with Open and
// share it; it is safe for concurrent use.
type Engine struct {
	db     *gorm.DB
	sqlDB  *sql.DB
	cfg    config.Config
	driver string
	log    *slog.Logger
	txOpts *sql.TxOptions

	sessions atomic.Int64
}

// Open connects to the database named by cfg.Database, applies the pool
// settings and, unless opts.SkipVersionCheck is set, refuses a database whose
// schema version differs from model.Version.
func Open(ctx context.Context, cfg config.Config, opts Options) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	driver, dsn, err := config.ParseDatabaseURL(cfg.Database)
	if err != nil {
		return nil, err
	}
	dialector, err := newDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	level := logger.Warn
	if cfg.DatabaseDebug {
		level = logger.Info
	}
	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 newSlogLogger(log, level, cfg.SlowThreshold),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	sqlDB.SetMaxOpenConns(cfg.PoolSize)
	sqlDB.SetMaxIdleConns(cfg.PoolSize)
	sqlDB.SetConnMaxLifetime(cfg.PoolRecycle)
	sqlDB.SetConnMaxIdleTime(cfg.IdleTimeout)

	e := &Engine{
		db:     gdb,
		sqlDB:  sqlDB,
		cfg:    cfg,
		driver: driver,
		log:    log.With(slog.String("component", "db")),
		txOpts: txOptions(driver),
	}

	if err := e.Ping(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	if !opts.SkipVersionCheck {
		if err := CheckVersion(ctx, gdb); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}
	e.log.Debug("database opened",
		slog.String("driver", driver),
		slog.Int("pool_size", cfg.PoolSize),
		slog.Duration("pool_recycle", cfg.PoolRecycle))
	return e, nil
}

func newDialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case config.DriverPostgres:
		connCfg, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, errors.Wrap(err, "parsing postgres DSN")
		}
		return postgres.New(postgres.Config{Conn: stdlib.OpenDB(*connCfg)}), nil
	case config.DriverSQLite:
		return sqlite.Open(dsn), nil
	default:
		return nil, errors.Errorf("unsupported driver %q", driver)
	}
}

// txOptions picks the isolation that gives a session one snapshot for its
// whole life. SQLite transactions are serializable already and the driver
// rejects explicit levels.
func txOptions(driver string) *sql.TxOptions {
	if driver == config.DriverPostgres {
		return &sql.TxOptions{Isolation: sql.LevelRepeatableRead}
	}
	return &sql.TxOptions{}
}

// DB returns a gorm handle on the pool itself, outside any session. Schema
// management uses it; queries should go through a ScopedSession.
func (e *Engine) DB() *gorm.DB {
	return e.db
}

// Driver returns config.DriverPostgres or config.DriverSQLite.
func (e *Engine) Driver() string {
	return e.driver
}

// Stats returns the pool statistics.
func (e *Engine) Stats() sql.DBStats {
	return e.sqlDB.Stats()
}

// Ping checks that a connection can be obtained and used within the pool
// timeout.
func (e *Engine) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, e.cfg.PoolTimeout)
	defer cancel()
	if err := e.sqlDB.PingContext(pingCtx); err != nil {
		return Translate(ctx, err, "pinging database")
	}
	return nil
}

// Close closes the pool. Sessions still open keep their connection until
// they are closed.
func (e *Engine) Close() error {
	return e.sqlDB.Close()
}
