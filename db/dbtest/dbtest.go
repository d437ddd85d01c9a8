// Package dbtest opens throwaway SQLite databases for tests.
package dbtest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cms-dev/cms/v2/config"
	"github.com/cms-dev/cms/v2/db"
)

// Config returns settings for a fresh SQLite file under t.TempDir(). WAL
// lets a reader keep its snapshot while another session writes.
func Config(t *testing.T) config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cms.db")
	cfg := config.Defaults()
	cfg.Database = "sqlite:///" + path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=1"
	cfg.PoolSize = 4
	cfg.PoolTimeout = 2 * time.Second
	return cfg
}

// Logger discards everything unless -v is set.
func Logger() *slog.Logger {
	if testing.Verbose() {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// New returns an initialized engine on a fresh database. It is closed when
// the test ends.
func New(t *testing.T) *db.Engine {
	t.Helper()
	return NewWithConfig(t, Config(t))
}

// NewWithConfig is New with explicit settings.
func NewWithConfig(t *testing.T, cfg config.Config) *db.Engine {
	t.Helper()
	ctx := context.Background()
	e, err := db.Open(ctx, cfg, db.Options{Logger: Logger(), SkipVersionCheck: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	require.NoError(t, e.Init(ctx))
	return e
}

// Session acquires a session that is closed when the test ends.
func Session(t *testing.T, e *db.Engine) *db.ScopedSession {
	t.Helper()
	s, err := e.Acquire(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}
