package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/cms-dev/cms/v2/errors"
)

type sessionState int

const (
	stateActive sessionState = iota
	stateCommitted
	stateRolledBack
	stateReleased
)

func (s sessionState) String() string {
	switch s {
	case stateActive:
		return "active"
	case stateCommitted:
		return "committed"
	case stateRolledBack:
		return "rolled back"
	case stateReleased:
		return "released"
	}
	return fmt.Sprintf("sessionState(%d)", int(s))
}

// ScopedSession is one unit of work: a leased connection with an open
// transaction. Every read issued through DB sees the same snapshot. A
// session belongs to the goroutine that acquired it.
type ScopedSession struct {
	id     int64
	engine *Engine
	log    *slog.Logger
	start  time.Time

	mu    sync.Mutex
	state sessionState
	conn  *sql.Conn
	tx    *sql.Tx
	db    *gorm.DB
	stop  func() bool
}

// Acquire leases a connection and begins a transaction bound to ctx. It
// fails with ErrConnectionPoolExhausted when no connection frees up within
// the configured pool timeout. Cancelling ctx rolls the transaction back and
// returns the connection to the pool; the session is unusable afterwards.
func (e *Engine) Acquire(ctx context.Context) (*ScopedSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "acquiring session")
	}

	acqCtx, cancel := context.WithTimeout(ctx, e.cfg.PoolTimeout)
	conn, err := e.sqlDB.Conn(acqCtx)
	cancel()
	if err != nil {
		if ctx.Err() == nil && acqCtx.Err() != nil {
			e.log.WarnContext(ctx, "connection pool exhausted",
				slog.Duration("pool_timeout", e.cfg.PoolTimeout),
				slog.Int("in_use", e.sqlDB.Stats().InUse))
			return nil, errors.Newf(errors.ErrConnectionPoolExhausted,
				"no connection available within %s", e.cfg.PoolTimeout)
		}
		return nil, Translate(ctx, err, "acquiring connection")
	}

	tx, err := conn.BeginTx(ctx, e.txOpts)
	if err != nil {
		_ = conn.Close()
		return nil, Translate(ctx, err, "beginning transaction")
	}

	gdb := e.db.Session(&gorm.Session{NewDB: true, Context: ctx, SkipDefaultTransaction: true})
	gdb.Statement.ConnPool = tx

	s := &ScopedSession{
		id:     e.sessions.Add(1),
		engine: e,
		start:  time.Now(),
		state:  stateActive,
		conn:   conn,
		tx:     tx,
		db:     gdb,
	}
	s.log = e.log.With(slog.Int64("session", s.id))
	s.mu.Lock()
	s.stop = context.AfterFunc(ctx, func() {
		s.finish(stateReleased)
	})
	s.mu.Unlock()
	s.log.DebugContext(ctx, "session acquired")
	return s, nil
}

// WithSession runs fn in a fresh session carried by the context passed to
// fn. The session commits if fn returns nil and rolls back otherwise,
// including when fn panics.
func (e *Engine) WithSession(ctx context.Context, fn func(ctx context.Context, s *ScopedSession) error) (err error) {
	s, err := e.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			_ = s.Close()
			panic(r)
		}
		if err != nil {
			_ = s.Close()
			return
		}
		err = s.Commit()
	}()
	return fn(NewContext(ctx, s), s)
}

// DB returns the gorm handle bound to the session's transaction. It fails
// with ErrSessionState once the session was committed, rolled back or
// released.
func (s *ScopedSession) DB() (*gorm.DB, error) {
	if s == nil {
		return nil, errors.New(errors.ErrSessionState, "no session")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateActive {
		return nil, errors.Newf(errors.ErrSessionState, "session %d is %s", s.id, s.state)
	}
	return s.db, nil
}

// ID identifies the session in log lines.
func (s *ScopedSession) ID() int64 {
	return s.id
}

// Active reports whether the session still accepts queries.
func (s *ScopedSession) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateActive
}

// Commit commits the transaction and releases the connection.
func (s *ScopedSession) Commit() error {
	s.mu.Lock()
	if s.state != stateActive {
		state := s.state
		s.mu.Unlock()
		return errors.Newf(errors.ErrSessionState, "commit on %s session %d", state, s.id)
	}
	err := s.tx.Commit()
	s.releaseLocked(stateCommitted)
	s.mu.Unlock()
	if err != nil {
		return Translate(context.Background(), err, "committing session")
	}
	return nil
}

// Rollback discards the transaction and releases the connection.
func (s *ScopedSession) Rollback() error {
	s.mu.Lock()
	if s.state != stateActive {
		state := s.state
		s.mu.Unlock()
		return errors.Newf(errors.ErrSessionState, "rollback on %s session %d", state, s.id)
	}
	err := s.tx.Rollback()
	s.releaseLocked(stateRolledBack)
	s.mu.Unlock()
	if err != nil {
		return Translate(context.Background(), err, "rolling back session")
	}
	return nil
}

// Close rolls back unless the session was already finished. It can be
// called any number of times and is meant for defer.
func (s *ScopedSession) Close() error {
	s.finish(stateRolledBack)
	return nil
}

func (s *ScopedSession) finish(final sessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateActive {
		return
	}
	// On cancellation database/sql has already rolled back; ErrTxDone is
	// the expected answer then.
	_ = s.tx.Rollback()
	s.releaseLocked(final)
}

// releaseLocked returns the connection to the pool. s.mu must be held.
func (s *ScopedSession) releaseLocked(final sessionState) {
	s.state = final
	if s.stop != nil {
		s.stop()
	}
	if err := s.conn.Close(); err != nil {
		s.log.Warn("releasing connection", slog.String("error", err.Error()))
	}
	s.log.Debug("session released",
		slog.String("state", final.String()),
		slog.Duration("held", time.Since(s.start)))
}
