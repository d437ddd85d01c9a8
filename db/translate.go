package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	stderrors "errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"github.com/cms-dev/cms/v2/errors"
)

// Translate maps driver failures onto the error kinds callers branch on. ctx
// is the caller's context, not one derived for the pool timeout: a caller
// that cancelled it gets its own error back rather than a pool error.
func Translate(ctx context.Context, err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.CodeOf(err) != "" {
		return errors.Wrap(err, msg)
	}
	if cerr := ctx.Err(); cerr != nil && stderrors.Is(err, cerr) {
		return errors.Wrap(err, msg)
	}
	switch {
	case stderrors.Is(err, context.DeadlineExceeded),
		stderrors.Is(err, driver.ErrBadConn),
		stderrors.Is(err, sql.ErrConnDone),
		pgconn.Timeout(err),
		pgconn.SafeToRetry(err),
		sqliteBusy(err):
		return errors.Wrap(errors.Mark(err, errors.ErrConnectionPoolExhausted), msg)
	case stderrors.Is(err, sql.ErrTxDone):
		return errors.Wrap(errors.Mark(err, errors.ErrSessionState), msg)
	}
	return errors.Wrap(err, msg)
}

// sqliteBusy reports a lock that busy_timeout gave up waiting for.
func sqliteBusy(err error) bool {
	var se sqlite3.Error
	if !stderrors.As(err, &se) {
		return false
	}
	return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
}
