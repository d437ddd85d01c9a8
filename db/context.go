package db

import (
	"context"

	"github.com/cms-dev/cms/v2/errors"
)

type sessionKey struct{}

// NewContext returns a copy of ctx carrying s as the current session.
func NewContext(ctx context.Context, s *ScopedSession) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session carried by ctx, if any.
func FromContext(ctx context.Context) (*ScopedSession, bool) {
	s, ok := ctx.Value(sessionKey{}).(*ScopedSession)
	return s, ok && s != nil
}

// Resolve returns s, or the session carried by ctx when s is nil. It fails
// with ErrSessionState when there is neither.
func Resolve(ctx context.Context, s *ScopedSession) (*ScopedSession, error) {
	if s != nil {
		return s, nil
	}
	if s, ok := FromContext(ctx); ok {
		return s, nil
	}
	return nil, errors.New(errors.ErrSessionState, "no session given and none in context")
}
