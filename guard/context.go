package guard

import (
	"context"

	"github.com/sgcombinator/web/identity"
)

type contextKey string

const sessionKey contextKey = "session"

// WithSession stores the validated session in ctx.
func WithSession(ctx context.Context, s *identity.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromContext returns the session the guard validated for this request.
func SessionFromContext(ctx context.Context) (*identity.Session, bool) {
	s, ok := ctx.Value(sessionKey).(*identity.Session)
	return s, ok && s != nil
}
