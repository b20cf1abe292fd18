package auth

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const sessionKey contextKey = "session"

// Session is the authenticated caller, carried explicitly on the request
// context rather than looked up from any ambient global.
type Session struct {
	UserID uuid.UUID
	Email  string
	Role   string
}

// IsAdmin reports whether the session belongs to an administrator.
func (s *Session) IsAdmin() bool { return s != nil && s.Role == "admin" }

// WithSession returns a context carrying the session.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// FromContext returns the session on the context, or nil when the request
// is unauthenticated.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey).(*Session)
	return s
}
