package auth

import "context"

type sessionCtxKey struct{}

// TokenHeader carries the local session token on every authenticated request.
const TokenHeader = "X-JOG-TOKEN"

func ContextWithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, session)
}

// SessionFromContext returns the session the auth middleware resolved for the request.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(sessionCtxKey{}).(*Session)
	return session, ok && session != nil
}
