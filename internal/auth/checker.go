package auth

import (
	"context"
	"time"
)

var _ SessionStore = (*Service)(nil)
var _ SessionStore = (*MemoryStore)(nil)

// SessionStore is what the http layer needs from the login sessions.
type SessionStore interface {
	Login(ctx context.Context, accessToken, userID string, createdAt time.Time) (string, error)
	Get(ctx context.Context, token string) (*Session, error)
	Logout(ctx context.Context, token string) (bool, error)
}
