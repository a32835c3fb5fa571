package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/2beens/jogtracker/internal/auth"
	"github.com/2beens/jogtracker/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=middleware_test

type sessionGetter interface {
	Get(ctx context.Context, token string) (*auth.Session, error)
}

type AuthMiddlewareHandler struct {
	sessions             sessionGetter
	allowedPaths         map[string]bool
	allowedPathsPrefixes []string
}

func NewAuthMiddlewareHandler(sessions sessionGetter) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		sessions: sessions,
		allowedPaths: map[string]bool{
			"/":        true,
			"/version": true,
			"/topics":  true,

			// login-logout:
			"/a/login":  true,
			"/a/logout": true,
		},
		allowedPathsPrefixes: []string{},
	}
}

func (h *AuthMiddlewareHandler) pathIsAlwaysAllowed(path string) bool {
	if h.allowedPaths[path] {
		return true
	}
	for _, prefix := range h.allowedPathsPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// AuthCheck resolves the session of the X-JOG-TOKEN header and stores it in
// the request context. Websocket clients cannot set headers, so the stream
// endpoint also takes the token from the "token" query param.
func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, PUT, DELETE, OPTIONS")
				w.WriteHeader(http.StatusOK)
				span.SetStatus(codes.Ok, "options-ok")
				return
			}

			if h.pathIsAlwaysAllowed(r.URL.Path) {
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r)
				return
			}

			authToken := r.Header.Get(auth.TokenHeader)
			if authToken == "" && r.URL.Path == "/jogs/stream" {
				authToken = r.URL.Query().Get("token")
			}

			if authToken == "" {
				log.Tracef("[missing token] [auth middleware] unauthorized => %s", r.URL.Path)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "missing-auth-token")
				return
			}

			session, err := h.sessions.Get(ctx, authToken)
			switch {
			case errors.Is(err, auth.ErrSessionNotFound), errors.Is(err, auth.ErrSessionExpired):
				log.Tracef("[invalid token] [auth middleware] unauthorized => %s: %s", r.URL.Path, err)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "not-logged")
				return
			case err != nil:
				log.Errorf("[failed login check] => %s: %s", r.URL.Path, err)
				http.Error(w, "session check failed", http.StatusInternalServerError)
				span.SetStatus(codes.Error, "check-logged-err")
				span.RecordError(err)
				return
			}

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r.WithContext(auth.ContextWithSession(r.Context(), session)))
		})
	}
}
