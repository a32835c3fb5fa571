package middleware

import (
	"net/http"
	"strings"

	"github.com/2beens/jogtracker/internal/auth"

	log "github.com/sirupsen/logrus"
)

var defaultAllowedOrigins = []string{
	"https://jogtracker.2beens.online",
	"http://localhost:8080",
	"test",
}

// Cors lets through requests from the allowed origins, the jogtracker CLI
// and curl. Extra origins come from the config.
func Cors(extraOrigins ...string) func(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{}
	for _, o := range append(defaultAllowedOrigins, extraOrigins...) {
		allowedOrigins[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			userAgent := r.Header.Get("User-Agent")

			switch {
			case
				allowedOrigins[origin],
				strings.HasPrefix(userAgent, "jogtracker-cli/"),
				strings.HasPrefix(userAgent, "curl/"),
				strings.HasPrefix(userAgent, "test-agent"),
				strings.HasPrefix(userAgent, "Go-http-client/"):
				{
					if origin != "" {
						w.Header().Set("Access-Control-Allow-Origin", origin)
					}
					w.Header().Set("Access-Control-Allow-Headers",
						"Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, "+auth.TokenHeader,
					)
					w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
				}
			default:
				log.Warnf("CORS: origin not allowed for path [%s] and origin [%s]", r.URL.Path, origin)
				w.WriteHeader(http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
