package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const RequestIDHeader = "X-Request-Id"

type requestIDCtxKey struct{}

// RequestIDFromContext returns the id LogRequest assigned to the request.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDCtxKey{}).(string)
	return id
}

// LogRequest tags every request with an id (kept if the caller already sent
// one) and logs it together with the response status and duration.
func LogRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if _, err := uuid.Parse(requestID); err != nil {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			logger := log.WithFields(log.Fields{
				"request_id": requestID,
				"method":     r.Method,
				"path":       r.URL.Path,
			})
			logger.Tracef(" ====> request [UA: %s]", r.Header.Get("User-Agent"))

			start := time.Now()
			resp := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(resp, r.WithContext(context.WithValue(r.Context(), requestIDCtxKey{}, requestID)))

			logger.WithFields(log.Fields{
				"status":   resp.statusCode,
				"duration": time.Since(start).String(),
			}).Debug(" <==== response")
		})
	}
}
