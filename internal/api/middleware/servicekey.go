package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/quotekit/quotekit/internal/api/response"
	"github.com/quotekit/quotekit/internal/servicekey"
)

// KeyVerifier checks a presented service key.
type KeyVerifier interface {
	Verify(rawKey string) error
}

// ServiceKey is middleware that requires the X-API-Key header to match the
// configured service key. Missing or invalid keys return 401.
func ServiceKey(v KeyVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			rawKey := r.Header.Get("X-API-Key")
			if rawKey == "" {
				response.Err(w, http.StatusUnauthorized, response.CodeUnauthorized, "API key is required", requestID)
				return
			}

			if err := v.Verify(rawKey); err != nil {
				if errors.Is(err, servicekey.ErrInvalidKey) {
					response.Err(w, http.StatusUnauthorized, response.CodeUnauthorized, "Invalid API key", requestID)
					return
				}
				slog.Error("service key verification failed", "error", err, "requestId", requestID)
				response.Err(w, http.StatusInternalServerError, response.CodeInternal, "Authentication failed", requestID)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
