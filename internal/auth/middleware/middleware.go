package middleware

import (
	"net/http"

	"github.com/flotiq/flotiq-setup/internal/logger"
	"go.uber.org/zap"
)

// SecureHeaders marks every response as private and single-use. The callback
// carries API keys in its query, so nothing may be cached and the browser is
// told not to reuse the connection.
func SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Connection", "close")
		next.ServeHTTP(w, r)
	})
}

// LogRequests logs each request without its query string
func LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("Callback listener request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
			zap.String("user_agent", r.UserAgent()),
		)
		next.ServeHTTP(w, r)
	})
}
