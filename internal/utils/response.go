package utils

import (
	"net/http"

	"github.com/flotiq/flotiq-setup/internal/logger"
	"go.uber.org/zap"
)

// WriteText writes a plain text response and flushes it to the client
func WriteText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		logger.Error("Failed to write response", zap.Error(err))
		return
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
