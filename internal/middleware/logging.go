package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// Logging writes one structured line per request. Health and metrics probes
// are logged at debug level.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		level := slog.LevelInfo
		switch {
		case ww.status >= http.StatusInternalServerError:
			level = slog.LevelError
		case isProbe(r.URL.Path):
			level = slog.LevelDebug
		}

		slog.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", GetRequestID(r.Context()),
			"remote_ip", clientIP(r),
		)
	})
}

func isProbe(path string) bool {
	switch path {
	case "/health", "/health/live", "/metrics":
		return true
	}
	return false
}
