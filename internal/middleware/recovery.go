package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Recovery turns a handler panic into a 500 with the standard error body.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			slog.Error("panic serving request",
				"panic", rec,
				"path", r.URL.Path,
				"request_id", GetRequestID(r.Context()),
				"stack", string(debug.Stack()),
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"status":"error","message":"internal server error"}`))
		}()
		next.ServeHTTP(w, r)
	})
}
