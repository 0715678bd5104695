package httpx

import (
	"log/slog"
	"net/http"
)

// Recovery returns a middleware that converts handler panics into 500
// responses instead of tearing down the server.
func Recovery() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					slog.ErrorContext(r.Context(), "handler panicked",
						"method", r.Method,
						"path", r.URL.Path,
						"panic", rec)
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
