package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout puts a deadline on the request context.
//
// Store calls take that context, so a hung query is cancelled once d has
// passed. The handler then answers with its usual 500 envelope. Unlike chi's
// middleware.Timeout this never writes a status itself, so the handler's
// response is the only one sent.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
