package middleware

import (
	"context"
	"net/http"
	"regexp"

	"github.com/rs/xid"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// contextKey is unexported so no other package can read or overwrite our
// context values by accident.
type contextKey string

const requestIDKey contextKey = "requestID"

// Incoming ids are echoed into logs and headers, so only a conservative
// charset is trusted.
var validRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// RequestID tags every request with an id.
//
// A well-formed X-Request-ID from the caller (or a proxy in front of us) is
// kept so one id follows the request across services. Otherwise a fresh xid
// is generated: 20 sortable characters, no coordination needed.
//
// The id is stored in the request context and echoed in the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if !validRequestID.MatchString(id) {
			id = xid.New().String()
		}

		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFromContext returns the id set by RequestID, or "" outside of it.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
