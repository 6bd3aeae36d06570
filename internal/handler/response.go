package handler

// RESPONSE HELPERS:
// These functions standardise how we read requests and send responses.
//
// CONSISTENT ERROR FORMAT:
// Every error response from the API has the same shape:
//
//	{"error_code": 104, "error_title": "User Not Found", "error_message": "..."}
//
// Clients can switch on error_code without caring which endpoint failed.

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/sakif/messaging-api/internal/apperror"
	"github.com/sakif/messaging-api/internal/middleware"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

// ErrorResponse is the error envelope returned by every endpoint.
type ErrorResponse struct {
	Code    int    `json:"error_code"`
	Title   string `json:"error_title"`
	Message string `json:"error_message"`
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status must be set BEFORE the body. Once Encode writes,
// the headers are on the wire and later changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// The status is already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps an error to the envelope.
//
// ERROR MAPPING:
// Services return *apperror.AppError for everything a client can act on.
// errors.As walks the wrap chain, so an AppError wrapped with fmt.Errorf
// still maps correctly.
//
// Anything else is a bug or an outage. The client gets the generic Server
// Error and the real cause goes to the log, tagged with the request id so
// an operator can match a user's report to the log line. NEVER put the
// raw error in the response: it may contain SQL or file paths.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code == apperror.CodeInternal {
		logger.ErrorContext(r.Context(), "request failed",
			slog.String("requestID", middleware.RequestIDFromContext(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		appErr = apperror.Internal()
	}

	writeJSON(w, appErr.Status(), ErrorResponse{
		Code:    appErr.Code,
		Title:   appErr.Title,
		Message: appErr.Message,
	})
}

// decodeJSON reads one JSON object from the body into dst. Any problem with
// the body is the client's fault and comes back as a validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var idErr *idError
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &idErr):
			return apperror.ValidationFailed(idErr.field, idErr.field+" must be an integer.")
		case errors.As(err, &maxErr):
			return apperror.ValidationFailed("", "Request body is too large.")
		default:
			return apperror.ValidationFailed("", "Request body must be a JSON object.")
		}
	}
	return nil
}

// queryID reads an integer id from the query string. It reports whether the
// key was present at all, so callers can fall back to an alias.
func queryID(r *http.Request, key string) (id int64, present bool, err error) {
	values, ok := r.URL.Query()[key]
	if !ok || len(values) == 0 {
		return 0, false, nil
	}
	raw := strings.TrimSpace(values[0])
	if raw == "" {
		return 0, true, nil
	}
	id, ok = parseID(raw)
	if !ok {
		return 0, true, apperror.ValidationFailed(key, key+" must be an integer.")
	}
	return id, true, nil
}

// =========================================================================
// FLEXIBLE IDS
// =========================================================================
//
// Clients send ids as 7, "7" or even 7.0. All three mean user 7. null or a
// missing key leave the id at 0, which every endpoint treats as missing.
// Negative integers are real values: they simply match no user.

type idError struct{ field string }

func (e *idError) Error() string { return e.field + " must be an integer" }

// flexID is an int64 that unmarshals from a JSON number or numeric string.
type flexID struct {
	field string
	value int64
}

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		f.value = 0
		return nil
	}

	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return &idError{field: f.field}
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			f.value = 0
			return nil
		}
	}

	n, ok := parseID(raw)
	if !ok {
		return &idError{field: f.field}
	}
	f.value = n
	return nil
}

// parseID accepts an integer or a whole-valued float ("7", "-7", "7.0").
// Query strings and JSON bodies both go through it.
func parseID(raw string) (int64, bool) {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, true
	}
	fl, err := strconv.ParseFloat(raw, 64)
	if err != nil || fl != math.Trunc(fl) || math.Abs(fl) > 1<<53 {
		return 0, false
	}
	return int64(fl), true
}
