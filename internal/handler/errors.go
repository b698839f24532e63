package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/mhollstein/timeledger/internal/domain"
)

// errMissingUser signals a route registered outside the auth middleware.
var errMissingUser = errors.New("no user id in request context")

// errorResponse is the JSON error envelope for every non-2xx reply.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeDomainError maps the domain sentinels onto HTTP statuses:
//
//	ErrNotFound        → 404 not_found
//	ErrConflict        → 409 conflict
//	ErrOverlap         → 409 overlap
//	ErrInvalidInterval → 422 invalid_interval
//	ErrValidation      → 422 validation_error
//
// Anything else is an unexpected failure: logged with context and returned
// as an opaque 500. Business-rule errors are normal outcomes and are never
// logged as errors.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{errorDetail{"not_found", sentinelMessage(err, domain.ErrNotFound)}})
	case errors.Is(err, domain.ErrOverlap):
		writeJSON(w, http.StatusConflict, errorResponse{errorDetail{"overlap", sentinelMessage(err, domain.ErrOverlap)}})
	case errors.Is(err, domain.ErrConflict):
		writeJSON(w, http.StatusConflict, errorResponse{errorDetail{"conflict", sentinelMessage(err, domain.ErrConflict)}})
	case errors.Is(err, domain.ErrInvalidInterval):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{errorDetail{"invalid_interval", sentinelMessage(err, domain.ErrInvalidInterval)}})
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{errorDetail{"validation_error", sentinelMessage(err, domain.ErrValidation)}})
	default:
		s.internalError(w, r, err)
	}
}

// writeRequestError rejects a request before it reaches the service layer
// (missing body, malformed JSON, bad UUID or timestamp).
func writeRequestError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{errorDetail{"validation_error", message}})
}

// internalError logs the full error chain and hides it from the client.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.log.ErrorContext(r.Context(), "unhandled error",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	writeJSON(w, http.StatusInternalServerError, errorResponse{errorDetail{"internal", "internal server error"}})
}

// writeJSON encodes v with the given status. Encoding failures are ignored —
// at that point the status line is already on the wire.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// sentinelMessage extracts the human-readable tail from a wrapped sentinel
// error. e.g. "service.LedgerService.Start: conflict: another time entry is
// already running" → "another time entry is already running". Falls back to
// the sentinel text when no detail was attached.
func sentinelMessage(err error, sentinel error) string {
	msg := err.Error()
	key := sentinel.Error() + ": "
	if i := strings.LastIndex(msg, key); i >= 0 {
		return msg[i+len(key):]
	}
	return sentinel.Error()
}
