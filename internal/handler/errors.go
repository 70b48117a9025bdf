package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pkordes/tripweaver/backend/internal/domain"
)

// envelope is the uniform response wrapper: exactly one of Data and Error
// is non-null.
type envelope struct {
	Data  any        `json:"data"`
	Error *errorBody `json:"error"`
}

// errorBody is the caller-facing error shape.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Conflicts carries the structured pair list for conflict-gate errors,
	// so the caller can drive resolution.
	Conflicts []domain.ConflictPair `json:"conflicts,omitempty"`
}

// writeData writes a success envelope.
func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Data: data})
}

// writeError writes an error envelope.
func writeError(w http.ResponseWriter, status int, body errorBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Error: &body})
}

// writeRequestError rejects a bad request before it reaches the service
// layer (e.g. missing or malformed body).
func writeRequestError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnprocessableEntity, errorBody{Code: "validation_error", Message: message})
}

// writeServiceError maps a service-layer error onto the taxonomy's status
// codes. Unrecognized errors become opaque 500s; the detail goes to the log,
// not the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		gate *domain.ConflictGateError
		race *domain.VersionRaceError
	)
	switch {
	case errors.As(err, &gate):
		writeError(w, http.StatusConflict, errorBody{
			Code:      "conflict_gate",
			Message:   gate.Error(),
			Conflicts: gate.Conflicts,
		})
	case errors.As(err, &race):
		writeError(w, http.StatusConflict, errorBody{Code: "version_race", Message: race.Error()})
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, errorBody{Code: "validation_error", Message: unwrapMessage(err)})
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, errorBody{Code: "not_found", Message: "resource not found"})
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, errorBody{Code: "forbidden", Message: unwrapMessage(err)})
	case errors.Is(err, domain.ErrQuotaExceeded):
		writeError(w, http.StatusTooManyRequests, errorBody{Code: "quota_exceeded", Message: unwrapMessage(err)})
	case errors.Is(err, domain.ErrGeneration):
		// Safe to retry: a generation failure commits no partial state.
		writeError(w, http.StatusBadGateway, errorBody{Code: "generation_failed", Message: "itinerary generation failed, please retry"})
	default:
		slog.ErrorContext(r.Context(), "unhandled service error", "error", err)
		writeError(w, http.StatusInternalServerError, errorBody{Code: "internal", Message: "internal server error"})
	}
}

// unwrapMessage strips the "service.X.Y: " prefixes from a wrapped sentinel
// error, leaving the human-readable part.
// e.g. "service.TripService.Create: validation error: destination is required"
// → "destination is required".
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, sentinel := range []string{
		domain.ErrValidation.Error() + ": ",
		domain.ErrForbidden.Error() + ": ",
		domain.ErrQuotaExceeded.Error() + ": ",
	} {
		if i := strings.Index(msg, sentinel); i != -1 {
			return msg[i+len(sentinel):]
		}
	}
	// Fall back to everything after the last layer prefix.
	if i := strings.LastIndex(msg, ": "); i != -1 {
		return msg[i+2:]
	}
	return msg
}
