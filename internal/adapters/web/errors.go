package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"stock-pos/internal/core"
	"stock-pos/internal/logging"
)

type errorResponse struct {
	Error      string            `json:"error"`
	Code       string            `json:"code"`
	RequestID  string            `json:"request_id,omitempty"`
	Shortfalls []core.Shortfall  `json:"shortfalls,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	writeErrorResponse(w, r, errorResponse{Error: message, Code: code}, status)
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, resp errorResponse, status int) {
	resp.RequestID = requestIDFromContext(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeCreated writes a JSON response with status 201.
func writeCreated(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(v)
}

// statusForError maps a core error kind to an HTTP status and error code.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrInvalidInput):
		return http.StatusBadRequest, "BAD_REQUEST"
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, core.ErrInsufficientStock):
		return http.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, core.ErrInvalidCredentials):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// writeServiceError translates an error returned by the application service.
// Internal errors are logged and hidden from the client.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status, code := statusForError(err)
	if status == http.StatusInternalServerError {
		logging.LogError(h.log.WithField("request_id", requestIDFromContext(r.Context())), "web", operation, nil, err)
		writeError(w, r, "internal server error", code, status)
		return
	}
	writeErrorResponse(w, r, errorResponse{
		Error:      err.Error(),
		Code:       code,
		Shortfalls: core.ShortfallsOf(err),
	}, status)
}
