package server

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/grabtune/grabtune/internal/cookies"
	"github.com/grabtune/grabtune/internal/queue"
)

// ErrorResponse is the JSON error payload used by every endpoint.
//
// Example:
//
//	{
//	  "error": "Not Found",
//	  "code": "JOB_NOT_FOUND",
//	  "message": "job 4f0c... not found"
//	}
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// writeError maps the queue and cookie error taxonomy onto HTTP statuses:
// ValidationError and FormatError → 400, NotFoundError → 404,
// InvalidStateError → 409, anything else → 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		status int
		code   string
	)

	var vErr *queue.ValidationError
	var nfErr *queue.NotFoundError
	var isErr *queue.InvalidStateError
	var fErr *cookies.FormatError

	switch {
	case errors.As(err, &vErr):
		status = http.StatusBadRequest
		code = "INVALID_INPUT"
	case errors.As(err, &fErr):
		status = http.StatusBadRequest
		code = "INVALID_COOKIE_FILE"
	case errors.Is(err, fs.ErrNotExist):
		status = http.StatusBadRequest
		code = "FILE_NOT_FOUND"
	case errors.As(err, &nfErr):
		status = http.StatusNotFound
		code = "JOB_NOT_FOUND"
	case errors.As(err, &isErr):
		status = http.StatusConflict
		code = "INVALID_STATE"
	default:
		status = http.StatusInternalServerError
		code = "INTERNAL_ERROR"
	}

	logEvent := log.Warn()
	if status >= 500 {
		logEvent = log.Error()
	}
	logEvent.
		Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Msg("request failed")

	writeJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Code:    code,
		Message: err.Error(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
