package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"musicrec/internal/domain"
	"musicrec/internal/logging"
	"musicrec/internal/usecase"
)

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("failed to write JSON response")
	}
}

// respondError writes {"error": message}. err, when set, is logged but not
// sent to the client.
func respondError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if err != nil {
		ev := logging.Ctx(r.Context()).Warn()
		if status >= http.StatusInternalServerError {
			ev = logging.Ctx(r.Context()).Error()
		}
		ev.Err(err).Int("status", status).Msg(message)
	}

	respondJSON(w, status, errorResponse{
		Error:     message,
		RequestID: logging.RequestIDFromContext(r.Context()),
	})
}

// statusFor maps domain and infrastructure errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrReindexRunning):
		return http.StatusConflict
	case errors.Is(err, domain.ErrCollectionNotFound),
		errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
