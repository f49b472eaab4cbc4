package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"propcost/internal/models"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// writeServiceError maps a service error onto a status and a fixed
// message. fallback is shown for store and internal failures so raw store
// errors never reach the client.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, models.ErrUnauthenticated):
		h.writeError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
	case errors.Is(err, models.ErrUnauthorized):
		h.writeError(w, http.StatusForbidden, "forbidden", "access denied")
	case errors.Is(err, models.ErrInvalidTimeframe):
		h.writeError(w, http.StatusBadRequest, "invalid_timeframe", "timeframe must be one of 1h, 24h, 7d")
	case errors.Is(err, models.ErrInvalidRequest):
		h.writeError(w, http.StatusBadRequest, "invalid_request", "invalid request")
	case errors.Is(err, models.ErrThreatNotFound):
		h.writeError(w, http.StatusNotFound, "not_found", "threat not found")
	case errors.Is(err, models.ErrStoreUnavailable):
		h.writeError(w, http.StatusServiceUnavailable, "unavailable", fallback)
	default:
		h.writeError(w, http.StatusInternalServerError, "internal", fallback)
	}
}
