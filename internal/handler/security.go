package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"propcost/internal/models"
)

const maxBodyBytes = 1 << 16

type resolveRequest struct {
	ThreatID   string `json:"threatId"`
	Resolution string `json:"resolution"`
}

type monitoringRequest struct {
	Enabled *bool `json:"enabled"`
}

// admin rejects callers without the security administrator capability
// before any request body is read.
func (h *Handler) admin(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user := userFrom(r.Context())
	switch {
	case !user.IsAuth:
		h.writeServiceError(w, models.ErrUnauthenticated, "")
		return user, false
	case !user.CanAdministerSecurity(h.Config.Security.AdminRoles):
		zerolog.Ctx(r.Context()).Warn().Int("user_id", user.Id).Str("role", user.Role).Msg("security access denied")
		h.writeServiceError(w, models.ErrUnauthorized, "")
		return user, false
	}
	return user, true
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", http.StatusText(http.StatusMethodNotAllowed))
		return
	}

	d, err := h.Service.Dashboard(r.Context(), userFrom(r.Context()), r.URL.Query().Get("timeframe"))
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("dashboard request failed")
		h.writeServiceError(w, err, "failed to fetch security data")
		return
	}
	h.writeJSON(w, http.StatusOK, d)
}

func (h *Handler) resolveThreat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", http.StatusText(http.StatusMethodNotAllowed))
		return
	}

	user, ok := h.admin(w, r)
	if !ok {
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	if err := h.Service.ResolveThreat(r.Context(), user, req.ThreatID, req.Resolution); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Str("threat_id", req.ThreatID).Msg("resolve request failed")
		h.writeServiceError(w, err, "failed to resolve threat")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) toggleMonitoring(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", http.StatusText(http.StatusMethodNotAllowed))
		return
	}

	user, ok := h.admin(w, r)
	if !ok {
		return
	}

	var req monitoringRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil || req.Enabled == nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	if err := h.Service.ToggleMonitoring(r.Context(), user, *req.Enabled); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("monitoring toggle failed")
		h.writeServiceError(w, err, "failed to update monitoring")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true, "enabled": *req.Enabled})
}
