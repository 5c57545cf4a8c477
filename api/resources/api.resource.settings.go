// FilePath: api/resources/api.resource.settings.go
package resources

import (
	"encoding/json"
	"net/http"

	nuts "github.com/vaudience/go-nuts"

	"github.com/verdelab/greenhub/internal/errors"
	"github.com/verdelab/greenhub/internal/greenservice"
	"github.com/verdelab/greenhub/internal/models"
)

// SettingsHandlers encapsulates the monitoring-settings HTTP handlers
type SettingsHandlers struct {
	service *greenservice.GreenService
}

// @Summary Get monitoring settings
// @Description Get the effective monitoring settings; credential fields require the admin role
// @Tags settings
// @Produce json
// @Success 200 {object} models.MonitoringSettings
// @Router /settings [get]
// @Security BearerAuth
func (h *SettingsHandlers) Get(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	settings, err := h.service.GetSettings(r.Context())
	if err != nil {
		respondWithServiceError(w, err, requestID)
		return
	}

	tokenLocked, chatLocked := h.service.Settings.EnvLocked()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"settings":           settings,
		"token_env_locked":   tokenLocked,
		"chat_id_env_locked": chatLocked,
	})
}

// @Summary Update monitoring settings
// @Description Merge a settings patch; writable fields depend on the caller's roles
// @Tags settings
// @Accept json
// @Produce json
// @Param settings body models.MonitoringSettings true "Settings patch"
// @Success 200 {object} models.MonitoringSettings
// @Failure 400 {object} errors.APIError
// @Failure 403 {object} errors.APIError
// @Router /settings [put]
// @Security BearerAuth
func (h *SettingsHandlers) Update(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var patch models.MonitoringSettings
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	updated, err := h.service.UpdateSettings(r.Context(), &patch)
	if err != nil {
		respondWithServiceError(w, err, requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}
