// FilePath: api/resources/api.resource.monitoring.go
package resources

import (
	"encoding/json"
	"net/http"

	nuts "github.com/vaudience/go-nuts"

	"github.com/verdelab/greenhub/internal/errors"
	"github.com/verdelab/greenhub/internal/greenservice"
)

// MonitoringHandlers encapsulates the scheduler-control HTTP handlers
type MonitoringHandlers struct {
	service *greenservice.GreenService
}

type startMonitoringRequest struct {
	IntervalMinutes int `json:"interval_minutes"`
}

// @Summary Start monitoring
// @Description Start periodic sensor checks at the given interval
// @Tags monitoring
// @Accept json
// @Produce json
// @Param request body startMonitoringRequest true "Check interval"
// @Success 200 {object} models.MonitoringStatus
// @Failure 400 {object} errors.APIError
// @Router /monitoring/start [post]
// @Security BearerAuth
func (h *MonitoringHandlers) Start(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var req startMonitoringRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
			return
		}
	}
	if req.IntervalMinutes == 0 {
		req.IntervalMinutes = h.service.Settings.Current().IntervalMinutes
	}

	status := h.service.StartMonitoring(r.Context(), req.IntervalMinutes)
	respondWithJSON(w, http.StatusOK, status)
}

// @Summary Stop monitoring
// @Description Stop periodic sensor checks
// @Tags monitoring
// @Produce json
// @Success 200 {object} models.MonitoringStatus
// @Router /monitoring/stop [post]
// @Security BearerAuth
func (h *MonitoringHandlers) Stop(w http.ResponseWriter, r *http.Request) {
	status := h.service.StopMonitoring(r.Context())
	respondWithJSON(w, http.StatusOK, status)
}

// @Summary Monitoring status
// @Description Get the current scheduler state
// @Tags monitoring
// @Produce json
// @Success 200 {object} models.MonitoringStatus
// @Router /monitoring/status [get]
func (h *MonitoringHandlers) Status(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.service.MonitoringStatus())
}

// @Summary Run a check now
// @Description Trigger one check cycle immediately
// @Tags monitoring
// @Produce json
// @Success 200 {object} models.MonitoringStatus
// @Failure 500 {object} errors.APIError
// @Router /monitoring/check [post]
// @Security BearerAuth
func (h *MonitoringHandlers) Check(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	if err := h.service.RunCheck(r.Context()); err != nil {
		respondWithServiceError(w, err, requestID)
		return
	}
	respondWithJSON(w, http.StatusOK, h.service.MonitoringStatus())
}

// @Summary Send a test notification
// @Description Send a canned message through the configured chat channel
// @Tags monitoring
// @Produce json
// @Success 204 "No Content"
// @Failure 400 {object} errors.APIError
// @Failure 503 {object} errors.APIError
// @Router /notifications/test [post]
// @Security BearerAuth
func (h *MonitoringHandlers) TestNotification(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	if err := h.service.SendTestNotification(); err != nil {
		respondWithServiceError(w, err, requestID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
