// FilePath: api/resources/resources.go
package resources

import (
	"encoding/json"
	"net/http"
	"strconv"

	nuts "github.com/vaudience/go-nuts"

	"github.com/verdelab/greenhub/internal/errors"
	"github.com/verdelab/greenhub/internal/greenservice"
)

// Resources holds all HTTP resource handlers
type Resources struct {
	Monitoring  *MonitoringHandlers
	Settings    *SettingsHandlers
	Sensors     *SensorHandlers
	Cycles      *CycleHandlers
	Admin       *AdminHandlers
	HealthCheck func(w http.ResponseWriter, r *http.Request)
	Metrics     http.Handler
}

// NewResources creates a new Resources instance
func NewResources(svc *greenservice.GreenService) *Resources {
	return &Resources{
		Monitoring: &MonitoringHandlers{service: svc},
		Settings:   &SettingsHandlers{service: svc},
		Sensors:    &SensorHandlers{service: svc},
		Cycles:     &CycleHandlers{service: svc},
		Admin:      &AdminHandlers{service: svc},
	}
}

// SetHealthCheck sets the health check handler
func (r *Resources) SetHealthCheck(h func(w http.ResponseWriter, r *http.Request)) {
	r.HealthCheck = h
}

// SetMetrics sets the metrics handler
func (r *Resources) SetMetrics(h http.Handler) {
	r.Metrics = h
}

// Helper functions

func getPaginationParams(r *http.Request) (offset, limit int) {
	query := r.URL.Query()
	offset, _ = strconv.Atoi(query.Get("offset"))
	limit, _ = strconv.Atoi(query.Get("limit"))

	if limit <= 0 || limit > 100 {
		limit = 50 // Default limit
	}
	if offset < 0 {
		offset = 0
	}

	return offset, limit
}

func respondWithError(w http.ResponseWriter, err *errors.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(err)
	nuts.L.Errorf("[API] %s", err.Error())
}

// respondWithServiceError passes service-layer APIErrors through with their
// own status code, wrapping anything else as internal.
func respondWithServiceError(w http.ResponseWriter, err error, requestID string) {
	if apiErr, ok := err.(*errors.APIError); ok {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}
	respondWithError(w, errors.NewInternalError("unexpected error", err).WithRequestID(requestID))
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
