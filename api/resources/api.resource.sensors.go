// FilePath: api/resources/api.resource.sensors.go
package resources

import (
	"net/http"
	"reflect"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	nuts "github.com/vaudience/go-nuts"

	"github.com/verdelab/greenhub/internal/errors"
	"github.com/verdelab/greenhub/internal/greenservice"
)

// SensorHandlers encapsulates the sensor-source HTTP handlers
type SensorHandlers struct {
	service *greenservice.GreenService
}

var queryDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	d.RegisterConverter(time.Time{}, convertTimeRFC3339)
	return d
}()

type averagesQuery struct {
	Start time.Time `schema:"start"`
	End   time.Time `schema:"end"`
}

// @Summary List sensor sources
// @Description Get the discovered sensor source tables
// @Tags sensors
// @Produce json
// @Success 200 {array} string
// @Router /sensors/tables [get]
func (h *SensorHandlers) ListSources(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.service.ListSources(r.Context()))
}

// @Summary Sensor statuses
// @Description Get the latest reading and activity state of every source
// @Tags sensors
// @Produce json
// @Success 200 {array} models.SourceStatus
// @Router /sensors/status [get]
func (h *SensorHandlers) Statuses(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.service.SourceStatuses(r.Context()))
}

// @Summary Sensor reading history
// @Description Get recent readings of one source, newest first
// @Tags sensors
// @Produce json
// @Param source path string true "Sensor source"
// @Param limit query int false "Maximum readings"
// @Success 200 {array} models.SensorReading
// @Failure 404 {object} errors.APIError
// @Router /sensors/{source}/latest [get]
func (h *SensorHandlers) History(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	source := vars["source"]
	requestID := nuts.NID("req", 12)
	_, limit := getPaginationParams(r)

	readings, err := h.service.SourceHistory(r.Context(), source, limit)
	if err != nil {
		respondWithServiceError(w, err, requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, readings)
}

// @Summary Stage averages
// @Description Get per-parameter averages of one source over a time window
// @Tags sensors
// @Produce json
// @Param source path string true "Sensor source"
// @Param start query string true "Window start (RFC3339)"
// @Param end query string true "Window end (RFC3339)"
// @Success 200 {object} models.StageAverages
// @Failure 400 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /sensors/{source}/averages [get]
func (h *SensorHandlers) Averages(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	source := vars["source"]
	requestID := nuts.NID("req", 12)

	var query averagesQuery
	if err := queryDecoder.Decode(&query, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}
	if query.Start.IsZero() || query.End.IsZero() {
		respondWithError(w, errors.NewValidationError("start and end are required", nil).WithRequestID(requestID))
		return
	}

	averages, err := h.service.GetStageAverages(r.Context(), source, query.Start, query.End)
	if err != nil {
		respondWithServiceError(w, err, requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, averages)
}

func convertTimeRFC3339(value string) reflect.Value {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return reflect.Value{}
	}
	return reflect.ValueOf(t)
}
