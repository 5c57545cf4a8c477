// FilePath: api/resources/api.resource.admin.go
package resources

import (
	"encoding/json"
	"net/http"

	nuts "github.com/vaudience/go-nuts"

	"github.com/verdelab/greenhub/internal/errors"
	"github.com/verdelab/greenhub/internal/greenservice"
)

// AdminHandlers encapsulates the admin HTTP handlers
type AdminHandlers struct {
	service *greenservice.GreenService
}

type adminQueryRequest struct {
	Query string `json:"query"`
}

// @Summary Run a read-only query
// @Description Execute a SELECT statement through the sandboxed procedure
// @Tags admin
// @Accept json
// @Produce json
// @Param request body adminQueryRequest true "SQL query"
// @Success 200 {array} object
// @Failure 400 {object} errors.APIError
// @Router /admin/query [post]
// @Security BearerAuth
func (h *AdminHandlers) Query(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var req adminQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	rows, err := h.service.RunAdminQuery(r.Context(), req.Query)
	if err != nil {
		respondWithServiceError(w, err, requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, rows)
}

// @Summary Invalidate the sensor source cache
// @Description Force rediscovery of sensor tables on the next check
// @Tags admin
// @Produce json
// @Success 204 "No Content"
// @Router /admin/sensors/rediscover [post]
// @Security BearerAuth
func (h *AdminHandlers) RediscoverSensors(w http.ResponseWriter, r *http.Request) {
	h.service.Discoverer.Invalidate(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
