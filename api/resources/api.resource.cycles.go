// FilePath: api/resources/api.resource.cycles.go
package resources

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	nuts "github.com/vaudience/go-nuts"

	"github.com/verdelab/greenhub/api/middleware"
	"github.com/verdelab/greenhub/internal/errors"
	"github.com/verdelab/greenhub/internal/greenservice"
	"github.com/verdelab/greenhub/internal/models"
)

// CycleHandlers encapsulates the cultivation-cycle HTTP handlers
type CycleHandlers struct {
	service *greenservice.GreenService
}

type changeStageRequest struct {
	Stage string `json:"stage"`
}

// @Summary Start a cultivation cycle
// @Description Start a new cycle; fails when one is already active
// @Tags cycles
// @Accept json
// @Produce json
// @Param cycle body models.CultivationCycle true "Cycle details"
// @Success 201 {object} models.CultivationCycle
// @Failure 400 {object} errors.APIError
// @Failure 409 {object} errors.APIError
// @Router /cycles [post]
// @Security BearerAuth
func (h *CycleHandlers) Create(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var cycle models.CultivationCycle
	if err := json.NewDecoder(r.Body).Decode(&cycle); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}
	if user, ok := middleware.UserFromContext(r.Context()); ok {
		cycle.OwnerID = user.ID
	}

	if err := h.service.CreateCycle(r.Context(), &cycle); err != nil {
		respondWithServiceError(w, err, requestID)
		return
	}

	respondWithJSON(w, http.StatusCreated, cycle)
}

// @Summary Get a cycle
// @Tags cycles
// @Produce json
// @Param id path int true "Cycle ID"
// @Success 200 {object} models.CultivationCycle
// @Failure 404 {object} errors.APIError
// @Router /cycles/{id} [get]
func (h *CycleHandlers) Get(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	id, err := cycleID(r)
	if err != nil {
		respondWithError(w, errors.NewValidationError("invalid cycle id", err).WithRequestID(requestID))
		return
	}

	cycle, err := h.service.GetCycle(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, err, requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, cycle)
}

// @Summary Get the active cycle
// @Description Get the running cycle; 404 when none is active
// @Tags cycles
// @Produce json
// @Success 200 {object} models.CultivationCycle
// @Failure 404 {object} errors.APIError
// @Router /cycles/active [get]
func (h *CycleHandlers) GetActive(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	cycle, err := h.service.GetActiveCycle(r.Context())
	if err != nil {
		respondWithServiceError(w, err, requestID)
		return
	}
	if cycle == nil {
		respondWithError(w, errors.NewNotFoundError("no active cultivation cycle", nil).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, cycle)
}

// @Summary Update a cycle
// @Tags cycles
// @Accept json
// @Produce json
// @Param id path int true "Cycle ID"
// @Param cycle body models.CultivationCycle true "Updated cycle details"
// @Success 200 {object} models.CultivationCycle
// @Failure 400 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /cycles/{id} [put]
// @Security BearerAuth
func (h *CycleHandlers) Update(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	id, err := cycleID(r)
	if err != nil {
		respondWithError(w, errors.NewValidationError("invalid cycle id", err).WithRequestID(requestID))
		return
	}

	var cycle models.CultivationCycle
	if err := json.NewDecoder(r.Body).Decode(&cycle); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}
	cycle.ID = id

	if err := h.service.UpdateCycle(r.Context(), &cycle); err != nil {
		respondWithServiceError(w, err, requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, cycle)
}

// @Summary Finish the active cycle
// @Description Stamp the running cycle's end time
// @Tags cycles
// @Produce json
// @Success 200 {object} models.CultivationCycle
// @Failure 404 {object} errors.APIError
// @Router /cycles/active/finish [post]
// @Security BearerAuth
func (h *CycleHandlers) FinishActive(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	cycle, err := h.service.FinishActiveCycle(r.Context())
	if err != nil {
		respondWithServiceError(w, err, requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, cycle)
}

// @Summary Change the active cycle's stage
// @Tags cycles
// @Accept json
// @Produce json
// @Param request body changeStageRequest true "New stage"
// @Success 200 {object} models.CultivationCycle
// @Failure 400 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /cycles/active/stage [put]
// @Security BearerAuth
func (h *CycleHandlers) ChangeActiveStage(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var req changeStageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, errors.NewValidationError("invalid request body", err).WithRequestID(requestID))
		return
	}

	cycle, err := h.service.ChangeActiveStage(r.Context(), req.Stage)
	if err != nil {
		respondWithServiceError(w, err, requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, cycle)
}

// @Summary Delete a cycle
// @Tags cycles
// @Produce json
// @Param id path int true "Cycle ID"
// @Success 204 "No Content"
// @Failure 404 {object} errors.APIError
// @Router /cycles/{id} [delete]
// @Security BearerAuth
func (h *CycleHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	id, err := cycleID(r)
	if err != nil {
		respondWithError(w, errors.NewValidationError("invalid cycle id", err).WithRequestID(requestID))
		return
	}

	if err := h.service.DeleteCycle(r.Context(), id); err != nil {
		respondWithServiceError(w, err, requestID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// @Summary List cycles
// @Description Get a paginated, filtered cycle history
// @Tags cycles
// @Produce json
// @Param offset query int false "Offset for pagination"
// @Param limit query int false "Limit for pagination"
// @Param stage query string false "Filter by stage"
// @Param active_only query bool false "Only active cycles"
// @Success 200 {array} models.CultivationCycle
// @Router /cycles [get]
func (h *CycleHandlers) List(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)
	offset, limit := getPaginationParams(r)

	var filters models.CycleFilters
	if err := queryDecoder.Decode(&filters, r.URL.Query()); err != nil {
		respondWithError(w, errors.NewValidationError("invalid query parameters", err).WithRequestID(requestID))
		return
	}
	filters.StartedAt = startedAtRange(r)

	cycles, err := h.service.ListCycles(r.Context(), filters, offset, limit)
	if err != nil {
		respondWithServiceError(w, err, requestID)
		return
	}

	respondWithJSON(w, http.StatusOK, cycles)
}

// Helper functions

func cycleID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

func startedAtRange(r *http.Request) *models.TimeRange {
	query := r.URL.Query()
	var tr models.TimeRange
	if raw := query.Get("started_after"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			tr.Start = &t
		}
	}
	if raw := query.Get("started_before"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			tr.End = &t
		}
	}
	if tr.Start == nil && tr.End == nil {
		return nil
	}
	return &tr
}
