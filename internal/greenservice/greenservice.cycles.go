// FilePath: internal/greenservice/greenservice.cycles.go
package greenservice

import (
	"context"
	"time"

	"github.com/itsatony/struccy"
	nuts "github.com/vaudience/go-nuts"

	"github.com/verdelab/greenhub/internal/errors"
	"github.com/verdelab/greenhub/internal/models"
	"github.com/verdelab/greenhub/internal/repository"
)

// CycleService handles cultivation-cycle business logic
type CycleService interface {
	CreateCycle(ctx context.Context, cycle *models.CultivationCycle) error
	GetCycle(ctx context.Context, id int64) (*models.CultivationCycle, error)
	GetActiveCycle(ctx context.Context) (*models.CultivationCycle, error)
	UpdateCycle(ctx context.Context, cycle *models.CultivationCycle) error
	FinishActiveCycle(ctx context.Context) (*models.CultivationCycle, error)
	ChangeActiveStage(ctx context.Context, stage string) (*models.CultivationCycle, error)
	DeleteCycle(ctx context.Context, id int64) error
	ListCycles(ctx context.Context, filters models.CycleFilters, offset, limit int) ([]*models.CultivationCycle, error)
}

// isNotFound matches both the typed error and the repository sentinel.
func isNotFound(err error) bool {
	return errors.IsNotFound(err) || err == repository.ErrNotFound
}

// CreateCycle starts a new cultivation cycle. At most one cycle may be
// active, so a running cycle must be finished first.
func (s *GreenService) CreateCycle(ctx context.Context, cycle *models.CultivationCycle) error {
	if cycle.PlantType == "" {
		return errors.NewValidationError("plant type is required", nil)
	}
	if cycle.PlantCount <= 0 {
		return errors.NewValidationError("plant count must be positive", nil)
	}
	if _, ok := models.NormalizeStage(cycle.Stage); !ok {
		return errors.NewValidationError("unknown growth stage: "+cycle.Stage, nil)
	}

	active, err := s.Cycles.GetActive(ctx)
	if err != nil {
		return errors.NewDatabaseError("failed to check for active cycle", err)
	}
	if active != nil {
		return errors.NewConflictError("a cultivation cycle is already active", nil)
	}

	now := time.Now()
	if cycle.StartedAt.IsZero() {
		cycle.StartedAt = now
	}
	cycle.EndedAt = nil
	cycle.CreatedAt = now
	cycle.UpdatedAt = now

	nuts.L.Infof("[CycleService] Starting cultivation cycle: %s (%d plants, %s)",
		cycle.PlantType, cycle.PlantCount, cycle.Stage)
	if err := s.Cycles.Create(ctx, cycle); err != nil {
		return errors.NewDatabaseError("failed to create cycle", err)
	}

	// A fresh cycle may carry a different stage than the previous one.
	s.Discoverer.Invalidate(ctx)
	return nil
}

// GetCycle retrieves a cycle with role-based field filtering
func (s *GreenService) GetCycle(ctx context.Context, id int64) (*models.CultivationCycle, error) {
	cycle, err := s.Cycles.Get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NewNotFoundError("cycle not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get cycle", err)
	}
	return s.filterCycle(ctx, cycle)
}

// GetActiveCycle returns the running cycle, or nil when none is active.
func (s *GreenService) GetActiveCycle(ctx context.Context) (*models.CultivationCycle, error) {
	cycle, err := s.Cycles.GetActive(ctx)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to get active cycle", err)
	}
	if cycle == nil {
		return nil, nil
	}
	return s.filterCycle(ctx, cycle)
}

// UpdateCycle updates a cycle with role-based access control
func (s *GreenService) UpdateCycle(ctx context.Context, cycle *models.CultivationCycle) error {
	existing, err := s.Cycles.Get(ctx, cycle.ID)
	if err != nil {
		if isNotFound(err) {
			return errors.NewNotFoundError("cycle not found", err)
		}
		return errors.NewDatabaseError("failed to get cycle", err)
	}

	if cycle.Stage != "" {
		if _, ok := models.NormalizeStage(cycle.Stage); !ok {
			return errors.NewValidationError("unknown growth stage: "+cycle.Stage, nil)
		}
	}

	roles := GetUserRoles(ctx)
	updatedFields, _, err := struccy.UpdateStructFields(existing, cycle, roles, true, true)
	if err != nil {
		return errors.NewAuthorizationError("unauthorized field update", err)
	}
	existing.UpdatedAt = time.Now()

	nuts.L.Infof("[CycleService] Updating cycle %d, fields changed: %v", cycle.ID, updatedFields)
	if err := s.Cycles.Update(ctx, existing); err != nil {
		return errors.NewDatabaseError("failed to update cycle", err)
	}
	*cycle = *existing
	return nil
}

// FinishActiveCycle closes the running cycle by stamping its end time.
func (s *GreenService) FinishActiveCycle(ctx context.Context) (*models.CultivationCycle, error) {
	active, err := s.Cycles.GetActive(ctx)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to get active cycle", err)
	}
	if active == nil {
		return nil, errors.NewNotFoundError("no active cultivation cycle", nil)
	}

	now := time.Now()
	active.EndedAt = &now
	active.UpdatedAt = now

	nuts.L.Infof("[CycleService] Finishing cultivation cycle %d (%s)", active.ID, active.PlantType)
	if err := s.Cycles.Update(ctx, active); err != nil {
		return nil, errors.NewDatabaseError("failed to finish cycle", err)
	}
	return active, nil
}

// ChangeActiveStage moves the running cycle to a new growth stage. The next
// check cycle picks the stage up automatically.
func (s *GreenService) ChangeActiveStage(ctx context.Context, stage string) (*models.CultivationCycle, error) {
	canonical, ok := models.NormalizeStage(stage)
	if !ok {
		return nil, errors.NewValidationError("unknown growth stage: "+stage, nil)
	}

	active, err := s.Cycles.GetActive(ctx)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to get active cycle", err)
	}
	if active == nil {
		return nil, errors.NewNotFoundError("no active cultivation cycle", nil)
	}

	active.Stage = string(canonical)
	active.UpdatedAt = time.Now()

	nuts.L.Infof("[CycleService] Cycle %d moved to stage %s", active.ID, canonical)
	if err := s.Cycles.Update(ctx, active); err != nil {
		return nil, errors.NewDatabaseError("failed to change stage", err)
	}
	return active, nil
}

// DeleteCycle removes a cycle permanently.
func (s *GreenService) DeleteCycle(ctx context.Context, id int64) error {
	if err := s.Cycles.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return errors.NewNotFoundError("cycle not found", err)
		}
		return errors.NewDatabaseError("failed to delete cycle", err)
	}
	nuts.L.Infof("[CycleService] Deleted cycle %d", id)
	return nil
}

// ListCycles retrieves a paginated, filtered cycle history with role-based
// field filtering.
func (s *GreenService) ListCycles(ctx context.Context, filters models.CycleFilters, offset, limit int) ([]*models.CultivationCycle, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	cycles, err := s.Cycles.List(ctx, filters, offset, limit)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list cycles", err)
	}

	filtered := make([]*models.CultivationCycle, 0, len(cycles))
	for _, cycle := range cycles {
		fc, err := s.filterCycle(ctx, cycle)
		if err != nil {
			nuts.L.Warnf("[CycleService] Failed to filter cycle %d: %v", cycle.ID, err)
			continue
		}
		filtered = append(filtered, fc)
	}
	return filtered, nil
}

func (s *GreenService) filterCycle(ctx context.Context, cycle *models.CultivationCycle) (*models.CultivationCycle, error) {
	roles := GetUserRoles(ctx)

	filteredMap, err := struccy.StructToMapFieldsWithReadXS(cycle, roles)
	if err != nil {
		return nil, errors.NewInternalError("failed to filter cycle fields", err)
	}
	filtered := &models.CultivationCycle{}
	if _, err := struccy.MergeMapStringFieldsToStruct(filtered, filteredMap, roles); err != nil {
		return nil, errors.NewInternalError("failed to map filtered fields to cycle struct", err)
	}
	return filtered, nil
}
