// FilePath: internal/greenservice/greenservice.go
package greenservice

import (
	"context"
	"time"

	"github.com/verdelab/greenhub/internal/dedup"
	"github.com/verdelab/greenhub/internal/discovery"
	"github.com/verdelab/greenhub/internal/errors"
	"github.com/verdelab/greenhub/internal/notify"
	"github.com/verdelab/greenhub/internal/repository"
	"github.com/verdelab/greenhub/internal/scheduler"
	"github.com/verdelab/greenhub/internal/settings"
)

// GreenService contains all repositories and service-wide dependencies
type GreenService struct {
	Readings   repository.ReadingRepository
	Cycles     repository.CycleRepository
	Admin      repository.AdminRepository
	Settings   *settings.Store
	Discoverer *discovery.Discoverer
	Scheduler  *scheduler.Scheduler
	Notifier   *notify.Notifier
	Dedup      *dedup.Deduplicator

	// StaleAfter classifies a source as inactive for status reporting.
	// Zero falls back to the evaluator default.
	StaleAfter time.Duration
}

// New creates a new GreenService instance
func New(
	readings repository.ReadingRepository,
	cycles repository.CycleRepository,
	admin repository.AdminRepository,
	store *settings.Store,
	discoverer *discovery.Discoverer,
	sched *scheduler.Scheduler,
	notifier *notify.Notifier,
	deduplicator *dedup.Deduplicator,
) *GreenService {
	return &GreenService{
		Readings:   readings,
		Cycles:     cycles,
		Admin:      admin,
		Settings:   store,
		Discoverer: discoverer,
		Scheduler:  sched,
		Notifier:   notifier,
		Dedup:      deduplicator,
	}
}

// Validate checks if all required dependencies are initialized
func (s *GreenService) Validate() error {
	if s.Readings == nil {
		return ErrMissingDependency("readings")
	}
	if s.Cycles == nil {
		return ErrMissingDependency("cycles")
	}
	if s.Admin == nil {
		return ErrMissingDependency("admin")
	}
	if s.Settings == nil {
		return ErrMissingDependency("settings")
	}
	if s.Discoverer == nil {
		return ErrMissingDependency("discoverer")
	}
	if s.Scheduler == nil {
		return ErrMissingDependency("scheduler")
	}
	if s.Notifier == nil {
		return ErrMissingDependency("notifier")
	}
	return nil
}

func ErrMissingDependency(name string) error {
	return errors.NewInternalError("missing dependency: "+name, nil)
}

type contextKey string

const rolesKey contextKey = "user_roles"

// WithUserRoles attaches the authenticated user's roles to the context.
func WithUserRoles(ctx context.Context, roles []string) context.Context {
	return context.WithValue(ctx, rolesKey, roles)
}

// GetUserRoles retrieves user roles from context. Unauthenticated callers
// get the guest role.
func GetUserRoles(ctx context.Context) []string {
	if roles := ctx.Value(rolesKey); roles != nil {
		if r, ok := roles.([]string); ok {
			return r
		}
	}
	return []string{"guest"}
}
