// FilePath: internal/greenservice/greenservice.sensors.go
package greenservice

import (
	"context"
	"time"

	nuts "github.com/vaudience/go-nuts"

	"github.com/verdelab/greenhub/internal/errors"
	"github.com/verdelab/greenhub/internal/evaluate"
	"github.com/verdelab/greenhub/internal/models"
)

// SensorService exposes read access to the discovered sensor sources
type SensorService interface {
	ListSources(ctx context.Context) []string
	SourceStatuses(ctx context.Context) []*models.SourceStatus
	SourceHistory(ctx context.Context, source string, limit int) ([]*models.SensorReading, error)
	GetStageAverages(ctx context.Context, source string, start, end time.Time) (*models.StageAverages, error)
}

// ListSources returns the current sensor source tables.
func (s *GreenService) ListSources(ctx context.Context) []string {
	return s.Discoverer.Discover(ctx)
}

// SourceStatuses returns the latest reading and activity classification of
// every discovered source. A source whose fetch fails is reported inactive
// rather than dropped, so the dashboard always shows the full set.
func (s *GreenService) SourceStatuses(ctx context.Context) []*models.SourceStatus {
	now := time.Now()
	staleAfter := s.StaleAfter
	if staleAfter <= 0 {
		staleAfter = evaluate.DefaultStaleAfter
	}

	sources := s.Discoverer.Discover(ctx)
	statuses := make([]*models.SourceStatus, 0, len(sources))
	for _, source := range sources {
		status := &models.SourceStatus{
			SourceID:  source,
			Inactive:  true,
			CheckedAt: now,
		}

		reading, err := s.Readings.FetchLatest(ctx, source)
		if err != nil {
			nuts.L.Warnf("[SensorService] Failed to fetch latest reading of %s: %v", source, err)
		} else if reading != nil {
			status.Reading = reading
			status.LastSeen = reading.CreatedAt
			status.Inactive = now.Sub(reading.CreatedAt) > staleAfter
		}

		statuses = append(statuses, status)
	}
	return statuses
}

// SourceHistory returns up to limit recent readings of one source, newest
// first. The source name must come from discovery.
func (s *GreenService) SourceHistory(ctx context.Context, source string, limit int) ([]*models.SensorReading, error) {
	if !s.knownSource(ctx, source) {
		return nil, errors.NewNotFoundError("unknown sensor source: "+source, nil)
	}

	readings, err := s.Readings.FetchRecent(ctx, source, limit)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to fetch readings", err)
	}
	return readings, nil
}

// GetStageAverages computes per-parameter averages of one source over a
// time window, via the server-side aggregation procedure.
func (s *GreenService) GetStageAverages(ctx context.Context, source string, start, end time.Time) (*models.StageAverages, error) {
	if !s.knownSource(ctx, source) {
		return nil, errors.NewNotFoundError("unknown sensor source: "+source, nil)
	}
	if !end.After(start) {
		return nil, errors.NewValidationError("window end must be after start", nil)
	}

	averages, err := s.Readings.StageAverages(ctx, source, start, end)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to compute stage averages", err)
	}
	return averages, nil
}

// knownSource guards table-name inputs: only names produced by discovery
// ever reach the repository layer.
func (s *GreenService) knownSource(ctx context.Context, source string) bool {
	for _, known := range s.Discoverer.Discover(ctx) {
		if known == source {
			return true
		}
	}
	return false
}
