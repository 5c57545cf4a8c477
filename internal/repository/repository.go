// FilePath: internal/repository/repository.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/verdelab/greenhub/internal/models"
)

var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("resource not found")
	// ErrDuplicate indicates that a resource already exists
	ErrDuplicate = errors.New("resource already exists")
	// ErrInvalidInput indicates that the input data is invalid
	ErrInvalidInput = errors.New("invalid input")
)

// ReadingRepository reads sensor sample tables. Table names follow the
// sensor_<n> convention and are produced by discovery, never by user input.
type ReadingRepository interface {
	// FetchLatest returns the newest reading of a source, (nil, nil) when
	// the source has no rows.
	FetchLatest(ctx context.Context, table string) (*models.SensorReading, error)
	// FetchRecent returns up to limit readings, newest first.
	FetchRecent(ctx context.Context, table string, limit int) ([]*models.SensorReading, error)
	// ProbeSource reports whether a source table exists. (false, nil) means
	// the table is missing; (false, err) means the probe itself failed and
	// existence is unknown.
	ProbeSource(ctx context.Context, table string) (bool, error)
	// ListSensorTables invokes the get_sensor_tables server-side procedure.
	ListSensorTables(ctx context.Context) ([]string, error)
	// StageAverages invokes the get_stage_averages procedure for one source
	// over a time window.
	StageAverages(ctx context.Context, table string, start, end time.Time) (*models.StageAverages, error)
}

// SettingsRepository persists the single notification_settings row.
type SettingsRepository interface {
	Get(ctx context.Context) (*models.MonitoringSettings, error)
	Update(ctx context.Context, settings *models.MonitoringSettings) error
}

// CycleRepository manages cultivation cycles.
type CycleRepository interface {
	Create(ctx context.Context, cycle *models.CultivationCycle) error
	Get(ctx context.Context, id int64) (*models.CultivationCycle, error)
	// GetActive returns the running cycle, (nil, nil) when none is active.
	GetActive(ctx context.Context) (*models.CultivationCycle, error)
	Update(ctx context.Context, cycle *models.CultivationCycle) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filters models.CycleFilters, offset, limit int) ([]*models.CultivationCycle, error)
}

// AdminRepository exposes the read-only SQL console procedure.
type AdminRepository interface {
	RunReadOnlyQuery(ctx context.Context, query string) ([]map[string]interface{}, error)
}
