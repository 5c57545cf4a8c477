// FilePath: internal/repository/postgres/postgres.readings.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/verdelab/greenhub/internal/database"
	"github.com/verdelab/greenhub/internal/errors"
	"github.com/verdelab/greenhub/internal/models"
	"github.com/verdelab/greenhub/internal/repository"
)

// pq error code for "relation does not exist"; lets the probe tell a
// missing table apart from a transient failure.
const pqUndefinedTable = "42P01"

const maxRecentReadings = 300

// sensorTablePattern guards identifier interpolation: table names cannot be
// bound as query parameters, so only the sensor_<n> convention is accepted.
var sensorTablePattern = regexp.MustCompile(`^sensor_[0-9]+$`)

type ReadingRepo struct {
	PostgresBaseRepo
}

func NewReadingRepository(db database.DB) repository.ReadingRepository {
	repo := &PostgresBaseRepo{db: db}
	return &ReadingRepo{PostgresBaseRepo: *repo}
}

func validTableName(table string) error {
	if !sensorTablePattern.MatchString(table) {
		return errors.NewValidationError(fmt.Sprintf("invalid sensor table name %q", table), nil)
	}
	return nil
}

func (r *ReadingRepo) FetchLatest(ctx context.Context, table string) (*models.SensorReading, error) {
	if err := validTableName(table); err != nil {
		return nil, err
	}

	reading := &models.SensorReading{}
	query := fmt.Sprintf(
		`SELECT id, temperature, humidity, soil_humidity, created_at FROM %s ORDER BY created_at DESC LIMIT 1`,
		table,
	)

	err := r.db.GetDB().GetContext(ctx, reading, query)
	if err != nil {
		if err == sql.ErrNoRows {
			// No rows is data absence, not an error.
			return nil, nil
		}
		return nil, errors.NewDatabaseError("failed to fetch latest reading", err)
	}

	reading.SourceID = table
	return reading, nil
}

func (r *ReadingRepo) FetchRecent(ctx context.Context, table string, limit int) ([]*models.SensorReading, error) {
	if err := validTableName(table); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxRecentReadings {
		limit = maxRecentReadings
	}

	readings := []*models.SensorReading{}
	query := fmt.Sprintf(
		`SELECT id, temperature, humidity, soil_humidity, created_at FROM %s ORDER BY created_at DESC LIMIT $1`,
		table,
	)

	err := r.db.GetDB().SelectContext(ctx, &readings, query, limit)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to fetch readings", err)
	}

	for _, reading := range readings {
		reading.SourceID = table
	}
	return readings, nil
}

func (r *ReadingRepo) ProbeSource(ctx context.Context, table string) (bool, error) {
	if err := validTableName(table); err != nil {
		return false, err
	}

	var id int64
	query := fmt.Sprintf(`SELECT id FROM %s LIMIT 1`, table)

	err := r.db.GetDB().GetContext(ctx, &id, query)
	if err == nil || err == sql.ErrNoRows {
		// An empty table still exists.
		return true, nil
	}
	if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == pqUndefinedTable {
		return false, nil
	}
	return false, errors.NewDatabaseError("failed to probe sensor table", err)
}

func (r *ReadingRepo) ListSensorTables(ctx context.Context) ([]string, error) {
	names := []string{}
	query := `SELECT table_name FROM get_sensor_tables()`

	err := r.db.GetDB().SelectContext(ctx, &names, query)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list sensor tables", err)
	}

	tables := make([]string, 0, len(names))
	for _, name := range names {
		if strings.HasPrefix(name, "sensor_") && sensorTablePattern.MatchString(name) {
			tables = append(tables, name)
		}
	}
	return tables, nil
}

func (r *ReadingRepo) StageAverages(ctx context.Context, table string, start, end time.Time) (*models.StageAverages, error) {
	if err := validTableName(table); err != nil {
		return nil, err
	}

	averages := &models.StageAverages{}
	query := `SELECT avg_temperature, avg_humidity, avg_soil_humidity, sample_count FROM get_stage_averages($1, $2, $3)`

	err := r.db.GetDB().GetContext(ctx, averages, query, table, start, end)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("no readings in window", err)
		}
		return nil, errors.NewDatabaseError("failed to compute stage averages", err)
	}
	return averages, nil
}
