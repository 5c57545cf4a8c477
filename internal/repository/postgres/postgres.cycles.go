// FilePath: internal/repository/postgres/postgres.cycles.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/verdelab/greenhub/internal/database"
	"github.com/verdelab/greenhub/internal/errors"
	"github.com/verdelab/greenhub/internal/models"
	"github.com/verdelab/greenhub/internal/repository"
)

type CycleRepo struct {
	PostgresBaseRepo
}

func NewCycleRepository(db database.DB) repository.CycleRepository {
	repo := &PostgresBaseRepo{db: db}
	return &CycleRepo{PostgresBaseRepo: *repo}
}

func (r *CycleRepo) Create(ctx context.Context, cycle *models.CultivationCycle) error {
	query := `
		INSERT INTO cultivation_cycles (
			owner_id, plant_type, plant_count, stage,
			started_at, ended_at, notes, created_at, updated_at
		) VALUES (
			:owner_id, :plant_type, :plant_count, :stage,
			:started_at, :ended_at, :notes, :created_at, :updated_at
		) RETURNING id`

	rows, err := r.db.GetDB().NamedQueryContext(ctx, query, cycle)
	if err != nil {
		return errors.NewDatabaseError("failed to create cycle", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&cycle.ID); err != nil {
			return errors.NewDatabaseError("failed to read new cycle id", err)
		}
	}
	return nil
}

func (r *CycleRepo) Get(ctx context.Context, id int64) (*models.CultivationCycle, error) {
	cycle := &models.CultivationCycle{}
	query := `SELECT * FROM cultivation_cycles WHERE id = $1`

	err := r.db.GetDB().GetContext(ctx, cycle, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("cycle not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get cycle", err)
	}
	return cycle, nil
}

func (r *CycleRepo) GetActive(ctx context.Context) (*models.CultivationCycle, error) {
	cycle := &models.CultivationCycle{}
	query := `
		SELECT * FROM cultivation_cycles
		WHERE ended_at IS NULL
		ORDER BY started_at DESC
		LIMIT 1`

	err := r.db.GetDB().GetContext(ctx, cycle, query)
	if err != nil {
		if err == sql.ErrNoRows {
			// No active cycle is a normal state, not an error.
			return nil, nil
		}
		return nil, errors.NewDatabaseError("failed to get active cycle", err)
	}
	return cycle, nil
}

func (r *CycleRepo) Update(ctx context.Context, cycle *models.CultivationCycle) error {
	query := `
		UPDATE cultivation_cycles SET
			plant_type = :plant_type,
			plant_count = :plant_count,
			stage = :stage,
			started_at = :started_at,
			ended_at = :ended_at,
			notes = :notes,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := r.db.GetDB().NamedExecContext(ctx, query, cycle)
	if err != nil {
		return errors.NewDatabaseError("failed to update cycle", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows == 0 {
		return errors.NewNotFoundError("cycle not found", nil)
	}

	return nil
}

func (r *CycleRepo) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM cultivation_cycles WHERE id = $1`

	result, err := r.db.GetDB().ExecContext(ctx, query, id)
	if err != nil {
		return errors.NewDatabaseError("failed to delete cycle", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows == 0 {
		return errors.NewNotFoundError("cycle not found", nil)
	}

	return nil
}

func (r *CycleRepo) List(ctx context.Context, filters models.CycleFilters, offset, limit int) ([]*models.CultivationCycle, error) {
	cycles := []*models.CultivationCycle{}

	query := `SELECT * FROM cultivation_cycles WHERE 1=1`
	args := []interface{}{}

	if filters.OwnerID != "" {
		args = append(args, filters.OwnerID)
		query += fmt.Sprintf(" AND owner_id = $%d", len(args))
	}
	if filters.Stage != "" {
		args = append(args, filters.Stage)
		query += fmt.Sprintf(" AND stage = $%d", len(args))
	}
	if filters.ActiveOnly {
		query += " AND ended_at IS NULL"
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY started_at DESC LIMIT $%d", len(args))
	args = append(args, offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	err := r.db.GetDB().SelectContext(ctx, &cycles, query, args...)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list cycles", err)
	}

	return cycles, nil
}
