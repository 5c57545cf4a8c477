// FilePath: internal/repository/postgres/postgres.settings.go
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/verdelab/greenhub/internal/database"
	"github.com/verdelab/greenhub/internal/errors"
	"github.com/verdelab/greenhub/internal/models"
	"github.com/verdelab/greenhub/internal/repository"
)

// The monitoring configuration lives in a single notification_settings row
// with id=1, mirroring the hosted dashboard schema.
const settingsRowID = 1

type SettingsRepo struct {
	PostgresBaseRepo
}

func NewSettingsRepository(db database.DB) repository.SettingsRepository {
	repo := &PostgresBaseRepo{db: db}
	return &SettingsRepo{PostgresBaseRepo: *repo}
}

func (r *SettingsRepo) Get(ctx context.Context) (*models.MonitoringSettings, error) {
	settings := &models.MonitoringSettings{}
	query := `
		SELECT enabled, interval_minutes, stage,
			monitor_temperature, monitor_humidity, monitor_soil_humidity,
			notify_inactive, telegram_bot_token, telegram_chat_id, updated_at
		FROM notification_settings WHERE id = $1`

	err := r.db.GetDB().GetContext(ctx, settings, query, settingsRowID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("settings row not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get settings", err)
	}
	return settings, nil
}

func (r *SettingsRepo) Update(ctx context.Context, settings *models.MonitoringSettings) error {
	settings.UpdatedAt = time.Now()
	query := `
		UPDATE notification_settings SET
			enabled = :enabled,
			interval_minutes = :interval_minutes,
			stage = :stage,
			monitor_temperature = :monitor_temperature,
			monitor_humidity = :monitor_humidity,
			monitor_soil_humidity = :monitor_soil_humidity,
			notify_inactive = :notify_inactive,
			telegram_bot_token = :telegram_bot_token,
			telegram_chat_id = :telegram_chat_id,
			updated_at = :updated_at
		WHERE id = 1`

	result, err := r.db.GetDB().NamedExecContext(ctx, query, settings)
	if err != nil {
		return errors.NewDatabaseError("failed to update settings", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows == 0 {
		return errors.NewNotFoundError("settings row not found", nil)
	}

	return nil
}
