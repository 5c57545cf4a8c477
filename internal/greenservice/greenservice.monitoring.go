// FilePath: internal/greenservice/greenservice.monitoring.go
package greenservice

import (
	"context"

	"github.com/itsatony/struccy"
	nuts "github.com/vaudience/go-nuts"

	"github.com/verdelab/greenhub/internal/errors"
	"github.com/verdelab/greenhub/internal/models"
)

// MonitoringService controls the check scheduler and its settings
type MonitoringService interface {
	StartMonitoring(ctx context.Context, intervalMinutes int) models.MonitoringStatus
	StopMonitoring(ctx context.Context) models.MonitoringStatus
	MonitoringStatus() models.MonitoringStatus
	RunCheck(ctx context.Context) error
	SendTestNotification() error
	GetSettings(ctx context.Context) (*models.MonitoringSettings, error)
	UpdateSettings(ctx context.Context, patch *models.MonitoringSettings) (*models.MonitoringSettings, error)
}

// StartMonitoring begins periodic checks. Restarting applies the new
// interval; the interval is clamped, not rejected.
func (s *GreenService) StartMonitoring(ctx context.Context, intervalMinutes int) models.MonitoringStatus {
	return s.Scheduler.Start(ctx, intervalMinutes)
}

// StopMonitoring halts periodic checks.
func (s *GreenService) StopMonitoring(ctx context.Context) models.MonitoringStatus {
	return s.Scheduler.Stop(ctx)
}

// MonitoringStatus reports the current scheduler state.
func (s *GreenService) MonitoringStatus() models.MonitoringStatus {
	return s.Scheduler.Status()
}

// RunCheck triggers one check cycle immediately, regardless of scheduler
// state.
func (s *GreenService) RunCheck(ctx context.Context) error {
	nuts.L.Infof("[MonitoringService] Manual check triggered")
	if err := s.Scheduler.CheckNow(ctx); err != nil {
		return errors.NewInternalError("check cycle failed", err)
	}
	return nil
}

// SendTestNotification sends the canned test message through the chat
// channel, verifying credentials end to end.
func (s *GreenService) SendTestNotification() error {
	if !s.Settings.Current().HasTelegramCredentials() {
		return errors.NewValidationError("telegram credentials are not configured", nil)
	}
	if !s.Notifier.SendTestMessage() {
		return errors.NewUnavailableError("test message could not be delivered", nil)
	}
	return nil
}

// GetSettings returns the effective settings with role-based field
// filtering; credentials are only visible to admin callers.
func (s *GreenService) GetSettings(ctx context.Context) (*models.MonitoringSettings, error) {
	current := s.Settings.Current()
	return s.filterSettings(ctx, &current)
}

// UpdateSettings merges a settings patch with role-based write access,
// persists the result and returns the filtered effective settings. When
// monitoring is enabled the scheduler is restarted so interval changes
// take effect immediately.
func (s *GreenService) UpdateSettings(ctx context.Context, patch *models.MonitoringSettings) (*models.MonitoringSettings, error) {
	if patch.Stage != "" {
		stage, ok := models.NormalizeStage(string(patch.Stage))
		if !ok {
			return nil, errors.NewValidationError("unknown growth stage: "+string(patch.Stage), nil)
		}
		patch.Stage = stage
	}

	roles := GetUserRoles(ctx)
	wasActive := s.Scheduler.IsActive()

	var mergeErr error
	updated := s.Settings.Update(ctx, func(current *models.MonitoringSettings) {
		if _, _, err := struccy.UpdateStructFields(current, patch, roles, true, true); err != nil {
			mergeErr = err
		}
	})
	if mergeErr != nil {
		return nil, errors.NewAuthorizationError("unauthorized settings update", mergeErr)
	}

	if wasActive && updated.Enabled {
		s.Scheduler.Start(ctx, updated.IntervalMinutes)
	} else if wasActive && !updated.Enabled {
		s.Scheduler.Stop(ctx)
	}

	return s.filterSettings(ctx, &updated)
}

func (s *GreenService) filterSettings(ctx context.Context, settings *models.MonitoringSettings) (*models.MonitoringSettings, error) {
	roles := GetUserRoles(ctx)

	filteredMap, err := struccy.StructToMapFieldsWithReadXS(settings, roles)
	if err != nil {
		return nil, errors.NewInternalError("failed to filter settings fields", err)
	}
	filtered := &models.MonitoringSettings{}
	if _, err := struccy.MergeMapStringFieldsToStruct(filtered, filteredMap, roles); err != nil {
		return nil, errors.NewInternalError("failed to map filtered fields to settings struct", err)
	}
	return filtered, nil
}
