// FilePath: internal/models/models.settings.go
package models

import "time"

// MonitoringSettings is the single process-wide monitoring configuration.
// The notification_settings row (id=1) in the store is the source of truth
// when reachable; the in-memory copy is the fallback of record. Telegram
// credentials supplied through the environment override stored values and
// are read-only from the API's perspective.
type MonitoringSettings struct {
	Enabled             bool      `json:"enabled" db:"enabled" schema:"enabled"`
	IntervalMinutes     int       `json:"interval_minutes" db:"interval_minutes" schema:"interval_minutes"`
	Stage               Stage     `json:"stage" db:"stage" schema:"stage"`
	MonitorTemperature  bool      `json:"monitor_temperature" db:"monitor_temperature" schema:"monitor_temperature"`
	MonitorHumidity     bool      `json:"monitor_humidity" db:"monitor_humidity" schema:"monitor_humidity"`
	MonitorSoilHumidity bool      `json:"monitor_soil_humidity" db:"monitor_soil_humidity" schema:"monitor_soil_humidity"`
	NotifyInactive      bool      `json:"notify_inactive" db:"notify_inactive" schema:"notify_inactive"`
	TelegramBotToken    string    `json:"telegram_bot_token,omitempty" db:"telegram_bot_token" schema:"telegram_bot_token" readxs:"admin,system" writexs:"admin,system"`
	TelegramChatID      string    `json:"telegram_chat_id,omitempty" db:"telegram_chat_id" schema:"telegram_chat_id" readxs:"admin,system" writexs:"admin,system"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at" schema:"-"`
}

// Monitors reports whether the given parameter kind is enabled.
func (s MonitoringSettings) Monitors(kind ParameterKind) bool {
	switch kind {
	case ParamTemperature:
		return s.MonitorTemperature
	case ParamHumidity:
		return s.MonitorHumidity
	case ParamSoilHumidity:
		return s.MonitorSoilHumidity
	case ParamInactive:
		return s.NotifyInactive
	}
	return false
}

// HasTelegramCredentials reports whether notification dispatch is possible.
func (s MonitoringSettings) HasTelegramCredentials() bool {
	return s.TelegramBotToken != "" && s.TelegramChatID != ""
}

// DefaultMonitoringSettings returns the bottom layer of the settings
// resolver: values used before the store row or environment are consulted.
func DefaultMonitoringSettings() MonitoringSettings {
	return MonitoringSettings{
		Enabled:             false,
		IntervalMinutes:     10,
		Stage:               DefaultStage,
		MonitorTemperature:  true,
		MonitorHumidity:     true,
		MonitorSoilHumidity: true,
		NotifyInactive:      true,
	}
}
