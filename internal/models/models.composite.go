// FilePath: internal/models/models.composite.go
package models

import "time"

// SourceStatus combines the latest reading of one sensor source with its
// activity classification, for dashboard polling.
type SourceStatus struct {
	SourceID  string         `json:"source_id"`
	Reading   *SensorReading `json:"reading,omitempty"`
	Inactive  bool           `json:"inactive"`
	LastSeen  time.Time      `json:"last_seen"`
	CheckedAt time.Time      `json:"checked_at"`
}

// MonitoringStatus is the scheduler state returned to UI polling.
type MonitoringStatus struct {
	Active          bool      `json:"active"`
	IntervalMinutes int       `json:"interval_minutes"`
	Stage           Stage     `json:"stage"`
	LastTickAt      time.Time `json:"last_tick_at,omitempty"`
	LastError       string    `json:"last_error,omitempty"`
}
