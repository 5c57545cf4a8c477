package models

import "time"

// CycleFilters defines the available filter options for cultivation cycles
type CycleFilters struct {
	OwnerID    string     `json:"owner_id" schema:"owner_id"`
	Stage      string     `json:"stage" schema:"stage"`
	ActiveOnly bool       `json:"active_only" schema:"active_only"`
	StartedAt  *TimeRange `json:"started_at" schema:"-"`
}

// TimeRange represents a time range filter
type TimeRange struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}
