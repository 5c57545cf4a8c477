// FilePath: internal/models/models.cycle.go
package models

import "time"

// CultivationCycle is one grow run. The active cycle is the one with
// EndedAt NULL; at most one cycle may be active at a time.
type CultivationCycle struct {
	ID         int64      `json:"id" db:"id"`
	OwnerID    string     `json:"owner_id" db:"owner_id" writexs:"admin,system,owner"`
	PlantType  string     `json:"plant_type" db:"plant_type"`
	PlantCount int        `json:"plant_count" db:"plant_count"`
	Stage      string     `json:"stage" db:"stage"`
	StartedAt  time.Time  `json:"started_at" db:"started_at"`
	EndedAt    *time.Time `json:"ended_at" db:"ended_at"`
	Notes      string     `json:"notes" db:"notes" readxs:"admin,system,owner" writexs:"admin,system,owner"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// Active reports whether the cycle is still running.
func (c *CultivationCycle) Active() bool {
	return c.EndedAt == nil
}

// CurrentStage normalizes the stored stage string, falling back to the
// default stage when the stored value is unrecognized.
func (c *CultivationCycle) CurrentStage() Stage {
	if stage, ok := NormalizeStage(c.Stage); ok {
		return stage
	}
	return DefaultStage
}
