// FilePath: internal/models/models.reading.go
package models

import "time"

// ParameterKind identifies one monitored environmental parameter.
type ParameterKind string

const (
	ParamTemperature  ParameterKind = "temperature"
	ParamHumidity     ParameterKind = "humidity"
	ParamSoilHumidity ParameterKind = "soil_humidity"
	// ParamInactive is emitted when a source has stopped reporting; it is
	// not a real parameter but shares the violation/dedup pipeline.
	ParamInactive ParameterKind = "inactive"
)

// Unit returns the display unit for the parameter.
func (k ParameterKind) Unit() string {
	if k == ParamTemperature {
		return "°C"
	}
	return "%"
}

// DisplayName returns the human-readable parameter name used in alerts.
func (k ParameterKind) DisplayName() string {
	switch k {
	case ParamTemperature:
		return "Temperature"
	case ParamHumidity:
		return "Air Humidity"
	case ParamSoilHumidity:
		return "Soil Humidity"
	case ParamInactive:
		return "Sensor Activity"
	}
	return string(k)
}

// SensorReading is one sample row from a sensor_<n> table. Parameter values
// are pointers: a sensor that does not report a channel leaves it NULL.
type SensorReading struct {
	ID           int64     `json:"id" db:"id"`
	SourceID     string    `json:"source_id" db:"-"`
	Temperature  *float64  `json:"temperature" db:"temperature"`
	Humidity     *float64  `json:"humidity" db:"humidity"`
	SoilHumidity *float64  `json:"soil_humidity" db:"soil_humidity"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Value returns the reading's value for one parameter kind, nil if absent.
func (r *SensorReading) Value(kind ParameterKind) *float64 {
	switch kind {
	case ParamTemperature:
		return r.Temperature
	case ParamHumidity:
		return r.Humidity
	case ParamSoilHumidity:
		return r.SoilHumidity
	}
	return nil
}

// Severity classifies how far outside the acceptable band a reading is.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Violation is one detected out-of-band condition for one parameter on one
// source at one point in time.
type Violation struct {
	SourceID  string        `json:"source_id"`
	Parameter ParameterKind `json:"parameter"`
	Value     float64       `json:"value"`
	Band      Band          `json:"band"`
	Severity  Severity      `json:"severity"`
	Stage     Stage         `json:"stage"`
	// LastSeen is set for inactive violations only: the timestamp of the
	// newest reading the source produced.
	LastSeen time.Time `json:"last_seen,omitempty"`
}

// StageAverages is the result of the get_stage_averages server-side
// procedure: per-parameter means over a time window.
type StageAverages struct {
	AvgTemperature  float64 `json:"avg_temperature" db:"avg_temperature"`
	AvgHumidity     float64 `json:"avg_humidity" db:"avg_humidity"`
	AvgSoilHumidity float64 `json:"avg_soil_humidity" db:"avg_soil_humidity"`
	SampleCount     int     `json:"sample_count" db:"sample_count"`
}
