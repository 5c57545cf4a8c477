// FilePath: internal/evaluate/evaluate.go

// Package evaluate decides whether sensor readings sit inside the acceptable
// bands of the configured growth stage, and how severe an excursion is.
// Evaluation is pure: same reading, same bands, same result.
package evaluate

import (
	"time"

	"github.com/verdelab/greenhub/internal/models"
)

// Severity policy: a reading further than the margin beyond the violated
// band edge is critical, otherwise a warning. Margins are absolute per
// parameter kind.
const (
	TemperatureMargin  = 5.0
	HumidityMargin     = 10.0
	SoilHumidityMargin = 15.0
)

// DefaultStaleAfter marks a source inactive when its newest reading is
// older than this.
const DefaultStaleAfter = time.Hour

// Options selects which checks run for a tick.
type Options struct {
	Temperature  bool
	Humidity     bool
	SoilHumidity bool
	// NotifyInactive enables the staleness check.
	NotifyInactive bool
	// StaleAfter overrides DefaultStaleAfter when positive.
	StaleAfter time.Duration
	// Now defaults to time.Now; tests pin it.
	Now time.Time
}

// OptionsFromSettings derives evaluator options from monitoring settings.
func OptionsFromSettings(s models.MonitoringSettings, staleAfter time.Duration) Options {
	return Options{
		Temperature:    s.MonitorTemperature,
		Humidity:       s.MonitorHumidity,
		SoilHumidity:   s.MonitorSoilHumidity,
		NotifyInactive: s.NotifyInactive,
		StaleAfter:     staleAfter,
	}
}

func (o Options) enabled(kind models.ParameterKind) bool {
	switch kind {
	case models.ParamTemperature:
		return o.Temperature
	case models.ParamHumidity:
		return o.Humidity
	case models.ParamSoilHumidity:
		return o.SoilHumidity
	}
	return false
}

func margin(kind models.ParameterKind) float64 {
	switch kind {
	case models.ParamTemperature:
		return TemperatureMargin
	case models.ParamHumidity:
		return HumidityMargin
	case models.ParamSoilHumidity:
		return SoilHumidityMargin
	}
	return 0
}

func band(params models.StageParameters, kind models.ParameterKind) models.Band {
	switch kind {
	case models.ParamTemperature:
		return params.Temperature
	case models.ParamHumidity:
		return params.Humidity
	case models.ParamSoilHumidity:
		return params.SoilHumidity
	}
	return models.Band{}
}

var parameterKinds = []models.ParameterKind{
	models.ParamTemperature,
	models.ParamHumidity,
	models.ParamSoilHumidity,
}

// Evaluate checks one reading against the bands of one stage.
//
// Staleness is decided first: an inactive source yields a single Inactive
// violation and no parameter checks, because stale values carry no
// information about current conditions. Absent (nil) parameter values and
// disabled parameters are skipped.
func Evaluate(reading *models.SensorReading, stage models.Stage, params models.StageParameters, opts Options) []models.Violation {
	if reading == nil {
		return nil
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	staleAfter := opts.StaleAfter
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}

	if now.Sub(reading.CreatedAt) > staleAfter {
		if !opts.NotifyInactive {
			return nil
		}
		return []models.Violation{{
			SourceID:  reading.SourceID,
			Parameter: models.ParamInactive,
			Severity:  models.SeverityCritical,
			Stage:     stage,
			LastSeen:  reading.CreatedAt,
		}}
	}

	var violations []models.Violation
	for _, kind := range parameterKinds {
		if !opts.enabled(kind) {
			continue
		}
		value := reading.Value(kind)
		if value == nil {
			continue
		}

		b := band(params, kind)
		if b.Contains(*value) {
			continue
		}

		violations = append(violations, models.Violation{
			SourceID:  reading.SourceID,
			Parameter: kind,
			Value:     *value,
			Band:      b,
			Severity:  classify(*value, b, margin(kind)),
			Stage:     stage,
		})
	}
	return violations
}

// classify grades an out-of-band value by its distance beyond the violated
// edge: past the margin is critical, inside it a warning.
func classify(value float64, b models.Band, margin float64) models.Severity {
	if value < b.Min-margin || value > b.Max+margin {
		return models.SeverityCritical
	}
	return models.SeverityWarning
}
