// FilePath: internal/evaluate/evaluate_test.go
package evaluate

import (
	"testing"
	"time"

	"github.com/verdelab/greenhub/internal/models"
)

func ptr(v float64) *float64 { return &v }

func allOn(now time.Time) Options {
	return Options{
		Temperature:    true,
		Humidity:       true,
		SoilHumidity:   true,
		NotifyInactive: true,
		Now:            now,
	}
}

func vegetativeParams(t *testing.T) models.StageParameters {
	t.Helper()
	params, ok := models.ParametersForStage(models.StageVegetative)
	if !ok {
		t.Fatal("missing vegetative parameters")
	}
	return params
}

func TestEvaluateInBand(t *testing.T) {
	now := time.Now()
	reading := &models.SensorReading{
		SourceID:     "sensor_1",
		Temperature:  ptr(25),
		Humidity:     ptr(55),
		SoilHumidity: ptr(45),
		CreatedAt:    now.Add(-5 * time.Minute),
	}

	violations := Evaluate(reading, models.StageVegetative, vegetativeParams(t), allOn(now))
	if len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}

func TestEvaluateSeverity(t *testing.T) {
	now := time.Now()
	params := vegetativeParams(t) // temp 22-28, hum 40-70, soil 30-60

	tests := []struct {
		name      string
		reading   *models.SensorReading
		parameter models.ParameterKind
		severity  models.Severity
	}{
		{
			// 30.5 is 2.5 above the 28 edge, inside the 5 degree margin
			name:      "temperature slightly high",
			reading:   &models.SensorReading{Temperature: ptr(30.5)},
			parameter: models.ParamTemperature,
			severity:  models.SeverityWarning,
		},
		{
			// 34 is 6 above the edge, past the margin
			name:      "temperature far high",
			reading:   &models.SensorReading{Temperature: ptr(34)},
			parameter: models.ParamTemperature,
			severity:  models.SeverityCritical,
		},
		{
			name:      "temperature low warning",
			reading:   &models.SensorReading{Temperature: ptr(18)},
			parameter: models.ParamTemperature,
			severity:  models.SeverityWarning,
		},
		{
			name:      "temperature low critical",
			reading:   &models.SensorReading{Temperature: ptr(16.9)},
			parameter: models.ParamTemperature,
			severity:  models.SeverityCritical,
		},
		{
			// 75 is 5 above the 70 edge, inside the 10 point margin
			name:      "humidity warning",
			reading:   &models.SensorReading{Humidity: ptr(75)},
			parameter: models.ParamHumidity,
			severity:  models.SeverityWarning,
		},
		{
			name:      "humidity critical",
			reading:   &models.SensorReading{Humidity: ptr(85)},
			parameter: models.ParamHumidity,
			severity:  models.SeverityCritical,
		},
		{
			// 70 is 10 above the 60 edge, inside the 15 point margin
			name:      "soil humidity warning",
			reading:   &models.SensorReading{SoilHumidity: ptr(70)},
			parameter: models.ParamSoilHumidity,
			severity:  models.SeverityWarning,
		},
		{
			name:      "soil humidity critical",
			reading:   &models.SensorReading{SoilHumidity: ptr(80)},
			parameter: models.ParamSoilHumidity,
			severity:  models.SeverityCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.reading.SourceID = "sensor_1"
			tt.reading.CreatedAt = now.Add(-time.Minute)

			violations := Evaluate(tt.reading, models.StageVegetative, params, allOn(now))
			if len(violations) != 1 {
				t.Fatalf("expected 1 violation, got %d", len(violations))
			}
			v := violations[0]
			if v.Parameter != tt.parameter {
				t.Errorf("parameter = %q, want %q", v.Parameter, tt.parameter)
			}
			if v.Severity != tt.severity {
				t.Errorf("severity = %q, want %q", v.Severity, tt.severity)
			}
			if v.Stage != models.StageVegetative {
				t.Errorf("stage = %q, want %q", v.Stage, models.StageVegetative)
			}
		})
	}
}

func TestEvaluateBoundaryValuesAreInBand(t *testing.T) {
	now := time.Now()
	reading := &models.SensorReading{
		SourceID:     "sensor_1",
		Temperature:  ptr(22),
		Humidity:     ptr(70),
		SoilHumidity: ptr(60),
		CreatedAt:    now.Add(-time.Minute),
	}

	violations := Evaluate(reading, models.StageVegetative, vegetativeParams(t), allOn(now))
	if len(violations) != 0 {
		t.Fatalf("band edges should be in band, got %v", violations)
	}
}

func TestEvaluateStaleReading(t *testing.T) {
	now := time.Now()
	lastSeen := now.Add(-2 * time.Hour)
	// Temperature is also out of band, but a stale reading must produce
	// only the inactivity violation.
	reading := &models.SensorReading{
		SourceID:    "sensor_2",
		Temperature: ptr(40),
		CreatedAt:   lastSeen,
	}

	violations := Evaluate(reading, models.StageVegetative, vegetativeParams(t), allOn(now))
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(violations))
	}
	v := violations[0]
	if v.Parameter != models.ParamInactive {
		t.Errorf("parameter = %q, want %q", v.Parameter, models.ParamInactive)
	}
	if v.Severity != models.SeverityCritical {
		t.Errorf("severity = %q, want critical", v.Severity)
	}
	if !v.LastSeen.Equal(lastSeen) {
		t.Errorf("last seen = %v, want %v", v.LastSeen, lastSeen)
	}
}

func TestEvaluateStaleReadingInactiveDisabled(t *testing.T) {
	now := time.Now()
	reading := &models.SensorReading{
		SourceID:    "sensor_2",
		Temperature: ptr(40),
		CreatedAt:   now.Add(-2 * time.Hour),
	}

	opts := allOn(now)
	opts.NotifyInactive = false

	violations := Evaluate(reading, models.StageVegetative, vegetativeParams(t), opts)
	if len(violations) != 0 {
		t.Fatalf("expected no violations with inactivity disabled, got %v", violations)
	}
}

func TestEvaluateJustUnderStaleThreshold(t *testing.T) {
	now := time.Now()
	reading := &models.SensorReading{
		SourceID:    "sensor_1",
		Temperature: ptr(25),
		CreatedAt:   now.Add(-DefaultStaleAfter + time.Second),
	}

	violations := Evaluate(reading, models.StageVegetative, vegetativeParams(t), allOn(now))
	if len(violations) != 0 {
		t.Fatalf("reading just under the threshold should be active, got %v", violations)
	}
}

func TestEvaluateDisabledParameterSkipped(t *testing.T) {
	now := time.Now()
	reading := &models.SensorReading{
		SourceID:    "sensor_1",
		Temperature: ptr(40),
		Humidity:    ptr(90),
		CreatedAt:   now.Add(-time.Minute),
	}

	opts := allOn(now)
	opts.Temperature = false

	violations := Evaluate(reading, models.StageVegetative, vegetativeParams(t), opts)
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(violations))
	}
	if violations[0].Parameter != models.ParamHumidity {
		t.Errorf("parameter = %q, want humidity", violations[0].Parameter)
	}
}

func TestEvaluateNilValuesSkipped(t *testing.T) {
	now := time.Now()
	reading := &models.SensorReading{
		SourceID:  "sensor_3",
		CreatedAt: now.Add(-time.Minute),
	}

	violations := Evaluate(reading, models.StageVegetative, vegetativeParams(t), allOn(now))
	if len(violations) != 0 {
		t.Fatalf("nil values must not violate, got %v", violations)
	}
}

func TestEvaluateNilReading(t *testing.T) {
	if got := Evaluate(nil, models.StageVegetative, vegetativeParams(t), allOn(time.Now())); got != nil {
		t.Fatalf("expected nil for nil reading, got %v", got)
	}
}

func TestEvaluateMultipleViolations(t *testing.T) {
	now := time.Now()
	reading := &models.SensorReading{
		SourceID:     "sensor_1",
		Temperature:  ptr(35),
		Humidity:     ptr(20),
		SoilHumidity: ptr(45),
		CreatedAt:    now.Add(-time.Minute),
	}

	violations := Evaluate(reading, models.StageVegetative, vegetativeParams(t), allOn(now))
	if len(violations) != 2 {
		t.Fatalf("expected 2 violations, got %d: %v", len(violations), violations)
	}
}

func TestOptionsFromSettings(t *testing.T) {
	s := models.DefaultMonitoringSettings()
	s.MonitorHumidity = false

	opts := OptionsFromSettings(s, 30*time.Minute)
	if !opts.Temperature || opts.Humidity || !opts.SoilHumidity || !opts.NotifyInactive {
		t.Errorf("unexpected options: %+v", opts)
	}
	if opts.StaleAfter != 30*time.Minute {
		t.Errorf("stale after = %v, want 30m", opts.StaleAfter)
	}
}
