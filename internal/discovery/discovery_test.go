// FilePath: internal/discovery/discovery_test.go
package discovery

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/verdelab/greenhub/internal/models"
)

// fakeReadings implements repository.ReadingRepository for discovery tests.
type fakeReadings struct {
	tables     []string
	tablesErr  error
	existing   map[string]bool
	probeErrOn string
	probes     []string
}

func (f *fakeReadings) FetchLatest(ctx context.Context, table string) (*models.SensorReading, error) {
	return nil, nil
}

func (f *fakeReadings) FetchRecent(ctx context.Context, table string, limit int) ([]*models.SensorReading, error) {
	return nil, nil
}

func (f *fakeReadings) ProbeSource(ctx context.Context, table string) (bool, error) {
	f.probes = append(f.probes, table)
	if table == f.probeErrOn {
		return false, errors.New("connection reset")
	}
	return f.existing[table], nil
}

func (f *fakeReadings) ListSensorTables(ctx context.Context) ([]string, error) {
	return f.tables, f.tablesErr
}

func (f *fakeReadings) StageAverages(ctx context.Context, table string, start, end time.Time) (*models.StageAverages, error) {
	return nil, nil
}

func TestDiscoverViaProcedure(t *testing.T) {
	repo := &fakeReadings{tables: []string{"sensor_1", "sensor_2"}}
	d := New(repo, nil, time.Minute, time.Second)

	got := d.Discover(context.Background())
	if !reflect.DeepEqual(got, []string{"sensor_1", "sensor_2"}) {
		t.Fatalf("Discover() = %v", got)
	}
	if len(repo.probes) != 0 {
		t.Errorf("procedure success must not probe, probed %v", repo.probes)
	}
}

func TestDiscoverFallsBackToProbing(t *testing.T) {
	repo := &fakeReadings{
		tablesErr: errors.New("function get_sensor_tables() does not exist"),
		existing:  map[string]bool{"sensor_1": true, "sensor_2": true, "sensor_3": true, "sensor_4": true},
	}
	d := New(repo, nil, time.Minute, time.Second)

	got := d.Discover(context.Background())
	want := []string{"sensor_1", "sensor_2", "sensor_3", "sensor_4"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Discover() = %v, want %v", got, want)
	}
	// The walk stops at the first missing table.
	if last := repo.probes[len(repo.probes)-1]; last != "sensor_5" {
		t.Errorf("last probe = %q, want sensor_5", last)
	}
}

func TestDiscoverProbeStopsOnError(t *testing.T) {
	repo := &fakeReadings{
		tablesErr:  errors.New("procedure missing"),
		existing:   map[string]bool{"sensor_1": true, "sensor_2": true, "sensor_3": true},
		probeErrOn: "sensor_2",
	}
	d := New(repo, nil, time.Minute, time.Second)

	got := d.Discover(context.Background())
	// The error truncates the walk; only the tables found before it count.
	want := []string{"sensor_1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Discover() = %v, want %v", got, want)
	}
}

func TestDiscoverEmptyProcedureResultProbes(t *testing.T) {
	repo := &fakeReadings{
		tables:   nil,
		existing: map[string]bool{"sensor_1": true},
	}
	d := New(repo, nil, time.Minute, time.Second)

	got := d.Discover(context.Background())
	if !reflect.DeepEqual(got, []string{"sensor_1"}) {
		t.Fatalf("Discover() = %v, want [sensor_1]", got)
	}
}

func TestDiscoverNeverEmpty(t *testing.T) {
	repo := &fakeReadings{
		tablesErr: errors.New("procedure missing"),
		existing:  map[string]bool{},
	}
	d := New(repo, nil, time.Minute, time.Second)

	got := d.Discover(context.Background())
	if !reflect.DeepEqual(got, DefaultSources()) {
		t.Fatalf("Discover() = %v, want default sources", got)
	}
}

func TestDiscoverProbeErrorOnFirstTableUsesDefaults(t *testing.T) {
	repo := &fakeReadings{
		tablesErr:  errors.New("procedure missing"),
		probeErrOn: "sensor_1",
	}
	d := New(repo, nil, time.Minute, time.Second)

	got := d.Discover(context.Background())
	if !reflect.DeepEqual(got, DefaultSources()) {
		t.Fatalf("Discover() = %v, want default sources", got)
	}
}

func TestInvalidateWithoutCache(t *testing.T) {
	d := New(&fakeReadings{}, nil, time.Minute, time.Second)
	// Must not panic with a nil cache client.
	d.Invalidate(context.Background())
}
