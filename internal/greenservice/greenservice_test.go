// FilePath: internal/greenservice/greenservice_test.go
package greenservice

import (
	"context"
	"testing"
	"time"

	"github.com/verdelab/greenhub/internal/discovery"
	"github.com/verdelab/greenhub/internal/errors"
	"github.com/verdelab/greenhub/internal/models"
	"github.com/verdelab/greenhub/internal/repository"
)

type fakeCycles struct {
	active  *models.CultivationCycle
	cycles  map[int64]*models.CultivationCycle
	nextID  int64
	updated *models.CultivationCycle
}

func newFakeCycles() *fakeCycles {
	return &fakeCycles{cycles: map[int64]*models.CultivationCycle{}, nextID: 1}
}

func (f *fakeCycles) Create(ctx context.Context, cycle *models.CultivationCycle) error {
	cycle.ID = f.nextID
	f.nextID++
	copied := *cycle
	f.cycles[cycle.ID] = &copied
	if cycle.EndedAt == nil {
		f.active = &copied
	}
	return nil
}

func (f *fakeCycles) Get(ctx context.Context, id int64) (*models.CultivationCycle, error) {
	cycle, ok := f.cycles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *cycle
	return &copied, nil
}

func (f *fakeCycles) GetActive(ctx context.Context) (*models.CultivationCycle, error) {
	if f.active == nil {
		return nil, nil
	}
	copied := *f.active
	return &copied, nil
}

func (f *fakeCycles) Update(ctx context.Context, cycle *models.CultivationCycle) error {
	copied := *cycle
	f.updated = &copied
	f.cycles[cycle.ID] = &copied
	if f.active != nil && f.active.ID == cycle.ID {
		if cycle.EndedAt != nil {
			f.active = nil
		} else {
			f.active = &copied
		}
	}
	return nil
}

func (f *fakeCycles) Delete(ctx context.Context, id int64) error {
	if _, ok := f.cycles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.cycles, id)
	return nil
}

func (f *fakeCycles) List(ctx context.Context, filters models.CycleFilters, offset, limit int) ([]*models.CultivationCycle, error) {
	var out []*models.CultivationCycle
	for _, c := range f.cycles {
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

type fakeReadings struct{}

func (fakeReadings) FetchLatest(ctx context.Context, table string) (*models.SensorReading, error) {
	return nil, nil
}
func (fakeReadings) FetchRecent(ctx context.Context, table string, limit int) ([]*models.SensorReading, error) {
	return nil, nil
}
func (fakeReadings) ProbeSource(ctx context.Context, table string) (bool, error) {
	return false, nil
}
func (fakeReadings) ListSensorTables(ctx context.Context) ([]string, error) {
	return []string{"sensor_1"}, nil
}
func (fakeReadings) StageAverages(ctx context.Context, table string, start, end time.Time) (*models.StageAverages, error) {
	return &models.StageAverages{SampleCount: 3}, nil
}

type fakeAdmin struct {
	lastQuery string
}

func (f *fakeAdmin) RunReadOnlyQuery(ctx context.Context, query string) ([]map[string]interface{}, error) {
	f.lastQuery = query
	return []map[string]interface{}{{"count": 1}}, nil
}

func newTestService(cycles *fakeCycles, admin *fakeAdmin) *GreenService {
	readings := fakeReadings{}
	return &GreenService{
		Readings:   readings,
		Cycles:     cycles,
		Admin:      admin,
		Discoverer: discovery.New(readings, nil, time.Minute, time.Second),
	}
}

func adminCtx() context.Context {
	return WithUserRoles(context.Background(), []string{"admin"})
}

func TestCreateCycleRejectsSecondActive(t *testing.T) {
	cycles := newFakeCycles()
	svc := newTestService(cycles, &fakeAdmin{})

	first := &models.CultivationCycle{PlantType: "tomato", PlantCount: 4, Stage: "Vegetative"}
	if err := svc.CreateCycle(adminCtx(), first); err != nil {
		t.Fatalf("first CreateCycle error: %v", err)
	}

	second := &models.CultivationCycle{PlantType: "basil", PlantCount: 2, Stage: "Germination"}
	err := svc.CreateCycle(adminCtx(), second)
	if err == nil {
		t.Fatal("second active cycle must be rejected")
	}
	if !errors.IsConflict(err) {
		t.Fatalf("error = %v, want conflict", err)
	}
}

func TestCreateCycleValidation(t *testing.T) {
	svc := newTestService(newFakeCycles(), &fakeAdmin{})

	tests := []struct {
		name  string
		cycle *models.CultivationCycle
	}{
		{"missing plant type", &models.CultivationCycle{PlantCount: 1, Stage: "Vegetative"}},
		{"zero plants", &models.CultivationCycle{PlantType: "tomato", Stage: "Vegetative"}},
		{"unknown stage", &models.CultivationCycle{PlantType: "tomato", PlantCount: 1, Stage: "harvest"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.CreateCycle(adminCtx(), tt.cycle)
			if !errors.IsValidation(err) {
				t.Fatalf("error = %v, want validation", err)
			}
		})
	}
}

func TestFinishActiveCycle(t *testing.T) {
	cycles := newFakeCycles()
	svc := newTestService(cycles, &fakeAdmin{})

	cycle := &models.CultivationCycle{PlantType: "tomato", PlantCount: 4, Stage: "Vegetative"}
	if err := svc.CreateCycle(adminCtx(), cycle); err != nil {
		t.Fatalf("CreateCycle error: %v", err)
	}

	finished, err := svc.FinishActiveCycle(adminCtx())
	if err != nil {
		t.Fatalf("FinishActiveCycle error: %v", err)
	}
	if finished.EndedAt == nil {
		t.Fatal("finished cycle must carry an end time")
	}

	// A new cycle can start once the old one is finished.
	next := &models.CultivationCycle{PlantType: "basil", PlantCount: 2, Stage: "Germination"}
	if err := svc.CreateCycle(adminCtx(), next); err != nil {
		t.Fatalf("CreateCycle after finish error: %v", err)
	}
}

func TestFinishActiveCycleWithoutActive(t *testing.T) {
	svc := newTestService(newFakeCycles(), &fakeAdmin{})

	_, err := svc.FinishActiveCycle(adminCtx())
	if !errors.IsNotFound(err) {
		t.Fatalf("error = %v, want not found", err)
	}
}

func TestChangeActiveStageNormalizes(t *testing.T) {
	cycles := newFakeCycles()
	svc := newTestService(cycles, &fakeAdmin{})

	cycle := &models.CultivationCycle{PlantType: "tomato", PlantCount: 4, Stage: "Vegetative"}
	if err := svc.CreateCycle(adminCtx(), cycle); err != nil {
		t.Fatalf("CreateCycle error: %v", err)
	}

	changed, err := svc.ChangeActiveStage(adminCtx(), "floración")
	if err != nil {
		t.Fatalf("ChangeActiveStage error: %v", err)
	}
	if changed.Stage != string(models.StageFlowering) {
		t.Fatalf("stage = %q, want canonical %q", changed.Stage, models.StageFlowering)
	}
}

func TestChangeActiveStageRejectsUnknown(t *testing.T) {
	svc := newTestService(newFakeCycles(), &fakeAdmin{})

	_, err := svc.ChangeActiveStage(adminCtx(), "harvest")
	if !errors.IsValidation(err) {
		t.Fatalf("error = %v, want validation", err)
	}
}

func TestGetActiveCycleNone(t *testing.T) {
	svc := newTestService(newFakeCycles(), &fakeAdmin{})

	cycle, err := svc.GetActiveCycle(adminCtx())
	if err != nil {
		t.Fatalf("GetActiveCycle error: %v", err)
	}
	if cycle != nil {
		t.Fatalf("cycle = %+v, want nil", cycle)
	}
}

func TestRunAdminQueryGuards(t *testing.T) {
	admin := &fakeAdmin{}
	svc := newTestService(newFakeCycles(), admin)

	tests := []struct {
		name  string
		query string
		ok    bool
	}{
		{"select", "SELECT count(*) FROM sensor_1", true},
		{"lowercase select", "select 1", true},
		{"padded select", "  SELECT 1  ", true},
		{"insert", "INSERT INTO sensor_1 VALUES (1)", false},
		{"delete", "DELETE FROM sensor_1", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RunAdminQuery(adminCtx(), tt.query)
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.IsValidation(err) {
				t.Fatalf("error = %v, want validation", err)
			}
		})
	}
}

func TestSourceHistoryRejectsUnknownSource(t *testing.T) {
	svc := newTestService(newFakeCycles(), &fakeAdmin{})

	_, err := svc.SourceHistory(adminCtx(), "pg_catalog", 10)
	if !errors.IsNotFound(err) {
		t.Fatalf("error = %v, want not found", err)
	}
}

func TestGetStageAveragesValidatesWindow(t *testing.T) {
	svc := newTestService(newFakeCycles(), &fakeAdmin{})
	now := time.Now()

	_, err := svc.GetStageAverages(adminCtx(), "sensor_1", now, now.Add(-time.Hour))
	if !errors.IsValidation(err) {
		t.Fatalf("error = %v, want validation", err)
	}

	averages, err := svc.GetStageAverages(adminCtx(), "sensor_1", now.Add(-time.Hour), now)
	if err != nil {
		t.Fatalf("GetStageAverages error: %v", err)
	}
	if averages.SampleCount != 3 {
		t.Fatalf("sample count = %d, want 3", averages.SampleCount)
	}
}

func TestGetUserRolesDefaultsToGuest(t *testing.T) {
	roles := GetUserRoles(context.Background())
	if len(roles) != 1 || roles[0] != "guest" {
		t.Fatalf("roles = %v, want [guest]", roles)
	}
}
