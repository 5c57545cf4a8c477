// FilePath: internal/scheduler/scheduler.go

// Package scheduler drives the periodic check loop: it resolves the active
// growth stage, discovers sensor sources, evaluates their latest readings
// and dispatches deduplicated alerts.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	nuts "github.com/vaudience/go-nuts"

	"github.com/verdelab/greenhub/internal/dedup"
	"github.com/verdelab/greenhub/internal/discovery"
	"github.com/verdelab/greenhub/internal/evaluate"
	"github.com/verdelab/greenhub/internal/models"
	"github.com/verdelab/greenhub/internal/monitoring"
	"github.com/verdelab/greenhub/internal/notify"
	"github.com/verdelab/greenhub/internal/repository"
	"github.com/verdelab/greenhub/internal/settings"
)

const (
	// MinIntervalMinutes and MaxIntervalMinutes bound the check interval.
	// Requests outside the range are clamped, not rejected.
	MinIntervalMinutes = 1
	MaxIntervalMinutes = 60

	defaultCheckTimeout = 2 * time.Minute
)

// Scheduler owns the monitoring timer. All state transitions go through
// Start and Stop; ticks are serialized through a single worker so a slow
// check cycle is skipped rather than stacked.
type Scheduler struct {
	settings   *settings.Store
	cycles     repository.CycleRepository
	readings   repository.ReadingRepository
	discoverer *discovery.Discoverer
	dedup      *dedup.Deduplicator
	notifier   *notify.Notifier
	metrics    *monitoring.Service
	staleAfter time.Duration

	mu         sync.Mutex
	running    bool
	interval   time.Duration
	stopCh     chan struct{}
	lastTickAt time.Time
	lastError  string

	// work has capacity 1: a tick that arrives while a check is still
	// running finds the slot full and is dropped.
	work chan struct{}
	wg   sync.WaitGroup
}

// New creates a stopped Scheduler.
func New(
	store *settings.Store,
	cycles repository.CycleRepository,
	readings repository.ReadingRepository,
	discoverer *discovery.Discoverer,
	deduplicator *dedup.Deduplicator,
	notifier *notify.Notifier,
	metrics *monitoring.Service,
	staleAfter time.Duration,
) *Scheduler {
	if staleAfter <= 0 {
		staleAfter = evaluate.DefaultStaleAfter
	}
	return &Scheduler{
		settings:   store,
		cycles:     cycles,
		readings:   readings,
		discoverer: discoverer,
		dedup:      deduplicator,
		notifier:   notifier,
		metrics:    metrics,
		staleAfter: staleAfter,
	}
}

// ClampInterval bounds an interval request to the supported range.
func ClampInterval(minutes int) int {
	if minutes < MinIntervalMinutes {
		return MinIntervalMinutes
	}
	if minutes > MaxIntervalMinutes {
		return MaxIntervalMinutes
	}
	return minutes
}

// Start begins periodic checks every intervalMinutes. A running scheduler
// is restarted with the new interval; the first check runs synchronously
// before the timer is armed, so callers get immediate coverage. The
// enabled state and interval are persisted so a restart resumes them.
func (s *Scheduler) Start(ctx context.Context, intervalMinutes int) models.MonitoringStatus {
	intervalMinutes = ClampInterval(intervalMinutes)

	s.mu.Lock()
	if s.running {
		s.stopLocked()
	}
	s.running = true
	s.interval = time.Duration(intervalMinutes) * time.Minute
	s.stopCh = make(chan struct{})
	s.work = make(chan struct{}, 1)
	stopCh := s.stopCh
	work := s.work
	interval := s.interval
	s.mu.Unlock()

	nuts.L.Infof("[Scheduler] Starting monitoring, interval %dm", intervalMinutes)

	if err := s.CheckNow(ctx); err != nil {
		nuts.L.Errorf("[Scheduler] Initial check failed: %v", err)
	}

	s.wg.Add(2)
	go s.tickLoop(stopCh, work, interval)
	go s.workLoop(stopCh, work)

	s.settings.Update(ctx, func(m *models.MonitoringSettings) {
		m.Enabled = true
		m.IntervalMinutes = intervalMinutes
	})

	return s.Status()
}

// Stop halts periodic checks and persists the disabled state. Stopping a
// stopped scheduler is a no-op.
func (s *Scheduler) Stop(ctx context.Context) models.MonitoringStatus {
	s.mu.Lock()
	wasRunning := s.running
	if wasRunning {
		s.stopLocked()
	}
	s.mu.Unlock()

	if wasRunning {
		nuts.L.Infof("[Scheduler] Monitoring stopped")
		s.settings.Update(ctx, func(m *models.MonitoringSettings) {
			m.Enabled = false
		})
	}

	return s.Status()
}

// stopLocked tears down the timer goroutines. Caller holds s.mu.
func (s *Scheduler) stopLocked() {
	close(s.stopCh)
	s.running = false
}

// Shutdown halts the timer goroutines without touching the persisted
// enabled flag, so monitoring resumes after a restart.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	if s.running {
		s.stopLocked()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// Metrics exposes the metrics service for the HTTP layer.
func (s *Scheduler) Metrics() *monitoring.Service {
	return s.metrics
}

// IsActive reports the in-memory scheduler state; it does not consult the
// settings store.
func (s *Scheduler) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Status snapshots the scheduler for UI polling.
func (s *Scheduler) Status() models.MonitoringStatus {
	current := s.settings.Current()

	s.mu.Lock()
	defer s.mu.Unlock()

	interval := current.IntervalMinutes
	if s.running {
		interval = int(s.interval / time.Minute)
	}
	return models.MonitoringStatus{
		Active:          s.running,
		IntervalMinutes: interval,
		Stage:           current.Stage,
		LastTickAt:      s.lastTickAt,
		LastError:       s.lastError,
	}
}

// CheckNow runs one full check cycle synchronously. Used for the initial
// check at start and for the manual trigger endpoint.
func (s *Scheduler) CheckNow(ctx context.Context) error {
	err := s.check(ctx)

	s.mu.Lock()
	s.lastTickAt = time.Now()
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
	}
	s.mu.Unlock()

	s.metrics.Ticks.Inc()
	if err != nil {
		s.metrics.TickErrors.Inc()
	}
	return err
}

func (s *Scheduler) tickLoop(stopCh chan struct{}, work chan struct{}, interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			select {
			case work <- struct{}{}:
			default:
				nuts.L.Warnf("[Scheduler] Previous check still running, skipping tick")
			}
		}
	}
}

func (s *Scheduler) workLoop(stopCh chan struct{}, work chan struct{}) {
	defer s.wg.Done()

	for {
		select {
		case <-stopCh:
			return
		case <-work:
			ctx, cancel := context.WithTimeout(context.Background(), defaultCheckTimeout)
			if err := s.CheckNow(ctx); err != nil {
				nuts.L.Errorf("[Scheduler] Check cycle failed: %v", err)
			}
			cancel()
		}
	}
}

// check runs one cycle: resolve stage, discover sources, then fan out one
// goroutine per source. Source failures are isolated; the cycle error only
// reflects failures that prevented the cycle itself.
func (s *Scheduler) check(ctx context.Context) error {
	current := s.settings.Current()
	stage := s.resolveStage(ctx, current)
	params, ok := models.ParametersForStage(stage)
	if !ok {
		return fmt.Errorf("no parameter table for stage %q", stage)
	}

	opts := evaluate.OptionsFromSettings(current, s.staleAfter)
	sources := s.discoverer.Discover(ctx)

	nuts.L.Debugf("[Scheduler] Checking %d sources, stage %s", len(sources), stage)

	var wg sync.WaitGroup
	for _, source := range sources {
		wg.Add(1)
		go func(source string) {
			defer wg.Done()
			s.checkSource(ctx, source, stage, params, opts)
		}(source)
	}
	wg.Wait()
	return nil
}

// resolveStage prefers the stage of the active cultivation cycle over the
// statically configured one. Unknown stage names fall back to the default.
func (s *Scheduler) resolveStage(ctx context.Context, current models.MonitoringSettings) models.Stage {
	cycle, err := s.cycles.GetActive(ctx)
	if err != nil {
		nuts.L.Warnf("[Scheduler] Active cycle lookup failed, using configured stage: %v", err)
	} else if cycle != nil {
		return cycle.CurrentStage()
	}

	if stage, ok := models.NormalizeStage(string(current.Stage)); ok {
		return stage
	}
	return models.DefaultStage
}

func (s *Scheduler) checkSource(ctx context.Context, source string, stage models.Stage, params models.StageParameters, opts evaluate.Options) {
	s.metrics.SourcesChecked.Inc()

	reading, err := s.readings.FetchLatest(ctx, source)
	if err != nil {
		nuts.L.Errorf("[Scheduler] Failed to fetch latest reading of %s: %v", source, err)
		return
	}
	if reading == nil {
		nuts.L.Debugf("[Scheduler] Source %s has no readings yet", source)
		return
	}

	for _, violation := range evaluate.Evaluate(reading, stage, params, opts) {
		s.dispatch(violation)
	}
}

func (s *Scheduler) dispatch(v models.Violation) {
	if !s.dedup.ShouldNotify(v.SourceID, string(v.Parameter), v.Value) {
		s.metrics.AlertsSuppressed.Inc()
		nuts.L.Debugf("[Scheduler] Alert for %s/%s suppressed by cooldown", v.SourceID, v.Parameter)
		return
	}

	if !s.notifier.SendViolation(v) {
		s.metrics.NotifyFailures.Inc()
		return
	}

	s.metrics.AlertsSent.WithLabelValues(string(v.Parameter), string(v.Severity)).Inc()
	s.metrics.RecordEvent("alert.sent", map[string]string{
		"source":    v.SourceID,
		"parameter": string(v.Parameter),
		"severity":  string(v.Severity),
	})
}
