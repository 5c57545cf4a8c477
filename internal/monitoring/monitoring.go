// FilePath: internal/monitoring/monitoring.go

// Package monitoring records operational metrics of the check loop and
// emits alert events for interested listeners.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	nuts "github.com/vaudience/go-nuts"
)

// Service provides monitoring functionality
type Service struct {
	registry *prometheus.Registry
	events   *nuts.EventEmitter

	Ticks            prometheus.Counter
	TickErrors       prometheus.Counter
	SourcesChecked   prometheus.Counter
	AlertsSent       *prometheus.CounterVec
	AlertsSuppressed prometheus.Counter
	NotifyFailures   prometheus.Counter
}

// NewService creates a new monitoring service with its own registry, so
// tests can instantiate independent instances without collector collisions.
func NewService() *Service {
	registry := prometheus.NewRegistry()

	s := &Service{
		registry: registry,
		events:   nuts.NewEventEmitter(),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "greenhub_ticks_total",
			Help: "Completed monitoring check cycles.",
		}),
		TickErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "greenhub_tick_errors_total",
			Help: "Check cycles that ended with an error.",
		}),
		SourcesChecked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "greenhub_sources_checked_total",
			Help: "Individual sensor sources checked.",
		}),
		AlertsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "greenhub_alerts_sent_total",
			Help: "Alerts dispatched to the chat channel.",
		}, []string{"parameter", "severity"}),
		AlertsSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "greenhub_alerts_suppressed_total",
			Help: "Alerts withheld by the cooldown window.",
		}),
		NotifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "greenhub_notify_failures_total",
			Help: "Alert dispatch attempts that failed.",
		}),
	}

	registry.MustRegister(
		s.Ticks, s.TickErrors, s.SourcesChecked,
		s.AlertsSent, s.AlertsSuppressed, s.NotifyFailures,
	)
	return s
}

// Handler serves the metrics endpoint.
func (s *Service) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// RecordEvent records a monitored event with labels and notifies listeners.
func (s *Service) RecordEvent(eventName string, labels map[string]string) {
	nuts.L.Infof("[Monitoring] Event %s: %v", eventName, labels)
	s.events.Emit(eventName, labels)
}

// OnEvent registers a callback for a monitored event.
func (s *Service) OnEvent(event string, handler func(labels map[string]string)) {
	s.events.On(event, "monitoring_handler", func(args ...interface{}) {
		if len(args) > 0 {
			if labels, ok := args[0].(map[string]string); ok {
				handler(labels)
			}
		}
	})
}
