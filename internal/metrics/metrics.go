// Package metrics exposes engine activity to prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use as a nil pointer, which records nothing.
type Metrics struct {
	registry *prometheus.Registry

	rescheduledTasks     prometheus.Counter
	rescheduleDuration   prometheus.Histogram
	rejectedDependencies *prometheus.CounterVec
	resourceConflicts    *prometheus.CounterVec
	criticalPathDays     *prometheus.GaugeVec
	droppedEvents        *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rescheduledTasks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ganttguild_rescheduled_tasks_total",
			Help: "Number of tasks moved by dependency propagation.",
		}),
		rescheduleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ganttguild_reschedule_duration_seconds",
			Help:    "Time taken by one propagation run.",
			Buckets: prometheus.DefBuckets,
		}),
		rejectedDependencies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ganttguild_rejected_dependencies_total",
			Help: "Dependencies refused by the graph, by reason.",
		}, []string{"reason"}),
		resourceConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ganttguild_resource_conflicts_total",
			Help: "Over-allocation windows detected, by resource type.",
		}, []string{"resource_type"}),
		criticalPathDays: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ganttguild_critical_path_days",
			Help: "Length in days of the last computed critical path of a view.",
		}, []string{"view_id"}),
		droppedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ganttguild_dropped_events_total",
			Help: "Events not delivered to a subscriber whose buffer was full.",
		}, []string{"type"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.rescheduledTasks,
		m.rescheduleDuration,
		m.rejectedDependencies,
		m.resourceConflicts,
		m.criticalPathDays,
		m.droppedEvents,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveReschedule(moved int, took time.Duration) {
	if m == nil {
		return
	}
	m.rescheduledTasks.Add(float64(moved))
	m.rescheduleDuration.Observe(took.Seconds())
}

func (m *Metrics) RejectDependency(reason string) {
	if m == nil {
		return
	}
	m.rejectedDependencies.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveConflict(resourceType string) {
	if m == nil {
		return
	}
	m.resourceConflicts.WithLabelValues(resourceType).Inc()
}

func (m *Metrics) SetCriticalPath(viewID string, days int) {
	if m == nil {
		return
	}
	m.criticalPathDays.WithLabelValues(viewID).Set(float64(days))
}

// ForgetView removes the per-view series of a deleted view.
func (m *Metrics) ForgetView(viewID string) {
	if m == nil {
		return
	}
	m.criticalPathDays.DeleteLabelValues(viewID)
}

func (m *Metrics) DropEvent(eventType string) {
	if m == nil {
		return
	}
	m.droppedEvents.WithLabelValues(eventType).Inc()
}
