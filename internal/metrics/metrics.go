// Package metrics exposes scheduler and test-runner counters via
// prometheus/client_golang, grounded on ChuLiYu/raft-recovery's job
// manager metrics wiring: a package-level Registry constructed once,
// gauges/counters updated from the scheduler and runner, and an optional
// HTTP handler `cocoro run --metrics-addr` can serve.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles every gauge/counter cocoro exposes.
type Registry struct {
	reg *prometheus.Registry

	TasksSpawned   prometheus.Counter
	TasksCompleted prometheus.Counter
	ReadyQueueLen  prometheus.Gauge
	WritesFlushed  prometheus.Counter
	TestsPassed    prometheus.Counter
	TestsFailed    prometheus.Counter
}

// New constructs and registers a fresh Registry.
func New() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{
		reg: reg,
		TasksSpawned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cocoro", Name: "tasks_spawned_total", Help: "Test tasks started by the test runner, one per registered test; tasks created via Spawn are not counted.",
		}),
		TasksCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cocoro", Name: "tasks_completed_total", Help: "Test tasks the test runner has finished; spawned child tasks are not counted.",
		}),
		ReadyQueueLen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cocoro", Name: "ready_queue_length", Help: "Current scheduler ready queue depth.",
		}),
		WritesFlushed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cocoro", Name: "writes_flushed_total", Help: "Signal writes applied during a readwrite-phase flush. The scheduler does not update this counter.",
		}),
		TestsPassed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cocoro", Name: "tests_passed_total", Help: "Registered tests that completed without error.",
		}),
		TestsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cocoro", Name: "tests_failed_total", Help: "Registered tests that completed with a stored error.",
		}),
	}
	reg.MustRegister(r.TasksSpawned, r.TasksCompleted, r.ReadyQueueLen, r.WritesFlushed, r.TestsPassed, r.TestsFailed)
	return r
}

// Handler returns the HTTP handler `cocoro run --metrics-addr` serves at
// /metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
