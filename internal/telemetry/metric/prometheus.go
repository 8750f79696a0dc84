// Package metric provides Prometheus metrics for timerelay.
package metric

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "timerelay"

// Registry holds all application metrics on a private Prometheus registry,
// so several servers can live in one process without colliding.
type Registry struct {
	registry *prometheus.Registry

	// Connection metrics
	ConnectionsActive prometheus.Gauge
	ConnectionsTotal  prometheus.Counter
	ProtocolErrors    *prometheus.CounterVec

	// Command metrics
	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec

	// Reply queue metrics
	ReplyFlushes prometheus.Counter
	ReplyBytes   prometheus.Counter

	// Scheduler metrics
	TasksScheduled   *prometheus.CounterVec
	TasksCancelled   prometheus.Counter
	Dispatches       *prometheus.CounterVec
	DispatchDuration prometheus.Histogram
}

// NewRegistry creates a registry with all timerelay metrics and the Go
// runtime and process collectors registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Number of open client connections.",
		}),
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Total number of accepted client connections.",
		}),
		ProtocolErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_errors_total",
			Help:      "Connections closed because of a protocol violation.",
		}, []string{"reason"}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Total number of executed commands.",
		}, []string{"command", "result"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Command execution time on the event loop.",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		}, []string{"command"}),
		ReplyFlushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reply_flushes_total",
			Help:      "Number of reply batches handed to connection writers.",
		}),
		ReplyBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reply_bytes_total",
			Help:      "Reply bytes written to clients.",
		}),
		TasksScheduled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_scheduled_total",
			Help:      "Tasks registered by RPC.",
		}, []string{"mode"}),
		TasksCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_cancelled_total",
			Help:      "Pending tasks cancelled by DEL.",
		}),
		Dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Payload forwards to workers by outcome.",
		}, []string{"result"}),
		DispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent connecting to a worker and writing the payload.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		r.ConnectionsActive,
		r.ConnectionsTotal,
		r.ProtocolErrors,
		r.CommandsTotal,
		r.CommandDuration,
		r.ReplyFlushes,
		r.ReplyBytes,
		r.TasksScheduled,
		r.TasksCancelled,
		r.Dispatches,
		r.DispatchDuration,
	)

	return r
}

// Register adds an extra collector, such as a Collector, to the registry.
func (r *Registry) Register(c prometheus.Collector) error {
	return r.registry.Register(c)
}

// Handler returns an HTTP handler serving this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// RecordCommand counts one executed command and its latency.
func (r *Registry) RecordCommand(command, result string, seconds float64) {
	r.CommandsTotal.WithLabelValues(command, result).Inc()
	r.CommandDuration.WithLabelValues(command).Observe(seconds)
}

// RecordDispatch counts one forward attempt.
func (r *Registry) RecordDispatch(result string, seconds float64) {
	r.Dispatches.WithLabelValues(result).Inc()
	r.DispatchDuration.Observe(seconds)
}

var (
	globalOnce sync.Once
	global     *Registry
)

// Global returns the process-wide registry used by the server binary.
func Global() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry()
	})
	return global
}

// Handler returns an HTTP handler for the global registry.
func Handler() http.Handler {
	return Global().Handler()
}
