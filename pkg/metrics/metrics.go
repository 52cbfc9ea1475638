package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors of the collector worker.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	TasksTotal          *prometheus.CounterVec // kind, outcome
	TaskDuration        *prometheus.HistogramVec
	RetriesTotal        *prometheus.CounterVec
	RotationsTotal      *prometheus.CounterVec // result: success, failure
	ArtifactsTotal      *prometheus.CounterVec
	ArtifactBytes       prometheus.Counter
	QueueDepth          *prometheus.GaugeVec
}

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer in production
// and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		TasksTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "collector_tasks_total",
				Help: "Total number of task attempts by collector kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		TaskDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "collector_task_duration_seconds",
				Help:    "Duration of task attempts.",
				Buckets: []float64{1, 5, 10, 15, 30, 60, 120, 300},
			},
			[]string{"kind"},
		),
		RetriesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "collector_retries_total",
				Help: "Total number of tasks re-enqueued, by failing stage.",
			},
			[]string{"stage"},
		),
		RotationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "collector_identity_rotations_total",
				Help: "Total number of anonymity identity rotations.",
			},
			[]string{"result"},
		),
		ArtifactsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "collector_artifacts_total",
				Help: "Total number of artifacts persisted.",
			},
			[]string{"type"},
		),
		ArtifactBytes: f.NewCounter(
			prometheus.CounterOpts{
				Name: "collector_artifact_bytes_total",
				Help: "Total number of bytes written to object storage.",
			},
		),
		QueueDepth: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "collector_queue_depth",
				Help: "Current number of tasks waiting in the queue lists.",
			},
			[]string{"queue"},
		),
	}
}
