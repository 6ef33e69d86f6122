package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTPRequestDuration tracks HTTP request latency, shared across every route.
var HTTPRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "maes",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "path", "status"},
)

// AssessmentsStartedTotal counts assessments enqueued, by benchmark kind and trigger.
var AssessmentsStartedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "maes",
		Subsystem: "assessment",
		Name:      "started_total",
		Help:      "Total number of assessments enqueued.",
	},
	[]string{"benchmark_kind", "triggered_by"},
)

// AssessmentsCompletedTotal counts assessments reaching a terminal state.
var AssessmentsCompletedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "maes",
		Subsystem: "assessment",
		Name:      "completed_total",
		Help:      "Total number of assessments reaching a terminal state, by status.",
	},
	[]string{"status"},
)

// AssessmentDuration observes end-to-end assessment run duration.
var AssessmentDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "maes",
		Subsystem: "assessment",
		Name:      "duration_seconds",
		Help:      "Assessment run duration in seconds.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	},
	[]string{"benchmark_kind"},
)

// ControlResultsTotal counts control evaluations by outcome status.
var ControlResultsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "maes",
		Subsystem: "control",
		Name:      "results_total",
		Help:      "Total number of control evaluations, by status.",
	},
	[]string{"status"},
)

// QueueDepth reports the current number of pending jobs per priority band.
var QueueDepth = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "maes",
		Subsystem: "queue",
		Name:      "depth",
		Help:      "Current number of pending jobs in the queue, by priority.",
	},
	[]string{"priority"},
)

// SchedulesFiredTotal counts schedule firings, by frequency.
var SchedulesFiredTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "maes",
		Subsystem: "scheduler",
		Name:      "fired_total",
		Help:      "Total number of schedules fired, by frequency.",
	},
	[]string{"frequency"},
)

// ReportsGeneratedTotal counts reports generated, by format.
var ReportsGeneratedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "maes",
		Subsystem: "report",
		Name:      "generated_total",
		Help:      "Total number of reports generated, by format.",
	},
	[]string{"format"},
)

// GraphTokenRefreshTotal counts Graph OAuth2 token acquisitions, by auth method and outcome.
var GraphTokenRefreshTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "maes",
		Subsystem: "graph",
		Name:      "token_refresh_total",
		Help:      "Total number of Graph token acquisitions, by auth method and outcome.",
	},
	[]string{"auth_method", "outcome"},
)

// All returns every compliance-core metric for registration.
func All() []prometheus.Collector {
	return []prometheus.Collector{
		AssessmentsStartedTotal,
		AssessmentsCompletedTotal,
		AssessmentDuration,
		ControlResultsTotal,
		QueueDepth,
		SchedulesFiredTotal,
		ReportsGeneratedTotal,
		GraphTokenRefreshTotal,
	}
}

// NewMetricsRegistry creates a Prometheus registry with Go/process collectors,
// the shared HTTPRequestDuration metric, and every compliance-core collector.
func NewMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		HTTPRequestDuration,
	)
	for _, c := range All() {
		reg.MustRegister(c)
	}
	return reg
}
