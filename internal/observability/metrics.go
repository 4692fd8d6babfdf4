package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Question outcomes.
const (
	OutcomeAnswered   = "answered"
	OutcomeRejected   = "rejected"
	OutcomeModelError = "model_error"
	OutcomeFailed     = "failed"
)

const namespace = "salesquery"

var (
	httpLabels = []string{"method", "path", "status"}

	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status.",
	}, httpLabels)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, httpLabels)

	questionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "questions_total",
		Help:      "Natural-language questions by outcome.",
	}, []string{"outcome"})

	sqlRejectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sql_rejections_total",
		Help:      "Statements refused before execution, by reason.",
	}, []string{"reason"})

	queryDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "query_duration_seconds",
		Help:      "Read-only query execution latency.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"status"})

	modelRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "model_requests_total",
		Help:      "Language model requests by provider and status.",
	}, []string{"provider", "status"})
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDurationSeconds,
		questionsTotal,
		sqlRejectionsTotal,
		queryDurationSeconds,
		modelRequestsTotal,
	)
}

func ObserveQuestion(outcome string) {
	questionsTotal.WithLabelValues(outcome).Inc()
}

func ObserveSQLRejection(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	sqlRejectionsTotal.WithLabelValues(reason).Inc()
}

func ObserveQuery(elapsed time.Duration, err error) {
	queryDurationSeconds.WithLabelValues(statusLabel(err)).Observe(elapsed.Seconds())
}

func ObserveModelRequest(provider string, err error) {
	modelRequestsTotal.WithLabelValues(provider, statusLabel(err)).Inc()
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
