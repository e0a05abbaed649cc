// Package metrics exposes Prometheus collectors for the ingress and the
// retrieval workers.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ingressRequestsTotal       *prometheus.CounterVec
	ingressJobsPublishedTotal  prometheus.Counter
	workerAttemptsTotal        *prometheus.CounterVec
	workerFetchDurationSeconds prometheus.Histogram
	workerSaveDurationSeconds  prometheus.Histogram
	workerBytesTotal           *prometheus.CounterVec
	workerRecorderFailures     prometheus.Counter

	once sync.Once
)

// Init registers the collectors. It is safe to call more than once and every
// observer calls it.
func Init() {
	once.Do(func() {
		ingressRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingress_requests_total",
				Help: "Download submissions, labeled by result.",
			},
			[]string{"result"},
		)

		ingressJobsPublishedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ingress_jobs_published_total",
				Help: "Jobs published to the queue by the ingress.",
			},
		)

		workerAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "worker_attempts_total",
				Help: "Retrieval attempts, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		workerFetchDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "worker_fetch_duration_seconds",
				Help:    "Time spent downloading documents.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
		)

		workerSaveDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "worker_save_duration_seconds",
				Help:    "Time spent writing documents to the storage sink.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		)

		workerBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "worker_bytes_total",
				Help: "Bytes stored, labeled by destination.",
			},
			[]string{"destination"},
		)

		workerRecorderFailures = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "worker_recorder_failures_total",
				Help: "Metadata records that could not be written.",
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObserveIngressRequest counts a download submission by result
// (accepted, rejected, unavailable).
func ObserveIngressRequest(result string) {
	Init()
	ingressRequestsTotal.WithLabelValues(result).Inc()
}

// ObserveJobPublished counts one job handed to the broker.
func ObserveJobPublished() {
	Init()
	ingressJobsPublishedTotal.Inc()
}

// ObserveAttempt counts a finished attempt by outcome.
func ObserveAttempt(outcome string) {
	Init()
	workerAttemptsTotal.WithLabelValues(outcome).Inc()
}

// ObserveFetch records a fetch phase duration.
func ObserveFetch(d time.Duration) {
	Init()
	workerFetchDurationSeconds.Observe(d.Seconds())
}

// ObserveSave records a save phase duration and the bytes written.
func ObserveSave(destination string, d time.Duration, bytes int64) {
	Init()
	workerSaveDurationSeconds.Observe(d.Seconds())
	workerBytesTotal.WithLabelValues(destination).Add(float64(bytes))
}

// ObserveRecorderFailure counts a metadata write that was given up on.
func ObserveRecorderFailure() {
	Init()
	workerRecorderFailures.Inc()
}
