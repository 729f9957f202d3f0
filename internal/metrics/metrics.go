// Package metrics exposes Prometheus collectors for the archive jobs.
//
// Collectors live on a private registry. Batch runs dump it to a node-exporter
// textfile at exit; the viewer server exposes it on /metrics.
package metrics

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Record outcomes used as the "result" label.
const (
	ResultSucceeded = "succeeded"
	ResultSkipped   = "skipped"
	ResultFailed    = "failed"
)

var (
	registry = prometheus.NewRegistry()

	archivePagesTotal          *prometheus.CounterVec
	archiveBytesTotal          *prometheus.CounterVec
	archiveRecordsTotal        *prometheus.CounterVec
	archiveJobDurationSeconds  *prometheus.HistogramVec
	archivePacingDelaysSeconds *prometheus.HistogramVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		factory := promauto.With(registry)

		archivePagesTotal = factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "archive_pages_fetched_total",
				Help: "Total number of pages fetched, labeled by job and status.",
			},
			[]string{"job", "status"},
		)

		archiveBytesTotal = factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "archive_bytes_total",
				Help: "Total number of bytes fetched, labeled by site.",
			},
			[]string{"site"},
		)

		archiveRecordsTotal = factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "archive_records_total",
				Help: "Total number of units processed, labeled by job and result.",
			},
			[]string{"job", "result"},
		)

		archiveJobDurationSeconds = factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "archive_job_duration_seconds",
				Help:    "Wall-clock duration of a job run.",
				Buckets: []float64{1, 10, 60, 300, 1800, 3600, 7200},
			},
			[]string{"job"},
		)

		archivePacingDelaysSeconds = factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "archive_pacing_delays_seconds",
				Help:    "Histogram of pacing wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 1.5, 2, 5},
			},
			[]string{"domain"},
		)

		httpRequestsTotal = factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler exposing the archive registry.
func Handler() http.Handler {
	Init()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// ObservePage counts one fetch attempt for a job.
func ObservePage(job, site, status string, bytesFetched int) {
	Init()
	archivePagesTotal.WithLabelValues(job, status).Inc()
	if bytesFetched > 0 {
		archiveBytesTotal.WithLabelValues(SanitizeSite(site)).Add(float64(bytesFetched))
	}
}

// ObserveRecord counts one processed unit (a date or a game id).
func ObserveRecord(job, result string) {
	Init()
	archiveRecordsTotal.WithLabelValues(job, result).Inc()
}

// ObserveJobDuration records how long a job run took.
func ObserveJobDuration(job string, duration time.Duration) {
	Init()
	archiveJobDurationSeconds.WithLabelValues(job).Observe(duration.Seconds())
}

// ObservePacingDelay records the duration of a pacing wait.
func ObservePacingDelay(domain string, duration time.Duration) {
	Init()
	archivePacingDelaysSeconds.WithLabelValues(domain).Observe(duration.Seconds())
}

// WriteTextfile writes every collected metric to path in the text exposition
// format understood by the node exporter textfile collector.
func WriteTextfile(path string) error {
	Init()
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
