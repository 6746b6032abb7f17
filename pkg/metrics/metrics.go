// Package metrics provides Prometheus metrics for the template directory.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "directory"

// Metrics holds all Prometheus metrics for the directory.
type Metrics struct {
	// Read path
	LookupsTotal      *prometheus.CounterVec
	ListQueriesTotal  *prometheus.CounterVec
	ListQueryDuration prometheus.Histogram
	CacheRequests     *prometheus.CounterVec

	// Write path
	SubmissionsTotal *prometheus.CounterVec
	NewsletterTotal  *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "template_lookups_total",
			Help:      "Template lookups by identifier form and result.",
		}, []string{"form", "result"}),
		ListQueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "list_queries_total",
			Help:      "Template list queries by sort order and whether a search term was given.",
		}, []string{"sort", "search"}),
		ListQueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "list_query_duration_seconds",
			Help:      "Template list query duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		CacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Read-model cache requests by key and result.",
		}, []string{"key", "result"}),
		SubmissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Template submissions by channel and outcome.",
		}, []string{"channel", "outcome"}),
		NewsletterTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "newsletter_subscriptions_total",
			Help:      "Newsletter subscription attempts by outcome.",
		}, []string{"outcome"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}

	reg.MustRegister(
		m.LookupsTotal,
		m.ListQueriesTotal,
		m.ListQueryDuration,
		m.CacheRequests,
		m.SubmissionsTotal,
		m.NewsletterTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)

	return m
}

// Handler returns the Prometheus HTTP handler for the given gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// RecordLookup records a resolve attempt. Form is "id" or "slug".
func (m *Metrics) RecordLookup(form, result string) {
	m.LookupsTotal.WithLabelValues(form, result).Inc()
}

// RecordListQuery records a catalog list call.
func (m *Metrics) RecordListQuery(sort string, hasSearch bool, seconds float64) {
	search := "false"
	if hasSearch {
		search = "true"
	}

	m.ListQueriesTotal.WithLabelValues(sort, search).Inc()
	m.ListQueryDuration.Observe(seconds)
}

// RecordCache records a cache hit or miss.
func (m *Metrics) RecordCache(key string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}

	m.CacheRequests.WithLabelValues(key, result).Inc()
}

// RecordSubmission records the outcome of a submission or upload.
func (m *Metrics) RecordSubmission(channel, outcome string) {
	m.SubmissionsTotal.WithLabelValues(channel, outcome).Inc()
}

// RecordNewsletter records a newsletter subscription outcome.
func (m *Metrics) RecordNewsletter(outcome string) {
	m.NewsletterTotal.WithLabelValues(outcome).Inc()
}

// RecordHTTPRequest records an HTTP request metric.
func (m *Metrics) RecordHTTPRequest(method, path, status string, seconds float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(seconds)
}
