package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the mailer
type Metrics struct {
	// Sending
	EmailsSentTotal          prometheus.Counter
	EmailsFailedTotal        *prometheus.CounterVec
	SendBatchesTotal         *prometheus.CounterVec
	SendBatchDurationSeconds prometheus.Histogram

	// Tracking ingestion
	WebhookEventsTotal    *prometheus.CounterVec
	WebhookRejectedTotal  prometheus.Counter
	WebhookUnmatchedTotal prometheus.Counter
	UnsubscribesTotal     prometheus.Counter

	// HTTP API
	HTTPRequestsTotal          *prometheus.CounterVec
	HTTPRequestDurationSeconds *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates a Metrics instance with all collectors registered
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		EmailsSentTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "praxismail_emails_sent_total",
				Help: "Total number of emails accepted by the provider",
			},
		),
		EmailsFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "praxismail_emails_failed_total",
				Help: "Total number of emails that could not be sent",
			},
			[]string{"reason"},
		),
		SendBatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "praxismail_send_batches_total",
				Help: "Total number of send batches by outcome",
			},
			[]string{"result"},
		),
		SendBatchDurationSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "praxismail_send_batch_duration_seconds",
				Help:    "Time spent submitting one batch to the provider",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
		WebhookEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "praxismail_webhook_events_total",
				Help: "Total number of accepted webhook events by record type",
			},
			[]string{"record_type"},
		),
		WebhookRejectedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "praxismail_webhook_rejected_total",
				Help: "Total number of webhook requests rejected for a bad signature",
			},
		),
		WebhookUnmatchedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "praxismail_webhook_unmatched_total",
				Help: "Total number of webhook events with no matching recipient",
			},
		),
		UnsubscribesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "praxismail_unsubscribes_total",
				Help: "Total number of recipients who unsubscribed",
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "praxismail_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "praxismail_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		registry: reg,
	}

	reg.MustRegister(
		m.EmailsSentTotal,
		m.EmailsFailedTotal,
		m.SendBatchesTotal,
		m.SendBatchDurationSeconds,
		m.WebhookEventsTotal,
		m.WebhookRejectedTotal,
		m.WebhookUnmatchedTotal,
		m.UnsubscribesTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDurationSeconds,
	)

	return m
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the scrape endpoint handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// All recording methods tolerate a nil receiver so code under test can
// run without a registry.

// AddEmailsSent records n provider-accepted emails
func (m *Metrics) AddEmailsSent(n int) {
	if m == nil {
		return
	}
	m.EmailsSentTotal.Add(float64(n))
}

// AddEmailsFailed records n emails that failed for the given reason
func (m *Metrics) AddEmailsFailed(reason string, n int) {
	if m == nil {
		return
	}
	m.EmailsFailedTotal.WithLabelValues(reason).Add(float64(n))
}

// ObserveSendBatch records one batch submission and its duration
func (m *Metrics) ObserveSendBatch(result string, seconds float64) {
	if m == nil {
		return
	}
	m.SendBatchesTotal.WithLabelValues(result).Inc()
	m.SendBatchDurationSeconds.Observe(seconds)
}

// IncWebhookEvent records an accepted webhook event
func (m *Metrics) IncWebhookEvent(recordType string) {
	if m == nil {
		return
	}
	m.WebhookEventsTotal.WithLabelValues(recordType).Inc()
}

// IncWebhookRejected records a webhook request with a bad signature
func (m *Metrics) IncWebhookRejected() {
	if m == nil {
		return
	}
	m.WebhookRejectedTotal.Inc()
}

// IncWebhookUnmatched records a webhook event with no matching recipient
func (m *Metrics) IncWebhookUnmatched() {
	if m == nil {
		return
	}
	m.WebhookUnmatchedTotal.Inc()
}

// IncUnsubscribe records a recipient unsubscribing
func (m *Metrics) IncUnsubscribe() {
	if m == nil {
		return
	}
	m.UnsubscribesTotal.Inc()
}

// ObserveHTTPRequest records one handled HTTP request
func (m *Metrics) ObserveHTTPRequest(method, path, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDurationSeconds.WithLabelValues(method, path).Observe(seconds)
}
