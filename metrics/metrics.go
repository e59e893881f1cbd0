// Package metrics defines the Prometheus metrics for the call audit
// service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the audit pipeline.
type Metrics struct {
	// Audit pipeline metrics
	AuditsStarted   prometheus.Counter
	AuditsCompleted prometheus.Counter
	AuditsFailed    prometheus.Counter
	AuditDuration   prometheus.Histogram

	// Judgment oracle metrics
	JudgmentBatches       prometheus.Counter
	JudgmentBatchFailures prometheus.Counter
	JudgmentDuration      prometheus.Histogram

	// Transcription metrics
	TranscriptionRequests prometheus.Counter
	TranscriptionFailures prometheus.Counter
	TranscriptionDuration prometheus.Histogram

	// Webhook delivery metrics
	WebhookDeliveries prometheus.Counter
	WebhookFailures   prometheus.Counter
}

// New creates and registers all metrics on the default registerer.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates and registers all metrics on the given registerer.
// Tests pass a fresh registry to avoid duplicate registration.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AuditsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "callaudit_audits_started_total",
			Help: "Total number of audit requests started",
		}),
		AuditsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "callaudit_audits_completed_total",
			Help: "Total number of audit requests completed successfully",
		}),
		AuditsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "callaudit_audits_failed_total",
			Help: "Total number of audit requests that failed",
		}),
		AuditDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "callaudit_audit_duration_seconds",
			Help:    "End-to-end duration of audit requests in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),

		JudgmentBatches: factory.NewCounter(prometheus.CounterOpts{
			Name: "callaudit_judgment_batches_total",
			Help: "Total number of rule batches submitted to the judgment oracle",
		}),
		JudgmentBatchFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "callaudit_judgment_batch_failures_total",
			Help: "Total number of rule batches downgraded to error verdicts",
		}),
		JudgmentDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "callaudit_judgment_duration_seconds",
			Help:    "Duration of judgment oracle calls in seconds",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}),

		TranscriptionRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "callaudit_transcription_requests_total",
			Help: "Total number of transcription requests",
		}),
		TranscriptionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "callaudit_transcription_failures_total",
			Help: "Total number of failed transcription requests",
		}),
		TranscriptionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "callaudit_transcription_duration_seconds",
			Help:    "Duration of transcription requests in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),

		WebhookDeliveries: factory.NewCounter(prometheus.CounterOpts{
			Name: "callaudit_webhook_deliveries_total",
			Help: "Total number of webhook payloads delivered",
		}),
		WebhookFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "callaudit_webhook_failures_total",
			Help: "Total number of webhook deliveries that failed",
		}),
	}
}
