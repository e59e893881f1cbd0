package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"callaudit-backend/metrics"
	"callaudit-backend/models"
)

// WebhookDispatcher pushes audit outcomes to the configured callback
// endpoint. Deliveries are best-effort: any failure is logged and never
// surfaced to the original caller, and nothing about the caller's
// response depends on delivery succeeding.
type WebhookDispatcher struct {
	url     string
	client  *http.Client
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewWebhookDispatcher creates a dispatcher for the given callback URL.
// An empty URL yields an unconfigured dispatcher; the webhook-contract
// handler rejects requests against it before any pipeline work starts.
func NewWebhookDispatcher(url string, timeout time.Duration, m *metrics.Metrics) *WebhookDispatcher {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &WebhookDispatcher{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		metrics: m,
		log:     log.With().Str("component", "webhook").Logger(),
	}
}

// Configured reports whether a callback URL is set.
func (d *WebhookDispatcher) Configured() bool {
	return d.url != ""
}

// Push delivers the payload to the callback endpoint at most once. All
// errors end here.
func (d *WebhookDispatcher) Push(ctx context.Context, payload *models.AuditOutcome) {
	if !d.Configured() {
		return
	}

	if err := d.push(ctx, payload); err != nil {
		if d.metrics != nil {
			d.metrics.WebhookFailures.Inc()
		}
		d.log.Error().Err(err).Str("sampleId", payload.SampleID).Str("status", string(payload.Status)).Msg("webhook delivery failed")
		return
	}

	if d.metrics != nil {
		d.metrics.WebhookDeliveries.Inc()
	}
	d.log.Info().Str("sampleId", payload.SampleID).Str("status", string(payload.Status)).Msg("webhook delivered")
}

func (d *WebhookDispatcher) push(ctx context.Context, payload *models.AuditOutcome) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("callback returned status %d", resp.StatusCode)
	}

	return nil
}
