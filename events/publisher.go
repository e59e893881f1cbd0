// Package events publishes audit lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"callaudit-backend/models"
)

// Publisher publishes audit-completed events. When disabled (or given no
// brokers) it runs in log-only mode and Publish calls are cheap no-ops.
type Publisher struct {
	writer  *kafka.Writer
	topic   string
	enabled bool
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers []string
	Topic   string
	Enabled bool
}

// New creates a new Kafka event publisher.
func New(cfg *Config) *Publisher {
	if cfg == nil || !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, audit events run in log-only mode")
		p := &Publisher{enabled: false}
		if cfg != nil {
			p.topic = cfg.Topic
		}
		return p
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    &kafka.Transport{Dial: dialer.DialFunc},
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writer:  writer,
		topic:   cfg.Topic,
		enabled: true,
	}
}

// auditEvent is the wire shape of an audit-completed event.
type auditEvent struct {
	SampleID  string             `json:"sampleId,omitempty"`
	Status    models.AuditStatus `json:"status"`
	Groups    int                `json:"groups"`
	Timestamp time.Time          `json:"timestamp"`
}

// PublishCompleted publishes an audit-completed event. Delivery is
// best-effort; failures are logged and never propagated.
func (p *Publisher) PublishCompleted(ctx context.Context, outcome *models.AuditOutcome) {
	event := auditEvent{
		SampleID:  outcome.SampleID,
		Status:    outcome.Status,
		Groups:    len(outcome.Evaluations),
		Timestamp: time.Now().UTC(),
	}

	if !p.enabled {
		log.Debug().Str("sampleId", event.SampleID).Msg("audit event (log-only)")
		return
	}

	value, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal audit event")
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.SampleID),
		Value: value,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Error().Err(err).Str("sampleId", event.SampleID).Msg("failed to publish audit event")
		return
	}

	log.Debug().Str("sampleId", event.SampleID).Str("topic", p.topic).Msg("audit event published")
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
