// Package events publishes planner lifecycle notifications.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/juliasaboya/ScheduleEngine/pkg/config"
)

// Type names an event; it is appended to the configured subject prefix.
type Type string

const (
	WeeklyBuilt     Type = "weekly.built"
	DayRecalculated Type = "day.recalculated"
)

// Envelope is the JSON document published for every event.
type Envelope struct {
	ID        string      `json:"id"`
	Type      Type        `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// Publisher emits planner events.
type Publisher interface {
	Publish(ctx context.Context, eventType Type, payload interface{}) error
	Close() error
}

// conn is the subset of *nats.Conn the publisher relies on.
type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSPublisher publishes JSON envelopes on NATS subjects.
type NATSPublisher struct {
	conn   conn
	prefix string
	logger *zap.Logger
}

// Connect dials NATS when enabled and returns a no-op publisher otherwise.
func Connect(cfg config.NATSConfig, logger *zap.Logger) (Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		logger.Info("event publishing disabled")
		return NoopPublisher{}, nil
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Name("schedule-engine"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	logger.Info("event publishing enabled", zap.String("url", cfg.URL))
	return newNATSPublisher(nc, cfg.SubjectPrefix, logger), nil
}

func newNATSPublisher(c conn, prefix string, logger *zap.Logger) *NATSPublisher {
	return &NATSPublisher{conn: c, prefix: strings.TrimSuffix(prefix, "."), logger: logger}
}

// Subject returns the NATS subject for an event type.
func (p *NATSPublisher) Subject(eventType Type) string {
	if p.prefix == "" {
		return string(eventType)
	}
	return p.prefix + "." + string(eventType)
}

// Publish marshals payload into an Envelope and sends it.
func (p *NATSPublisher) Publish(ctx context.Context, eventType Type, payload interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(Envelope{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	subject := p.Subject(eventType)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	p.logger.Debug("event published", zap.String("subject", subject))
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

// NoopPublisher discards events.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Type, interface{}) error { return nil }
func (NoopPublisher) Close() error                                     { return nil }
