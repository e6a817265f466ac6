// Package events publishes gateway events to NATS JetStream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/wanderai/travel-gateway/pkg/logger"
)

const (
	// StreamName is the name of the gateway events stream.
	StreamName = "TRAVEL_EVENTS"

	// SubjectPrefix is the prefix for all gateway event subjects.
	SubjectPrefix = "travel"
)

// ChatTurnEvent describes one completed chat exchange.
type ChatTurnEvent struct {
	SessionID        string    `json:"session_id"`
	Provider         string    `json:"provider"`
	ResultType       string    `json:"result_type"`
	ValidationStatus string    `json:"validation_status"`
	CreatedAt        time.Time `json:"created_at"`
}

// MutationEvent describes one applied knowledge-base mutation.
type MutationEvent struct {
	Action    string    `json:"action"`
	Type      string    `json:"type"`
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"created_at"`
}

// Publisher emits gateway events. Publishing is fire-and-forget from the
// caller's point of view; failures are logged, never surfaced to requests.
type Publisher interface {
	PublishChatTurn(ctx context.Context, ev *ChatTurnEvent)
	PublishMutation(ctx context.Context, ev *MutationEvent)
	Connected() bool
	Close()
}

// NATSPublisher publishes events to a JetStream stream.
type NATSPublisher struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	logger *logger.Logger
}

// Connect establishes a NATS connection and ensures the events stream exists.
func Connect(ctx context.Context, url, token string, log *logger.Logger) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	p := &NATSPublisher{conn: nc, js: js, logger: log}
	if err := p.ensureStream(ctx); err != nil {
		nc.Close()
		return nil, err
	}
	return p, nil
}

func (p *NATSPublisher) ensureStream(ctx context.Context) error {
	if _, err := p.js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := p.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Description: "Chat turns and knowledge-base mutations",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// PublishChatTurn emits a chat-turn event.
func (p *NATSPublisher) PublishChatTurn(ctx context.Context, ev *ChatTurnEvent) {
	subject := fmt.Sprintf("%s.chat.turn.%s", SubjectPrefix, ev.SessionID)
	p.publish(ctx, subject, ev)
}

// PublishMutation emits a knowledge-base mutation event.
func (p *NATSPublisher) PublishMutation(ctx context.Context, ev *MutationEvent) {
	subject := fmt.Sprintf("%s.kb.%s.%s", SubjectPrefix, ev.Type, ev.Action)
	p.publish(ctx, subject, ev)
}

func (p *NATSPublisher) publish(ctx context.Context, subject string, ev any) {
	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("failed to marshal event", zap.String("subject", subject), zap.Error(err))
		return
	}
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		p.logger.Warn("failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}

// Connected returns true if connected to NATS.
func (p *NATSPublisher) Connected() bool {
	return p.conn != nil && p.conn.IsConnected()
}

// Close closes the NATS connection.
func (p *NATSPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

// NoopPublisher discards all events; used when no NATS URL is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishChatTurn(context.Context, *ChatTurnEvent) {}
func (NoopPublisher) PublishMutation(context.Context, *MutationEvent) {}
func (NoopPublisher) Connected() bool                                 { return false }
func (NoopPublisher) Close()                                          {}
