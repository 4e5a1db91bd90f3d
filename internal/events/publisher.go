package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/shoptalk-ai/business-chatbot/internal/model"
)

const (
	// StreamName is the name of the exchange events stream.
	StreamName = "CHAT_EXCHANGES"

	// SubjectPrefix is the prefix for all exchange subjects.
	SubjectPrefix = "chat.exchange"
)

// Publisher publishes completed exchanges. A failed publish must never fail
// the chat request it belongs to.
type Publisher interface {
	Publish(ctx context.Context, event *model.ExchangeEvent) error
}

// Noop is a Publisher that discards everything, used when events are disabled.
type Noop struct{}

// Publish discards the event.
func (Noop) Publish(ctx context.Context, event *model.ExchangeEvent) error {
	return nil
}

// JetStreamPublisher publishes exchanges to a JetStream stream.
type JetStreamPublisher struct {
	client *Client
}

// NewJetStreamPublisher creates a publisher on top of a connected client.
func NewJetStreamPublisher(client *Client) *JetStreamPublisher {
	return &JetStreamPublisher{client: client}
}

// EnsureStream ensures the exchange stream exists with proper configuration.
func (p *JetStreamPublisher) EnsureStream(ctx context.Context) error {
	js := p.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Completed chat exchanges",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// ExchangeSubject returns the subject for one conversation's exchanges.
func ExchangeSubject(conversationID string) string {
	return fmt.Sprintf("%s.%s", SubjectPrefix, conversationID)
}

// Publish publishes an exchange event.
func (p *JetStreamPublisher) Publish(ctx context.Context, event *model.ExchangeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal exchange: %w", err)
	}

	if _, err := p.client.JetStream().Publish(ctx, ExchangeSubject(event.ConversationID), data); err != nil {
		return fmt.Errorf("failed to publish exchange: %w", err)
	}

	return nil
}
