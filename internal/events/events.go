package events

import (
	"context"
	"encoding/json"

	"github.com/Bhuvanani14/goodcity/types"
)

// Backend defines the broker-agnostic publish operation used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Close() error
}

// Publisher wraps a backend and a channel name with a typed API for
// issue lifecycle events.
type Publisher struct {
	backend Backend
	channel string
}

// NewPublisher constructs a Publisher for the provided backend.
func NewPublisher(backend Backend, channel string) *Publisher {
	return &Publisher{backend: backend, channel: channel}
}

// PublishIssueEvent serializes and publishes one issue event.
func (p *Publisher) PublishIssueEvent(ctx context.Context, event types.IssueEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.backend.Publish(ctx, p.channel, data, map[string]string{
		"type": event.Type,
	})
	return err
}

// Close closes the underlying backend.
func (p *Publisher) Close() error {
	return p.backend.Close()
}
