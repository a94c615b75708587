package notify

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
)

// PubSub publishes notifications to a Google Cloud Pub/Sub topic.
type PubSub struct {
	publisher *pubsub.Publisher
}

// NewPubSub wraps a topic publisher.
func NewPubSub(publisher *pubsub.Publisher) *PubSub {
	return &PubSub{publisher: publisher}
}

// Publish marshals the payload to JSON and publishes it.
func (p *PubSub) Publish(ctx context.Context, _ string, payload any) (string, error) {
	if p.publisher == nil {
		return "", fmt.Errorf("pubsub publisher is not configured")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	result := p.publisher.Publish(ctx, &pubsub.Message{Data: data})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish message: %w", err)
	}
	return id, nil
}
