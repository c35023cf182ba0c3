package messaging

import (
	"context"

	"github.com/sudigital-labs/token-engine/internal/domain"
)

// Publisher defines the interface for publishing events to message queue
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishEvent publishes a committed token event to the message broker
	PublishEvent(ctx context.Context, event *domain.TokenEvent) error
	// Close closes the connection
	Close()
}

// NoopPublisher discards all events. It stands in when no broker is configured.
type NoopPublisher struct{}

// NewNoopPublisher creates a publisher that discards all events
func NewNoopPublisher() Publisher {
	return &NoopPublisher{}
}

func (p *NoopPublisher) PublishEvent(_ context.Context, _ *domain.TokenEvent) error {
	return nil
}

func (p *NoopPublisher) Close() {}
