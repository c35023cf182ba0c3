package store

import (
	"context"

	"github.com/sudigital-labs/token-engine/internal/domain"
)

//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore

// Store defines the interface for journal persistence
type Store interface {
	// AppendEvent journals a committed event
	AppendEvent(ctx context.Context, event *domain.TokenEvent) error
	// ListEvents returns journaled events in sequence order, for replay
	ListEvents(ctx context.Context, afterSequence uint64, limit int) ([]domain.TokenEvent, error)
	// LatestSequence returns the highest journaled sequence number, 0 when empty
	LatestSequence(ctx context.Context) (uint64, error)
}
