package relay

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/sudigital-labs/token-engine/internal/domain"
	"github.com/sudigital-labs/token-engine/internal/logger"
	"github.com/sudigital-labs/token-engine/internal/messaging"
	"github.com/sudigital-labs/token-engine/internal/store"
)

// Relay journals committed engine events and fans them out to the message
// broker. Events are handed off synchronously from the engine's commit path,
// then persisted and published asynchronously on a worker pool so the engine
// never blocks on I/O. The journal is write-behind: persistence failures are
// logged and reported to sentry rather than failing the committed operation.
type Relay struct {
	store     store.Store
	publisher messaging.Publisher
	pool      pond.Pool

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Config holds relay worker pool configuration
type Config struct {
	PoolSize  int
	QueueSize int
}

// New creates a relay backed by the given journal store and publisher
func New(cfg Config, s store.Store, publisher messaging.Publisher) *Relay {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 4
	}
	opts := []pond.Option{}
	if cfg.QueueSize > 0 {
		opts = append(opts, pond.WithQueueSize(cfg.QueueSize))
	}

	return &Relay{
		store:     s,
		publisher: publisher,
		pool:      pond.NewPool(cfg.PoolSize, opts...),
		entropy:   ulid.Monotonic(rand.Reader, 0),
	}
}

// Handle accepts a committed event from the engine. It assigns the event ID
// and schedules persistence and publishing. Safe for concurrent use.
func (r *Relay) Handle(event domain.TokenEvent) {
	event.ID = r.nextID(event.Timestamp)

	r.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := r.store.AppendEvent(ctx, &event); err != nil {
			logger.Error(err,
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
				zap.Uint64("sequence", event.Sequence))
			return
		}

		if err := r.publisher.PublishEvent(ctx, &event); err != nil {
			logger.Error(err,
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
				zap.Uint64("sequence", event.Sequence))
		}
	})
}

// Close drains the worker pool, waiting for in-flight events to finish
func (r *Relay) Close() {
	r.pool.StopAndWait()
}

// nextID issues a monotonic ULID for the event, keyed to its commit timestamp
func (r *Relay) nextID(ts time.Time) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(ts), r.entropy)
	if err != nil {
		// Monotonic overflow within the same millisecond; fall back to a fresh random ULID
		return ulid.Make().String()
	}
	return id.String()
}
