package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sudigital-labs/token-engine/internal/domain"
	"github.com/sudigital-labs/token-engine/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to defaults:
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}
	// database/sql treats MaxIdleConns above MaxOpenConns as MaxOpenConns anyway
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// AppendEvent journals a committed event
func (s *pgStore) AppendEvent(ctx context.Context, event *domain.TokenEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.ID, err)
	}

	row := schema.TokenEvent{
		ID:        event.ID,
		Sequence:  event.Sequence,
		Type:      string(event.Type),
		Caller:    event.Caller.Hex(),
		Payload:   datatypes.JSON(payload),
		CreatedAt: event.Timestamp,
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to append event %s: %w", event.ID, err)
	}
	return nil
}

// ListEvents returns journaled events in sequence order, for replay
func (s *pgStore) ListEvents(ctx context.Context, afterSequence uint64, limit int) ([]domain.TokenEvent, error) {
	var rows []schema.TokenEvent
	q := s.db.WithContext(ctx).
		Where("sequence > ?", afterSequence).
		Order("sequence ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	events := make([]domain.TokenEvent, 0, len(rows))
	for i := range rows {
		var ev domain.TokenEvent
		if err := json.Unmarshal(rows[i].Payload, &ev); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event %s: %w", rows[i].ID, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// LatestSequence returns the highest journaled sequence number, 0 when empty
func (s *pgStore) LatestSequence(ctx context.Context) (uint64, error) {
	var seq *uint64
	err := s.db.WithContext(ctx).
		Model(&schema.TokenEvent{}).
		Select("MAX(sequence)").
		Scan(&seq).Error
	if err != nil {
		return 0, fmt.Errorf("failed to query latest sequence: %w", err)
	}
	if seq == nil {
		return 0, nil
	}
	return *seq, nil
}
