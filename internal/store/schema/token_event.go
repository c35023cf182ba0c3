package schema

import (
	"time"

	"gorm.io/datatypes"
)

// TokenEvent represents the token_events table - the append-only journal of
// committed ledger operations. Replaying the journal in sequence order
// rebuilds the full engine state.
type TokenEvent struct {
	// ID is a ULID assigned by the relay when the event is journaled
	ID string `gorm:"column:id;primaryKey;type:text"`
	// Sequence is the engine's logical clock value for the committed operation
	Sequence uint64 `gorm:"column:sequence;not null;index:idx_token_events_sequence"`
	// Type identifies the operation (mint, burn, transfer, claim, ...)
	Type string `gorm:"column:type;not null;type:text"`
	// Caller is the address that invoked the operation
	Caller string `gorm:"column:caller;not null;type:text"`
	// Payload is the full event body as JSON, sufficient to replay the operation
	Payload datatypes.JSON `gorm:"column:payload;not null;type:jsonb"`
	// CreatedAt is the timestamp when the event was journaled
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the TokenEvent model
func (TokenEvent) TableName() string {
	return "token_events"
}
