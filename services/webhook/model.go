package webhook

import (
	"time"

	"gorm.io/datatypes"
)

type EventStatus string

const (
	StatusPending   EventStatus = "pending"
	StatusProcessed EventStatus = "processed"
	StatusFailed    EventStatus = "failed"
)

// Event is the ingestion record for one externally identified payment
// notification. The unique index on event_id is the idempotency anchor:
// at most one row exists per eventId, enforced by the storage layer at
// insert time. Rows are never deleted; they double as an audit trail.
type Event struct {
	ID          uint           `gorm:"column:id;primaryKey;autoIncrement"`
	EventID     string         `gorm:"column:event_id;uniqueIndex;not null"`
	Type        string         `gorm:"column:type;not null"`
	Payload     datatypes.JSON `gorm:"column:payload;type:jsonb"`
	Status      EventStatus    `gorm:"column:status;type:varchar(20);default:'pending'"`
	Attempts    int            `gorm:"column:attempts;not null;default:0"`
	ProcessedAt *time.Time     `gorm:"column:processed_at"`
	CreatedAt   time.Time      `gorm:"column:created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at"`
}

func (Event) TableName() string { return "events" }
