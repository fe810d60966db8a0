package loyalty

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// User is one loyalty beneficiary. Rows are created lazily on first award
// and the balance only ever moves through atomic increments, so that
// points always equals the sum of the user's transaction rows.
type User struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Points    int64     `gorm:"column:points;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (User) TableName() string { return "users" }

// Transaction is the append-only award ledger. Its unique event_id is the
// single source of truth for "already awarded": a transaction exists for an
// event if and only if that event's points have been credited. Immutable
// once created.
type Transaction struct {
	ID        snowflake.ID `gorm:"column:id;primaryKey"`
	EventID   string       `gorm:"column:event_id;uniqueIndex;not null"`
	UserID    string       `gorm:"column:user_id;index;not null"`
	Amount    int64        `gorm:"column:amount;not null"`
	Points    int64        `gorm:"column:points;not null"`
	CreatedAt time.Time    `gorm:"column:created_at"`
}

func (Transaction) TableName() string { return "transactions" }
