package entities

import "time"

// Outbox operation statuses.
const (
	OutboxStatusPending = "pending"
	OutboxStatusFailed  = "failed"
)

// OutboxOperation is an offline mutation queued for replay once
// connectivity returns. The idempotency key is sent with every replay
// attempt so the backend can deduplicate; an operation leaves the queue
// only after the backend acknowledges it.
type OutboxOperation struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	IdempotencyKey string    `gorm:"size:36;not null;uniqueIndex" json:"idempotency_key"`
	Method         string    `gorm:"size:10;not null" json:"method"`
	Path           string    `gorm:"size:500;not null" json:"path"`
	Body           string    `gorm:"type:text;default:''" json:"body"`
	Status         string    `gorm:"size:10;not null;default:'pending';index" json:"status"`
	Retries        int       `gorm:"not null;default:0" json:"retries"`
	LastError      string    `gorm:"size:500;default:''" json:"last_error"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for GORM.
func (OutboxOperation) TableName() string {
	return "outbox_operations"
}
