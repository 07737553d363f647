package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Idempotency records the outcome of a turn keyed by (user_id, chat_id, key)
// so a client retry can be answered without calling the model again.
// ChatID is empty for turns that created their chat.
type Idempotency struct {
	ID        string         `gorm:"type:varchar(36);primaryKey"`
	UserID    string         `gorm:"type:varchar(36);not null;uniqueIndex:ux_user_chat_key,priority:1"`
	ChatID    string         `gorm:"type:varchar(36);not null;uniqueIndex:ux_user_chat_key,priority:2"`
	Key       string         `gorm:"type:varchar(128);not null;uniqueIndex:ux_user_chat_key,priority:3"`
	MessageID string         `gorm:"type:varchar(36);not null"`
	Status    int            `gorm:"not null"`
	Response  datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	ExpiresAt time.Time      `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }

// Pending reports whether the key is reserved by a turn still running.
func (i Idempotency) Pending() bool { return i.Status == 0 }

// Expired reports whether the record is past its expiry at now.
func (i Idempotency) Expired(now time.Time) bool { return !now.Before(i.ExpiresAt) }
