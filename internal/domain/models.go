// Package domain defines the persistence models for users, chats and
// messages, plus the value types that flow between the HTTP layer, the
// orchestrator and the model gateway.
package domain

import (
	"errors"
	"strings"
	"time"
)

// Role identifies the author of a message. Stored upper-case, exposed
// lower-case on the wire.
type Role string

const (
	RoleUser Role = "USER"
	RoleAI   Role = "AI"
)

// ErrInvalidRole is returned by ParseRole for anything outside the closed set.
var ErrInvalidRole = errors.New("invalid role")

// ParseRole maps a wire role to a Role. "assistant" and "model" are accepted
// as aliases of "ai".
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return RoleUser, nil
	case "ai", "assistant", "model":
		return RoleAI, nil
	}
	return "", ErrInvalidRole
}

// Wire returns the lower-case representation used in JSON responses.
func (r Role) Wire() string { return strings.ToLower(string(r)) }

// Turn is one element of a conversation as sent by the client.
type Turn struct {
	Role    Role
	Content string
}

// Persona is the instruction block that primes every generation, followed
// by the model's acknowledgement of it.
type Persona struct {
	Instructions    string
	Acknowledgement string
}

// User is an identity resolved from a session. Email is the natural key.
type User struct {
	ID        string    `json:"id"         gorm:"type:varchar(36);primaryKey"`
	Email     string    `json:"email"      gorm:"type:varchar(320);not null;uniqueIndex:ux_users_email"`
	Name      string    `json:"name"       gorm:"type:varchar(255)"`
	Image     string    `json:"image"      gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Chat is a conversation owned by exactly one user. The title is set at
// creation and never changes.
type Chat struct {
	ID        string    `json:"id"         gorm:"type:varchar(36);primaryKey"`
	Title     string    `json:"title"      gorm:"type:text;not null"`
	UserID    string    `json:"user_id"    gorm:"type:varchar(36);not null;index:idx_user_chats,priority:1"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_user_chats,priority:2"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Chat.
func (Chat) TableName() string { return "chats" }

// Message is a single utterance within a chat. Messages are only ever
// written in USER/AI pairs.
type Message struct {
	ID        string    `json:"id"         gorm:"type:varchar(36);primaryKey"`
	Role      Role      `json:"role"       gorm:"type:varchar(8);not null;check:chk_messages_role,role IN ('USER','AI')"`
	Content   string    `json:"content"    gorm:"type:text;not null"`
	ChatID    string    `json:"chat_id"    gorm:"type:varchar(36);not null;index:idx_chat_msgs,priority:1"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_chat_msgs,priority:2"`

	Chat Chat `json:"-" gorm:"foreignKey:ChatID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }
