// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for weak
// ETags in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/bibion-backend/internal/domain"
)

// ChatsStats returns the number of chats owned by userID and the newest
// created_at among them (nil when there are none).
func ChatsStats(ctx context.Context, db *gorm.DB, userID string) (count int64, newest *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Chat{}).Where("user_id = ?", userID)
	return countAndNewest(q, "chats")
}

// MessagesStats returns the number of messages in chatID visible to userID
// and the newest created_at among them.
func MessagesStats(ctx context.Context, db *gorm.DB, chatID, userID string) (count int64, newest *time.Time, err error) {
	q := db.WithContext(ctx).
		Model(&domain.Message{}).
		Joins("JOIN chats ON chats.id = messages.chat_id").
		Where("messages.chat_id = ? AND chats.user_id = ?", chatID, userID)
	return countAndNewest(q, "messages")
}

func countAndNewest(q *gorm.DB, tbl string) (int64, *time.Time, error) {
	var count int64
	if err := q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Avoid MAX() which comes back as TEXT in SQLite.
	var row struct {
		CreatedAt time.Time
	}
	if err := q.Session(&gorm.Session{}).
		Select(tbl + ".created_at").
		Order(tbl + ".created_at DESC").
		Limit(1).
		Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}
