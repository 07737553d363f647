// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message model.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/bibion-backend/internal/domain"
)

// pairGap separates the AI row of a pair from its USER row so ordering by
// created_at never interleaves them.
const pairGap = time.Microsecond

// AppendTurn writes the USER message and the AI reply for chatID in one
// transaction. Either both rows are committed or neither.
func AppendTurn(ctx context.Context, db *gorm.DB, chatID, userContent, aiContent string) (user, ai *domain.Message, err error) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	user = &domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleUser,
		Content:   userContent,
		ChatID:    chatID,
		CreatedAt: now,
	}
	ai = &domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleAI,
		Content:   aiContent,
		ChatID:    chatID,
		CreatedAt: now.Add(pairGap),
	}
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Create(ai).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return user, ai, nil
}

// ListMessages returns the messages of chatID in conversation order
// (created_at ASC, id ASC), provided userID owns the chat. A chat that is
// unknown or foreign yields an empty slice.
func ListMessages(ctx context.Context, db *gorm.DB, chatID, userID string) ([]domain.Message, error) {
	out := []domain.Message{}
	err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Select("messages.*").
		Joins("JOIN chats ON chats.id = messages.chat_id").
		Where("messages.chat_id = ? AND chats.user_id = ?", chatID, userID).
		Order("messages.created_at ASC, messages.id ASC").
		Find(&out).Error
	return out, err
}
