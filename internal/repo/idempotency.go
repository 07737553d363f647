// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the Idempotency
// model used to replay retried turns.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tbourn/bibion-backend/internal/domain"
)

// ErrDuplicate indicates that an idempotency record already exists for the
// given (user_id, chat_id, key) tuple.
var ErrDuplicate = errors.New("duplicate")

// GetIdempotency returns a non-expired record or ErrNotFound. An empty
// chatID addresses turns that started a new chat.
func GetIdempotency(ctx context.Context, db *gorm.DB, userID, chatID, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where("user_id = ? AND chat_id = ? AND key = ? AND expires_at > ?", userID, chatID, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// IdempotencyInput is the payload persisted for a turn. A zero Status with
// no Response reserves the key while the turn runs.
type IdempotencyInput struct {
	UserID    string
	ChatID    string
	Key       string
	MessageID string
	Status    int
	Response  []byte
	TTL       time.Duration
}

// CreateIdempotency inserts a record and returns ErrDuplicate when a live
// record holds the same tuple. An expired record for the tuple is removed
// first so the key can be recorded again.
func CreateIdempotency(ctx context.Context, db *gorm.DB, in IdempotencyInput) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	body := in.Response
	if len(body) == 0 {
		body = []byte(`{}`)
	}
	rec := &domain.Idempotency{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		ChatID:    in.ChatID,
		Key:       in.Key,
		MessageID: in.MessageID,
		Status:    in.Status,
		Response:  datatypes.JSON(body),
		CreatedAt: now,
		ExpiresAt: now.Add(in.TTL),
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("user_id = ? AND chat_id = ? AND key = ? AND expires_at <= ?", in.UserID, in.ChatID, in.Key, now).
			Delete(&domain.Idempotency{}).Error; err != nil {
			return err
		}
		return tx.Create(rec).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// CompleteIdempotency fills a reserved record with the turn's outcome.
func CompleteIdempotency(ctx context.Context, db *gorm.DB, in IdempotencyInput) error {
	res := db.WithContext(ctx).
		Model(&domain.Idempotency{}).
		Where("user_id = ? AND chat_id = ? AND key = ?", in.UserID, in.ChatID, in.Key).
		Updates(map[string]any{
			"message_id": in.MessageID,
			"status":     in.Status,
			"response":   datatypes.JSON(in.Response),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteIdempotency drops the record for the tuple, if any.
func DeleteIdempotency(ctx context.Context, db *gorm.DB, userID, chatID, key string) error {
	return db.WithContext(ctx).
		Where("user_id = ? AND chat_id = ? AND key = ?", userID, chatID, key).
		Delete(&domain.Idempotency{}).Error
}

// isUniqueViolation covers gorm's translated error plus the plain-text
// messages glebarez/sqlite and pgx return when TranslateError is off.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key value")
}
