package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/bibion-backend/internal/domain"
)

// UpsertUser returns the user keyed by email, inserting it on first sight.
// An existing row is never modified.
func UpsertUser(ctx context.Context, db *gorm.DB, email, name, image string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u := &domain.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		Image:     image,
		CreatedAt: time.Now().UTC(),
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(u).Error
	if err != nil {
		return nil, err
	}

	var out domain.User
	if err := db.WithContext(ctx).Where("email = ?", email).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}
