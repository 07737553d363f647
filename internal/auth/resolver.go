package auth

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/tbourn/bibion-backend/internal/domain"
	"github.com/tbourn/bibion-backend/internal/repo"
)

// UpsertFunc stores or loads a user keyed by email.
type UpsertFunc func(ctx context.Context, db *gorm.DB, email, name, image string) (*domain.User, error)

// Resolver maps a session profile to a stored user, creating the row on
// first sight. Resolved users are cached per email.
type Resolver struct {
	DB     *gorm.DB
	Upsert UpsertFunc

	cache *cache.Cache
}

// NewResolver returns a Resolver caching users for ttl.
func NewResolver(db *gorm.DB, ttl time.Duration) *Resolver {
	return &Resolver{
		DB:     db,
		Upsert: repo.UpsertUser,
		cache:  cache.New(ttl, 2*ttl),
	}
}

// Resolve returns the user for p.
func (r *Resolver) Resolve(ctx context.Context, p Profile) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(p.Email))
	if x, ok := r.cache.Get(email); ok {
		return x.(*domain.User), nil
	}
	u, err := r.Upsert(ctx, r.DB, email, p.Name, p.Picture)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault(email, u)
	return u, nil
}

// Forget drops a cached user.
func (r *Resolver) Forget(email string) {
	r.cache.Delete(strings.ToLower(strings.TrimSpace(email)))
}
