package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/bibion-backend/internal/domain"
)

// newRepoDB opens a file-backed SQLite DB under t.TempDir(). Pass models to
// migrate; with none the schema is left empty so error paths can be hit.
func newRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("repo_test_%d.db", time.Now().UnixNano())) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Release the file handle before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func allModels() []any {
	return []any{&domain.User{}, &domain.Chat{}, &domain.Message{}, &domain.Idempotency{}}
}

func mustUser(t *testing.T, db *gorm.DB, email string) *domain.User {
	t.Helper()
	u, err := UpsertUser(context.Background(), db, email, "Name", "")
	if err != nil {
		t.Fatalf("UpsertUser(%q): %v", email, err)
	}
	return u
}

func mustChat(t *testing.T, db *gorm.DB, userID, title string) *domain.Chat {
	t.Helper()
	c, err := CreateChat(context.Background(), db, userID, title)
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	return c
}
