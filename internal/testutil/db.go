// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"unigram/internal/config"
	"unigram/internal/database"
	"unigram/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

// NewTestDB opens a migrated, private in-memory SQLite database. A single
// pooled connection serializes concurrent callers the way row locks would.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_busy_timeout=5000", name, dbSeq.Add(1))

	db, err := database.Open(sqlite.Open(dsn), &config.Config{
		DBMaxOpenConns:           1,
		DBMaxIdleConns:           1,
		DBConnMaxLifetimeMinutes: 60,
	}, true)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts a user with the given name and a derived email.
func CreateUser(t testing.TB, db *gorm.DB, name string) *models.User {
	t.Helper()
	u := &models.User{
		Name:  name,
		Email: fmt.Sprintf("%s.%d@unigram.test", strings.ToLower(strings.ReplaceAll(name, " ", ".")), dbSeq.Add(1)),
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// CreatePost inserts a post owned by owner, created at the given time.
func CreatePost(t testing.TB, db *gorm.DB, owner *models.User, caption string, createdAt time.Time) *models.Post {
	t.Helper()
	p := &models.Post{
		UserID:    owner.ID,
		Username:  owner.Name,
		ImageURL:  "https://img.unigram.test/" + caption + ".png",
		Caption:   caption,
		CreatedAt: createdAt,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}
