// Package testutil builds throwaway databases and attachment stores.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/yoockh/nnsurvey/config"
	"github.com/yoockh/nnsurvey/internal/logger"
	"github.com/yoockh/nnsurvey/internal/storage"
)

// NewDB returns a migrated SQLite database with foreign keys enforced.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "nnsurvey.db") + "?_foreign_keys=on"
	db, err := config.InitDatabase(context.Background(), config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          dsn,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, logger.Discard())
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	t.Cleanup(func() { _ = config.CloseDatabase(db) })
	return db
}

func NewStore(t testing.TB) *storage.LocalStore {
	t.Helper()
	s, err := storage.NewLocalStore(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	return s
}
