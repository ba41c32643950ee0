package database

import (
	"fmt"
	"path/filepath"
	"testing"

	"coworking/internal/logging"

	"gorm.io/gorm"
)

// OpenTest returns a migrated SQLite database in a per-test temp file.
func OpenTest(t testing.TB) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coworking.db")
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_txlock=immediate&_time_format=sqlite", path)

	db, err := Connect(dsn, logging.Nop())
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
