package database

import (
	"fmt"
	"testing"

	"homebroker/config"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NewTestDB opens a private in-memory sqlite database with the schema
// migrated. It is closed when the test ends.
func NewTestDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	db, err := NewDB(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		// A single connection keeps every query on the same in-memory database.
		MaxOpenConns: 1,
	})
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}
	tb.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
