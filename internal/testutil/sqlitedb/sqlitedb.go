package sqlitedb

import (
	"testing"

	"credlio-backend/internal/infrastructure/db"
	"credlio-backend/internal/infrastructure/migrate"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open creates an in-memory sqlite DB on a single connection so every
// query, in or out of a transaction, sees the same schema.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.OpenGormWithDialector(sqlite.Open(":memory:"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := gdb.AutoMigrate(migrate.Models()...); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return gdb
}
