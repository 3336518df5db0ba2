package mysql

import (
	"testing"

	"credlio-backend/internal/testutil/sqlitedb"

	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return sqlitedb.Open(t)
}
