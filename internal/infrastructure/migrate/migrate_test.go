package migrate

import (
	"context"
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	"credlio-backend/internal/infrastructure/db"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm/schema"
)

func TestValidate_Embedded(t *testing.T) {
	if err := Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateFS(t *testing.T) {
	good := "-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n"
	tests := []struct {
		name    string
		files   fstest.MapFS
		wantErr bool
	}{
		{"ok", fstest.MapFS{"m/20240101000000_init.sql": {Data: []byte(good)}}, false},
		{"bad name", fstest.MapFS{"m/init.sql": {Data: []byte(good)}}, true},
		{"missing down", fstest.MapFS{"m/20240101000000_init.sql": {Data: []byte("-- +goose Up\n")}}, true},
		{"duplicate version", fstest.MapFS{
			"m/20240101000000_a.sql": {Data: []byte(good)},
			"m/20240101000000_b.sql": {Data: []byte(good)},
		}, true},
		{"empty", fstest.MapFS{"m/README.md": {Data: []byte("x")}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFS(tt.files, "m")
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateFS() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// Every persisted model needs its table in the MySQL migrations.
func TestMigrationsCoverModels(t *testing.T) {
	files, err := fs.Glob(embedded, Dir+"/*.sql")
	if err != nil || len(files) == 0 {
		t.Fatalf("glob migrations: %v", err)
	}
	var all strings.Builder
	for _, f := range files {
		b, err := fs.ReadFile(embedded, f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		all.Write(b)
	}
	sql := all.String()
	for _, m := range Models() {
		tabler, ok := m.(schema.Tabler)
		if !ok {
			t.Fatalf("%T does not name its table", m)
		}
		name := tabler.TableName()
		if !strings.Contains(sql, "CREATE TABLE IF NOT EXISTS "+name+" (") {
			t.Errorf("missing CREATE TABLE for %s", name)
		}
		if !strings.Contains(sql, "DROP TABLE IF EXISTS "+name+";") {
			t.Errorf("missing DROP TABLE for %s", name)
		}
	}
}

func TestUp_AutoMigratesNonMySQL(t *testing.T) {
	gdb, err := db.OpenGormWithDialector(sqlite.Open(":memory:"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := gdb.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := Up(context.Background(), gdb, "sqlite"); err != nil {
		t.Fatalf("Up: %v", err)
	}
	for _, m := range Models() {
		if !gdb.Migrator().HasTable(m) {
			t.Errorf("table for %T not created", m)
		}
	}
}
