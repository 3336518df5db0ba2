package db

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
)

func TestOpenGormWithDialector_Success(t *testing.T) {
	sqlDB, mock, err := sqlmock.New() // pings unmonitored; gorm pings on open as well
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer sqlDB.Close()

	dial := mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true, // don't query @@version
	})

	gdb, err := OpenGormWithDialector(dial)
	if err != nil {
		t.Fatalf("OpenGormWithDialector error: %v", err)
	}
	if gdb == nil {
		t.Fatalf("got nil gorm.DB")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestOpenGormWithDialector_PingFails(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer sqlDB.Close()

	mock.ExpectPing().WillReturnError(errors.New("no ping"))

	dial := mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	})

	gdb, err := OpenGormWithDialector(dial)
	if err == nil {
		t.Fatalf("expected error, got nil (gdb=%v)", gdb)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDialector(t *testing.T) {
	tests := []struct {
		driver  string
		dsn     string
		wantErr bool
		name    string
	}{
		{driver: "mysql", dsn: "u:p@tcp(localhost:3306)/credlio", name: "mysql"},
		{driver: "postgres", dsn: "postgres://u:p@localhost:5432/credlio", name: "postgres"},
		{driver: "sqlite", dsn: "file::memory:", name: "sqlite"},
		{driver: "oracle", dsn: "x", wantErr: true},
		{driver: "mysql", dsn: "", wantErr: true},
	}
	for _, tt := range tests {
		d, err := Dialector(tt.driver, tt.dsn)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("%s/%q: expected error", tt.driver, tt.dsn)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tt.driver, err)
		}
		if d.Name() != tt.name {
			t.Fatalf("dialector name = %q, want %q", d.Name(), tt.name)
		}
	}
}

func TestOpenGorm_SQLiteMemory(t *testing.T) {
	gdb, err := OpenGorm("sqlite", "file::memory:", DefaultPool)
	if err != nil {
		t.Fatalf("OpenGorm: %v", err)
	}
	sqlDB, _ := gdb.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })

	if got := sqlDB.Stats().MaxOpenConnections; got != DefaultPool.MaxOpenConns {
		t.Fatalf("max open conns = %d, want %d", got, DefaultPool.MaxOpenConns)
	}
}
