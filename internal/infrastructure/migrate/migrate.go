// Package migrate owns the database schema: goose SQL migrations for MySQL
// and gorm auto-migration for the other drivers.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"

	"credlio-backend/internal/domain/borrower"
	"credlio-backend/internal/domain/deduction"
	"credlio-backend/internal/domain/loan"
	"credlio-backend/internal/domain/mandate"
	"credlio-backend/internal/domain/notification"
	"credlio-backend/internal/domain/paymentmethod"
	"credlio-backend/internal/domain/repayment"
	"credlio-backend/internal/domain/schedule"
	"credlio-backend/internal/domain/score"
	"credlio-backend/internal/domain/webhook"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

const Dir = "migrations"

//go:embed migrations/*.sql
var embedded embed.FS

var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// Models lists every table the service persists.
func Models() []any {
	return []any{
		&loan.Loan{},
		&schedule.Entry{},
		&repayment.Event{},
		&score.BorrowerScore{},
		&borrower.Borrower{},
		&paymentmethod.PaymentMethod{},
		&mandate.Mandate{},
		&deduction.ScheduledDeduction{},
		&deduction.Transaction{},
		&webhook.Delivery{},
		&notification.Notification{},
	}
}

// Run executes a goose command against the embedded MySQL migrations.
func Run(ctx context.Context, db *sql.DB, command string, args ...string) error {
	if db == nil {
		return errors.New("db is required")
	}
	goose.SetBaseFS(embedded)
	if err := goose.SetDialect("mysql"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.RunContext(ctx, command, db, Dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// Up brings the schema current for driver.
func Up(ctx context.Context, gdb *gorm.DB, driver string) error {
	if driver != "mysql" {
		if err := gdb.WithContext(ctx).AutoMigrate(Models()...); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	return Run(ctx, sqlDB, "up")
}

// Validate checks embedded file names, unique versions and goose headers.
func Validate() error {
	return validateFS(embedded, Dir)
}

func validateFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}
	seen := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		if prev, ok := seen[m[1]]; ok {
			return fmt.Errorf("duplicate migration version %s in %q and %q", m[1], prev, name)
		}
		seen[m[1]] = name

		b, err := fs.ReadFile(fsys, dir+"/"+name)
		if err != nil {
			return fmt.Errorf("read %q: %w", name, err)
		}
		txt := string(b)
		if !strings.Contains(txt, "-- +goose Up") {
			return fmt.Errorf("migration %q missing \"-- +goose Up\"", name)
		}
		if !strings.Contains(txt, "-- +goose Down") {
			return fmt.Errorf("migration %q missing \"-- +goose Down\"", name)
		}
	}
	if len(seen) == 0 {
		return fmt.Errorf("no migrations in %q", dir)
	}
	return nil
}
