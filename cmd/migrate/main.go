package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"credlio-backend/internal/config"
	"credlio-backend/internal/infrastructure/db"
	"credlio-backend/internal/infrastructure/migrate"
	"credlio-backend/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|validate")
	version := flag.String("version", "", "target version for -cmd=version")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":       cfg.App.Env,
		"cmd":       *cmd,
		"db_driver": cfg.DB.Driver,
	})

	if *cmd == "validate" {
		if err := migrate.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "migration validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("migration validation passed")
		return
	}

	gdb, err := db.OpenGorm(cfg.DB.Driver, cfg.DatabaseDSN(), db.DefaultPool)
	requireResource(ctx, logg, "database", err)

	// sqlite and postgres are schema'd by AutoMigrate; goose only carries mysql files
	if cfg.DB.Driver != config.DriverMySQL {
		if *cmd != "up" {
			fmt.Fprintf(os.Stderr, "-cmd=%s is only supported for mysql\n", *cmd)
			os.Exit(1)
		}
		if err := migrate.Up(ctx, gdb, cfg.DB.Driver); err != nil {
			fmt.Fprintf(os.Stderr, "auto-migrate failed: %v\n", err)
			os.Exit(1)
		}
		logg.Info(ctx, "schema up to date")
		return
	}

	sqlDB, err := gdb.DB()
	requireResource(ctx, logg, "sql database", err)
	defer sqlDB.Close()

	logg.Info(ctx, "migrate ready")

	switch *cmd {
	case "up", "down", "status":
		if err := migrate.Run(ctx, sqlDB, *cmd); err != nil {
			fmt.Fprintf(os.Stderr, "goose %s failed: %v\n", *cmd, err)
			os.Exit(1)
		}
	case "version":
		if *version == "" {
			if err := migrate.Run(ctx, sqlDB, "version"); err != nil {
				fmt.Fprintf(os.Stderr, "goose version failed: %v\n", err)
				os.Exit(1)
			}
			return
		}
		if err := migrate.Run(ctx, sqlDB, "up-to", *version); err != nil {
			fmt.Fprintf(os.Stderr, "goose up-to %s failed: %v\n", *version, err)
			os.Exit(1)
		}
	default:
		fmt.Fprintln(os.Stderr, "unknown -cmd value:", *cmd)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
