package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"credlio-backend/internal/app"
	"credlio-backend/internal/config"
	"credlio-backend/internal/cron"
	"credlio-backend/internal/infrastructure/cache"
	"credlio-backend/internal/infrastructure/db"
	"credlio-backend/internal/infrastructure/migrate"
	deductionuc "credlio-backend/internal/usecase/deduction"
	"credlio-backend/pkg/logger"
	"credlio-backend/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

const lockKeyFormat = "credlio:deductiond:lock:%s"

func main() {
	once := flag.Bool("once", false, "run a single pass and exit (for an external scheduler)")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "deductiond"})

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logg.Error(context.Background(), "invalid config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "deductiond",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Console:     cfg.App.IsDev(),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env, "once": *once})

	gdb, err := db.OpenGorm(cfg.DB.Driver, cfg.DatabaseDSN(), db.PoolOptions{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.DB.ConnMaxIdleTime,
	})
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	if cfg.App.IsDev() {
		if err := migrate.Up(ctx, gdb, cfg.DB.Driver); err != nil {
			logg.Error(ctx, "failed to run dev migrations", err)
			os.Exit(1)
		}
	}

	rdb, err := cache.OpenRedis(cfg.Redis.Addr, cfg.Redis.DB)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	charger := app.NewCharger(cfg.Gateway, logg)
	if charger == nil {
		logg.Error(ctx, "payment gateway is not configured", errors.New("LENDING_GATEWAY_ACCESS_TOKEN is empty"))
		os.Exit(1)
	}

	svc, err := app.New(app.Deps{
		DB:         gdb,
		Redis:      rdb,
		Charger:    charger,
		Registerer: prometheus.DefaultRegisterer,
		Log:        logg,
	}, app.Options{
		WebhookSecret:    cfg.Gateway.WebhookSecret,
		WebhookDedupeTTL: cfg.Gateway.WebhookDedupeTTL,
		Deduction: deductionuc.Options{
			RetryAfter:  cfg.Deduction.RetryAfter,
			StuckAfter:  cfg.Deduction.StuckAfter,
			ChargeDelay: cfg.Deduction.ChargeDelay,
		},
	})
	if err != nil {
		logg.Error(ctx, "failed to wire services", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(rdb, lockKey(cfg.App.Env), cfg.Deduction.LockTTL)
	if err != nil {
		logg.Error(ctx, "failed to create cron lock", err)
		os.Exit(1)
	}

	// the sweep runs first; a timed-out row waits RetryAfter and a later pass
	// retries it under the same charge key
	registry := cron.NewRegistry(
		cron.NewStuckSweepJob(svc.Deductions, logg),
		cron.NewDeductionJob(svc.Deductions, logg),
	)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Deduction.Interval,
	})
	if err != nil {
		logg.Error(ctx, "failed to create cron service", err)
		os.Exit(1)
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *once {
		if err := service.RunOnce(runCtx); err != nil {
			logg.Error(ctx, "deduction pass failed", err)
			os.Exit(1)
		}
		return
	}

	logg.Info(ctx, "starting deduction worker")
	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "deduction worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "deduction worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
