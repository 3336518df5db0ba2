package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadp "credlio-backend/internal/adapter/http"
	"credlio-backend/internal/adapter/middleware"
	"credlio-backend/internal/app"
	"credlio-backend/internal/config"
	"credlio-backend/internal/infrastructure/cache"
	"credlio-backend/internal/infrastructure/db"
	"credlio-backend/internal/infrastructure/migrate"
	deductionuc "credlio-backend/internal/usecase/deduction"
	"credlio-backend/pkg/auth"
	"credlio-backend/pkg/logger"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

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
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Console:     cfg.App.IsDev(),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env, "db_driver": cfg.DB.Driver})

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

	verifier, err := auth.NewVerifier(cfg.JWT.Secret, cfg.JWT.Issuer)
	if err != nil {
		logg.Error(ctx, "failed to create token verifier", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc, err := app.New(app.Deps{
		DB:         gdb,
		Redis:      rdb,
		Charger:    app.NewCharger(cfg.Gateway, logg),
		Registerer: reg,
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
	if cfg.Gateway.WebhookSecret == "" {
		logg.Warn(ctx, "gateway webhook secret not set; every delivery will be rejected")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.RequestID(), middleware.RequestLogger(logg), echomw.Recover())
	httpadp.Register(e, svc.Handlers(), httpadp.RouteOptions{
		Verifier:       verifier,
		Redis:          rdb,
		IdempotencyTTL: time.Duration(cfg.App.IdempTTLSecs) * time.Second,
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Log:            logg,
	})

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.App.Port
	go func() {
		logg.Info(logg.WithField(ctx, "addr", addr), "starting api server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	}()

	<-sigCtx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "graceful shutdown failed", err)
	}
	logg.Info(ctx, "api server stopped")
}
