// Package app wires repositories, usecases and handlers for the binaries.
package app

import (
	"context"
	"errors"
	"time"

	httpadp "credlio-backend/internal/adapter/http"
	"credlio-backend/internal/adapter/repository/mysql"
	"credlio-backend/internal/domain/gateway"
	"credlio-backend/internal/infrastructure/cache"
	"credlio-backend/internal/usecase/borrower"
	deductionuc "credlio-backend/internal/usecase/deduction"
	"credlio-backend/internal/usecase/loan"
	"credlio-backend/internal/usecase/mandate"
	"credlio-backend/internal/usecase/notification"
	"credlio-backend/internal/usecase/repayment"
	"credlio-backend/internal/usecase/score"
	"credlio-backend/internal/usecase/webhook"
	"credlio-backend/pkg/logger"
	"credlio-backend/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const webhookGuardScope = "gateway"

type Deps struct {
	DB *gorm.DB
	// Redis is optional; without it webhook redeliveries are deduped by the ledger alone.
	Redis      redis.Cmdable
	Charger    gateway.Charger
	Registerer prometheus.Registerer
	Log        *logger.Logger
}

type Options struct {
	WebhookSecret    string
	WebhookDedupeTTL time.Duration
	Deduction        deductionuc.Options
}

type Services struct {
	Borrowers     *borrower.Usecase
	Scores        *score.Usecase
	Loans         *loan.Usecase
	Repayments    *repayment.Usecase
	Mandates      *mandate.Usecase
	Notifications *notification.Usecase
	Deductions    *deductionuc.Driver
	Webhooks      *webhook.Usecase

	db  *gorm.DB
	rdb redis.Cmdable
	log *logger.Logger
}

func New(d Deps, opts Options) (*Services, error) {
	if d.DB == nil {
		return nil, errors.New("app: database is required")
	}
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}

	var (
		borrowers    = mysql.NewBorrowerRepository(d.DB)
		loans        = mysql.NewLoanRepository(d.DB)
		schedules    = mysql.NewScheduleRepository(d.DB)
		repayments   = mysql.NewRepaymentRepository(d.DB)
		scores       = mysql.NewScoreRepository(d.DB)
		mandates     = mysql.NewMandateRepository(d.DB)
		methods      = mysql.NewPaymentMethodRepository(d.DB)
		deductions   = mysql.NewDeductionRepository(d.DB)
		transactions = mysql.NewTransactionRepository(d.DB)
		events       = mysql.NewWebhookRepository(d.DB)
		notes        = mysql.NewNotificationRepository(d.DB)
		uow          = mysql.NewGormUoW(d.DB)
	)

	deductionMetrics := metrics.NewDeductionMetrics(d.Registerer)

	s := &Services{db: d.DB, rdb: d.Redis, log: log}
	s.Notifications = notification.NewUsecase(notes)
	s.Scores = score.NewUsecase(scores, borrowers, loans, schedules, repayments, log)
	s.Borrowers = borrower.NewUsecase(borrowers, s.Scores, s.Notifications, log)
	s.Loans = loan.NewUsecase(loans, schedules, uow, s.Notifications, log)
	s.Repayments = repayment.NewUsecase(uow, s.Scores, s.Notifications, log)
	s.Mandates = mandate.NewUsecase(mandates, methods, deductions, uow, log)
	s.Deductions = deductionuc.NewDriver(
		deductions, mandates, methods, uow, d.Charger, s.Notifications, deductionMetrics, log, opts.Deduction,
	)

	wd := webhook.Deps{
		Events:       events,
		Deductions:   deductions,
		Transactions: transactions,
		Mandates:     mandates,
		Loans:        loans,
		Schedules:    schedules,
		UoW:          uow,
		Failures:     s.Deductions,
		Scores:       s.Scores,
		Notifier:     s.Notifications,
		Metrics:      deductionMetrics,
		Log:          log,
	}
	if d.Redis != nil {
		guard, err := cache.NewEventGuard(d.Redis, opts.WebhookDedupeTTL, webhookGuardScope)
		if err != nil {
			return nil, err
		}
		wd.Guard = guard
	}
	s.Webhooks = webhook.NewUsecase(opts.WebhookSecret, wd)
	return s, nil
}

// Handlers builds the HTTP handlers over these services.
func (s *Services) Handlers() httpadp.Handlers {
	return httpadp.Handlers{
		Health:        httpadp.NewHandler(s.healthChecks()...),
		Borrowers:     httpadp.NewBorrowerHandler(s.Borrowers, s.Scores, s.log),
		Loans:         httpadp.NewLoanHandler(s.Loans, s.Repayments, s.log),
		Mandates:      httpadp.NewMandateHandler(s.Mandates, s.log),
		Notifications: httpadp.NewNotificationHandler(s.Notifications, s.log),
		Webhooks:      httpadp.NewWebhookHandler(s.Webhooks, s.log),
	}
}

func (s *Services) healthChecks() []httpadp.HealthCheck {
	checks := []httpadp.HealthCheck{{
		Name: "db",
		Ping: func(ctx context.Context) error {
			sqlDB, err := s.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}}
	if s.rdb != nil {
		checks = append(checks, httpadp.HealthCheck{
			Name: "redis",
			Ping: func(ctx context.Context) error { return s.rdb.Ping(ctx).Err() },
		})
	}
	return checks
}
