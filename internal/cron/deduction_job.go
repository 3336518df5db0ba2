package cron

import (
	"context"
	"fmt"
	"time"

	deductionuc "credlio-backend/internal/usecase/deduction"
	"credlio-backend/pkg/logger"
)

// DeductionRunner is the part of the deduction driver the jobs need.
type DeductionRunner interface {
	Run(ctx context.Context, now time.Time) (deductionuc.RunSummary, error)
	ReconcileStuck(ctx context.Context, now time.Time) (deductionuc.RunSummary, error)
}

// DeductionJob charges every due scheduled deduction.
type DeductionJob struct {
	runner DeductionRunner
	log    *logger.Logger
	now    func() time.Time
}

func NewDeductionJob(runner DeductionRunner, log *logger.Logger) *DeductionJob {
	if log == nil {
		log = logger.Nop()
	}
	return &DeductionJob{runner: runner, log: log, now: func() time.Time { return time.Now().UTC() }}
}

func (j *DeductionJob) Name() string { return "scheduled_deductions" }

func (j *DeductionJob) Run(ctx context.Context) error {
	sum, err := j.runner.Run(ctx, j.now())
	logSummary(ctx, j.log, sum)
	return err
}

// StuckSweepJob fails deductions left processing past the stuck window.
type StuckSweepJob struct {
	runner DeductionRunner
	log    *logger.Logger
	now    func() time.Time
}

func NewStuckSweepJob(runner DeductionRunner, log *logger.Logger) *StuckSweepJob {
	if log == nil {
		log = logger.Nop()
	}
	return &StuckSweepJob{runner: runner, log: log, now: func() time.Time { return time.Now().UTC() }}
}

func (j *StuckSweepJob) Name() string { return "stuck_deduction_sweep" }

func (j *StuckSweepJob) Run(ctx context.Context) error {
	sum, err := j.runner.ReconcileStuck(ctx, j.now())
	logSummary(ctx, j.log, sum)
	return err
}

func logSummary(ctx context.Context, log *logger.Logger, s deductionuc.RunSummary) {
	ctx = log.WithFields(ctx, map[string]any{
		"selected":  s.Selected,
		"completed": s.Completed,
		"retried":   s.Retried,
		"failed":    s.Failed,
		"cancelled": s.Cancelled,
		"skipped":   s.Skipped,
	})
	log.Info(ctx, fmt.Sprintf("deduction pass handled %d rows", s.Selected))
}
