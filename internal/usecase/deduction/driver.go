package deduction

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "credlio-backend/internal/domain/deduction"
	"credlio-backend/internal/domain/gateway"
	"credlio-backend/internal/domain/mandate"
	"credlio-backend/internal/domain/notification"
	"credlio-backend/internal/domain/paymentmethod"
	"credlio-backend/internal/domain/uow"
	"credlio-backend/pkg/id"
	"credlio-backend/pkg/logger"
	"credlio-backend/pkg/metrics"

	"go.uber.org/multierr"
	"golang.org/x/time/rate"
)

const (
	outcomeCompleted = metrics.OutcomeCompleted
	outcomeRetry     = metrics.OutcomeRetry
	outcomeFailed    = metrics.OutcomeFailed
	outcomeCancelled = metrics.OutcomeCancelled
	outcomeSkipped   = metrics.OutcomeSkipped
)

// Driver runs the scheduled deduction lifecycle: selection, charging, the
// retry rules, and the stuck-processing sweep.
type Driver struct {
	deductions domain.Repository
	mandates   mandate.Repository
	methods    paymentmethod.Repository
	uow        uow.UnitOfWork
	charger    gateway.Charger
	notifier   notification.Notifier
	metrics    *metrics.DeductionMetrics
	log        *logger.Logger
	limiter    *rate.Limiter
	opts       Options
}

func NewDriver(
	deductions domain.Repository,
	mandates mandate.Repository,
	methods paymentmethod.Repository,
	tx uow.UnitOfWork,
	charger gateway.Charger,
	notifier notification.Notifier,
	m *metrics.DeductionMetrics,
	log *logger.Logger,
	opts Options,
) *Driver {
	if log == nil {
		log = logger.Nop()
	}
	opts = opts.withDefaults()
	limit := rate.Inf
	if opts.ChargeDelay > 0 {
		limit = rate.Every(opts.ChargeDelay)
	}
	return &Driver{
		deductions: deductions,
		mandates:   mandates,
		methods:    methods,
		uow:        tx,
		charger:    charger,
		notifier:   notifier,
		metrics:    m,
		log:        log,
		limiter:    rate.NewLimiter(limit, 1),
		opts:       opts,
	}
}

// Run processes every deduction due at now. Per-row errors are collected and
// returned together; one bad row never stops the pass.
func (d *Driver) Run(ctx context.Context, now time.Time) (RunSummary, error) {
	if d.charger == nil {
		return RunSummary{}, gateway.ErrNotConfigured
	}
	now = now.UTC()
	y, m, day := now.Date()
	today := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)

	due, err := d.deductions.ListDue(ctx, today, now, d.opts.BatchSize)
	if err != nil {
		return RunSummary{}, fmt.Errorf("list due deductions: %w", err)
	}

	summary := RunSummary{Selected: len(due)}
	var errs error
	for i := range due {
		if ctx.Err() != nil {
			errs = multierr.Append(errs, ctx.Err())
			break
		}
		row := due[i]
		outcome, err := d.process(ctx, &row, now)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("deduction %s: %w", row.DeductionID, err))
		}
		summary.add(outcome)
		d.metrics.Inc(outcome)
	}
	return summary, errs
}

func (d *Driver) process(ctx context.Context, row *domain.ScheduledDeduction, now time.Time) (string, error) {
	ctx = d.log.WithFields(ctx, map[string]any{
		"deduction_id": row.DeductionID,
		"mandate_id":   row.MandateID,
		"loan_id":      row.LoanID,
	})

	m, err := d.mandates.GetByMandateID(ctx, row.MandateID)
	if err != nil && !errors.Is(err, mandate.ErrNotFound) {
		return outcomeSkipped, err
	}
	if !guardSelection(m) {
		err := d.deductions.Transition(ctx, row.DeductionID, domain.StatusScheduled, domain.Update{
			To:             domain.StatusCancelled,
			FailureReason:  "mandate inactive",
			ClearNextRetry: true,
		})
		if errors.Is(err, domain.ErrStaleState) {
			return outcomeSkipped, nil
		}
		if err != nil {
			return outcomeSkipped, err
		}
		d.log.Info(ctx, "deduction cancelled: mandate inactive")
		return outcomeCancelled, nil
	}

	pm, err := d.methods.GetByPaymentMethodID(ctx, row.PaymentMethodID)
	if err != nil && !errors.Is(err, paymentmethod.ErrNotFound) {
		return outcomeSkipped, err
	}
	if !pm.Usable() {
		d.log.Warn(ctx, "deduction skipped: payment method missing or unusable")
		return outcomeSkipped, nil
	}

	started := now
	key := row.NextChargeKey()
	err = d.deductions.Transition(ctx, row.DeductionID, domain.StatusScheduled, domain.Update{
		To:                  domain.StatusProcessing,
		IncrementAttempt:    true,
		ProcessingStartedAt: &started,
		ClearNextRetry:      true,
		ChargeKey:           key,
	})
	if errors.Is(err, domain.ErrStaleState) {
		// another run took it
		return outcomeSkipped, nil
	}
	if err != nil {
		return outcomeSkipped, err
	}
	row.Status = domain.StatusProcessing
	row.AttemptCount++
	row.ProcessingStartedAt = &started
	row.ChargeKey = key

	if err := d.limiter.Wait(ctx); err != nil {
		// leave it processing; the sweep picks it up
		return outcomeSkipped, err
	}

	res, chargeErr := d.charger.Charge(ctx, gateway.ChargeRequest{
		AmountMinor:      row.AmountMinor,
		Currency:         row.Currency,
		CardToken:        pm.CardToken,
		CustomerRef:      pm.CustomerRef,
		MandateReference: m.MandateID,
		IdempotencyKey:   key,
		ReferenceID:      row.LoanID,
	})
	if chargeErr == nil && res.Success {
		completed := now
		err := d.deductions.Transition(ctx, row.DeductionID, domain.StatusProcessing, domain.Update{
			To:                   domain.StatusCompleted,
			GatewayTransactionID: res.TransactionID,
			CompletedAt:          &completed,
		})
		if errors.Is(err, domain.ErrStaleState) {
			// the webhook settled it first
			return outcomeCompleted, nil
		}
		if err != nil {
			return outcomeSkipped, err
		}
		d.metrics.AddCharged(row.Currency, row.AmountMinor)
		d.log.Info(ctx, "deduction charged")
		return outcomeCompleted, nil
	}

	f := Failure{Reason: res.FailureReason, GatewayTransactionID: res.TransactionID, Ledger: true}
	if chargeErr != nil {
		// the gateway may still have captured; the retry must reuse the key
		f.Reason = chargeErr.Error()
		f.OutcomeUnknown = true
	}
	if f.Reason == "" {
		f.Reason = "charge declined"
	}
	return d.Fail(ctx, row, f, now)
}

// Fail applies the retry rules to a processing deduction: another attempt in
// RetryAfter while attempts remain, terminal failure otherwise. A terminal
// failure notifies the borrower and lender. Only a known decline releases the
// charge key; otherwise the next attempt repeats it.
func (d *Driver) Fail(ctx context.Context, row *domain.ScheduledDeduction, f Failure, now time.Time) (string, error) {
	u := domain.Update{FailureReason: truncate(f.Reason, 512), ClearChargeKey: !f.OutcomeUnknown}
	outcome := outcomeRetry
	if row.Retryable() {
		next := now.Add(d.opts.RetryAfter)
		u.To = domain.StatusScheduled
		u.NextRetryAt = &next
	} else {
		u.To = domain.StatusFailed
		u.ClearNextRetry = true
		outcome = outcomeFailed
	}

	err := d.uow.WithinTx(ctx, func(r uow.Repos) error {
		if f.Ledger {
			if err := r.Transactions.Create(ctx, &domain.Transaction{
				TransactionID:        id.NewID32(),
				DeductionID:          row.DeductionID,
				MandateID:            row.MandateID,
				LoanID:               row.LoanID,
				GatewayTransactionID: f.GatewayTransactionID,
				GrossAmount:          row.AmountMinor,
				Currency:             row.Currency,
				Status:               domain.TxFailed,
				FailureReason:        u.FailureReason,
			}); err != nil {
				return fmt.Errorf("record failed transaction: %w", err)
			}
		}
		return r.Deductions.Transition(ctx, row.DeductionID, domain.StatusProcessing, u)
	})
	if errors.Is(err, domain.ErrStaleState) {
		return outcomeSkipped, nil
	}
	if err != nil {
		return outcomeSkipped, err
	}

	row.Status = u.To
	row.FailureReason = u.FailureReason
	row.NextRetryAt = u.NextRetryAt
	if u.ClearChargeKey {
		row.ChargeKey = ""
	}
	if outcome == outcomeFailed {
		d.log.Warn(ctx, "deduction failed permanently: "+u.FailureReason)
		d.notifyTerminal(ctx, row)
	} else {
		d.log.Info(ctx, "deduction attempt failed, retry scheduled: "+u.FailureReason)
	}
	return outcome, nil
}

// ReconcileStuck fails rows left processing longer than StuckAfter. Their
// outcome is unknown, so the next attempt repeats the same charge key and the
// gateway answers with the original payment if one was captured.
func (d *Driver) ReconcileStuck(ctx context.Context, now time.Time) (RunSummary, error) {
	now = now.UTC()
	rows, err := d.deductions.ListStuckProcessing(ctx, now.Add(-d.opts.StuckAfter), d.opts.BatchSize)
	if err != nil {
		return RunSummary{}, fmt.Errorf("list stuck deductions: %w", err)
	}

	summary := RunSummary{Selected: len(rows)}
	var errs error
	for i := range rows {
		row := rows[i]
		ctx := d.log.WithFields(ctx, map[string]any{"deduction_id": row.DeductionID, "loan_id": row.LoanID})
		outcome, err := d.Fail(ctx, &row, Failure{Reason: reasonTimedOut, OutcomeUnknown: true}, now)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("deduction %s: %w", row.DeductionID, err))
		}
		summary.add(outcome)
		d.metrics.Inc(outcome)
	}
	return summary, errs
}

func (d *Driver) notifyTerminal(ctx context.Context, row *domain.ScheduledDeduction) {
	if d.notifier == nil {
		return
	}
	m, err := d.mandates.GetByMandateID(ctx, row.MandateID)
	if err != nil {
		d.log.Error(ctx, "load mandate for failure notification", err)
		return
	}
	body := fmt.Sprintf("The scheduled deduction of %d %s for loan %s failed after %d attempts: %s",
		row.AmountMinor, row.Currency, row.LoanID, row.AttemptCount, row.FailureReason)
	for _, uid := range []string{m.BorrowerID, m.LenderID} {
		if uid == "" {
			continue
		}
		if err := d.notifier.Notify(ctx, uid, notification.KindDeductionFailed, "Deduction failed", body); err != nil {
			d.log.Warn(ctx, "deduction failure notification: "+err.Error())
		}
	}
}

// guardSelection is the selection checkpoint: only active mandates are charged.
func guardSelection(m *mandate.Mandate) bool { return m.IsActive() }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
