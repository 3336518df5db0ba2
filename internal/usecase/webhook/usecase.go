package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"credlio-backend/internal/domain/deduction"
	"credlio-backend/internal/domain/loan"
	"credlio-backend/internal/domain/mandate"
	"credlio-backend/internal/domain/notification"
	"credlio-backend/internal/domain/repayment"
	"credlio-backend/internal/domain/schedule"
	"credlio-backend/internal/domain/uow"
	domain "credlio-backend/internal/domain/webhook"
	deductionuc "credlio-backend/internal/usecase/deduction"
	repaymentuc "credlio-backend/internal/usecase/repayment"
	"credlio-backend/pkg/id"
	"credlio-backend/pkg/logger"
	"credlio-backend/pkg/metrics"

	"github.com/google/uuid"
)

type Deps struct {
	Events       domain.Repository
	Deductions   deduction.Repository
	Transactions deduction.TransactionRepository
	Mandates     mandate.Repository
	Loans        loan.Repository
	Schedules    schedule.Repository
	UoW          uow.UnitOfWork
	Guard        Guard
	Failures     FailureRecorder
	Scores       ScoreRefresher
	Notifier     notification.Notifier
	Metrics      *metrics.DeductionMetrics
	Log          *logger.Logger
}

// Usecase handles gateway deliveries. A payment.success delivery is the
// authoritative settlement of a deduction: it books the ledger row and the
// repayment, then chains the next deduction.
type Usecase struct {
	Deps
	secret []byte
	now    func() time.Time
}

func NewUsecase(secret string, d Deps) *Usecase {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	return &Usecase{
		Deps:   d,
		secret: []byte(secret),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Handle audits, verifies and applies one delivery. The audit row is written
// before anything else, whatever the signature says.
func (u *Usecase) Handle(ctx context.Context, in Delivery) (Result, error) {
	now := u.now()
	valid := u.validSignature(in.Body, in.Signature)

	var p domain.Payload
	parseErr := json.Unmarshal(in.Body, &p)

	audit := &domain.Delivery{
		Provider:       provider,
		EventID:        p.ID,
		EventType:      string(p.Type),
		Payload:        string(in.Body),
		SignatureValid: valid,
		SourceIP:       in.SourceIP,
		ReceivedAt:     now,
	}
	if audit.EventID == "" {
		audit.EventID = uuid.NewString()
	}
	if err := u.Events.Append(ctx, audit); err != nil {
		return Result{}, fmt.Errorf("record webhook delivery: %w", err)
	}
	if !valid {
		return Result{}, domain.ErrInvalidSignature
	}
	if parseErr != nil {
		return Result{}, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, parseErr)
	}

	ctx = u.Log.WithFields(ctx, map[string]any{
		"event_id":   audit.EventID,
		"event_type": string(p.Type),
	})
	res := Result{EventID: audit.EventID, Type: string(p.Type)}
	if !p.Type.IsKnown() {
		u.Log.Warn(ctx, "webhook ignored: unknown event type")
		res.Outcome = OutcomeIgnored
		return res, nil
	}

	key := guardKey(&p)
	if u.Guard != nil && key != "" {
		seen, err := u.Guard.CheckAndMark(ctx, key)
		switch {
		case err != nil:
			// the ledger checks below still dedupe
			u.Log.Warn(ctx, "webhook guard unavailable: "+err.Error())
			key = ""
		case seen:
			u.Log.Info(ctx, "webhook duplicate delivery")
			res.Outcome = OutcomeDuplicate
			return res, nil
		}
	}

	out, err := u.dispatch(ctx, &p, now)
	if err != nil {
		if u.Guard != nil && key != "" {
			if derr := u.Guard.Delete(ctx, key); derr != nil {
				u.Log.Error(ctx, "release webhook guard", derr)
			}
		}
		return res, err
	}
	res.Outcome = out.Outcome
	res.Chained = out.Chained
	return res, nil
}

func (u *Usecase) dispatch(ctx context.Context, p *domain.Payload, now time.Time) (Result, error) {
	switch p.Type {
	case domain.EventPaymentSuccess:
		return u.onSuccess(ctx, p.Data, now)
	case domain.EventPaymentFailed:
		return u.onFailed(ctx, p.Data, now)
	case domain.EventPaymentRefunded:
		return u.onReversal(ctx, p.Data, deduction.TxRefunded)
	case domain.EventPaymentDisputed:
		return u.onReversal(ctx, p.Data, deduction.TxDisputed)
	}
	return Result{}, domain.ErrUnknownEventType
}

func (u *Usecase) onSuccess(ctx context.Context, data domain.Data, now time.Time) (Result, error) {
	if data.ScheduledDeductionID == "" || data.TransactionID == "" {
		return Result{}, fmt.Errorf("%w: scheduled_deduction_id and transaction_id are required", domain.ErrMalformedPayload)
	}
	row, err := u.Deductions.GetByDeductionID(ctx, data.ScheduledDeductionID)
	if errors.Is(err, deduction.ErrNotFound) {
		u.Log.Warn(ctx, "webhook ignored: unknown scheduled deduction "+data.ScheduledDeductionID)
		return Result{Outcome: OutcomeIgnored}, nil
	}
	if err != nil {
		return Result{}, err
	}
	ctx = u.Log.WithFields(ctx, map[string]any{"deduction_id": row.DeductionID, "loan_id": row.LoanID})

	booked, err := u.alreadyBooked(ctx, data.TransactionID)
	if err != nil {
		return Result{}, err
	}

	var l *loan.Loan
	if booked {
		l, err = u.Loans.GetByLoanID(ctx, row.LoanID)
		if err != nil {
			return Result{}, err
		}
	} else {
		l, err = u.settle(ctx, row, data, now)
		if err != nil {
			return Result{}, err
		}
		u.afterSettle(ctx, l, row, data)
	}

	chained, err := u.guardChain(ctx, row, l)
	if err != nil {
		return Result{}, fmt.Errorf("chain next deduction: %w", err)
	}
	return Result{Outcome: OutcomeProcessed, Chained: chained}, nil
}

// settle completes the deduction, books the fee split and applies the
// repayment in one transaction under the loan lock.
func (u *Usecase) settle(ctx context.Context, row *deduction.ScheduledDeduction, data domain.Data, now time.Time) (*loan.Loan, error) {
	var settled loan.Loan
	err := u.UoW.WithinLoanTx(ctx, row.LoanID, func(r uow.Repos, l *loan.Loan) error {
		cur, err := r.Deductions.GetByDeductionID(ctx, row.DeductionID)
		if err != nil {
			return err
		}
		switch cur.Status {
		case deduction.StatusCompleted:
		case deduction.StatusCancelled:
			u.Log.Warn(ctx, "payment confirmed for a cancelled deduction")
		default:
			completed := now
			if err := r.Deductions.Transition(ctx, cur.DeductionID, cur.Status, deduction.Update{
				To:                   deduction.StatusCompleted,
				GatewayTransactionID: data.TransactionID,
				CompletedAt:          &completed,
				ClearNextRetry:       true,
			}); err != nil {
				return fmt.Errorf("complete deduction: %w", err)
			}
		}

		gross := data.Amount
		if gross <= 0 {
			gross = cur.AmountMinor
		}
		currency := strings.ToUpper(data.Currency)
		if currency == "" {
			currency = cur.Currency
		}
		fee, lender := deduction.SplitFee(gross)
		if err := r.Transactions.Create(ctx, &deduction.Transaction{
			TransactionID:        id.NewID32(),
			DeductionID:          cur.DeductionID,
			MandateID:            cur.MandateID,
			LoanID:               cur.LoanID,
			GatewayTransactionID: data.TransactionID,
			GrossAmount:          gross,
			PlatformFee:          fee,
			LenderAmount:         lender,
			Currency:             currency,
			Status:               deduction.TxSuccess,
		}); err != nil {
			return fmt.Errorf("record transaction: %w", err)
		}

		if _, err := repaymentuc.Apply(ctx, r, l, &repayment.Event{
			AmountMinor:       gross,
			PaidAt:            chargedAt(cur, now),
			Method:            repayment.MethodMandate,
			ExternalReference: data.TransactionID,
		}, now); err != nil {
			return err
		}
		settled = *l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &settled, nil
}

// chargedAt is when the money actually moved: the driver's completion time,
// else the start of the attempt the gateway is confirming. A late delivery
// must not turn an on-time payment into a late one.
func chargedAt(row *deduction.ScheduledDeduction, now time.Time) time.Time {
	for _, t := range []*time.Time{row.CompletedAt, row.ProcessingStartedAt} {
		if t != nil && !t.After(now) {
			return t.UTC()
		}
	}
	return now
}

func (u *Usecase) afterSettle(ctx context.Context, l *loan.Loan, row *deduction.ScheduledDeduction, data domain.Data) {
	u.Log.Info(ctx, "deduction settled by webhook")
	if u.Scores != nil {
		if err := u.Scores.Recompute(ctx, l.BorrowerID); err != nil {
			u.Log.Error(ctx, "score refresh after deduction", err)
		}
	}
	if u.Notifier != nil {
		amount := data.Amount
		if amount <= 0 {
			amount = row.AmountMinor
		}
		body := fmt.Sprintf("A deduction of %d %s was applied to loan %s.", amount, row.Currency, row.LoanID)
		if err := u.Notifier.Notify(ctx, l.BorrowerID, notification.KindDeductionSuccess, "Deduction received", body); err != nil {
			u.Log.Warn(ctx, "deduction notification failed: "+err.Error())
		}
	}
}

// guardChain is the chaining checkpoint: exactly one next deduction, and only
// while the mandate is active and the loan still owes money.
func (u *Usecase) guardChain(ctx context.Context, row *deduction.ScheduledDeduction, l *loan.Loan) (bool, error) {
	if !l.IsActive() {
		return false, nil
	}
	m, err := u.Mandates.GetByMandateID(ctx, row.MandateID)
	if errors.Is(err, mandate.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !m.IsActive() {
		u.Log.Info(ctx, "chain skipped: mandate "+string(m.Status))
		return false, nil
	}
	amount, err := u.chainAmount(ctx, m, l)
	if err != nil {
		return false, err
	}
	if amount <= 0 {
		u.Log.Info(ctx, "chain skipped: nothing left to collect")
		return false, nil
	}
	next, err := m.NextOccurrence(row.ScheduledDate)
	if err != nil {
		return false, err
	}
	err = u.Deductions.Create(ctx, &deduction.ScheduledDeduction{
		DeductionID:     id.NewID32(),
		MandateID:       m.MandateID,
		LoanID:          m.LoanID,
		PaymentMethodID: m.PaymentMethodID,
		ScheduledDate:   next,
		AmountMinor:     amount,
		Currency:        m.Currency,
		Status:          deduction.StatusScheduled,
		MaxAttempts:     deduction.DefaultMaxAttempts,
	})
	if errors.Is(err, deduction.ErrDuplicate) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	u.Metrics.Inc(metrics.OutcomeChained)
	u.Log.Info(ctx, "next deduction chained for "+next.Format(time.DateOnly))
	return true, nil
}

// chainAmount is the mandate amount capped at what the loan still owes
// against its schedule, so the last installment is never overcharged.
func (u *Usecase) chainAmount(ctx context.Context, m *mandate.Mandate, l *loan.Loan) (int64, error) {
	owed := l.OutstandingMinor()
	if u.Schedules != nil {
		entries, err := u.Schedules.ListByLoanID(ctx, l.LoanID)
		if err != nil {
			return 0, fmt.Errorf("load schedule: %w", err)
		}
		if len(entries) > 0 {
			owed = schedule.Total(entries) - l.TotalRepaidMinor
		}
	}
	return min(m.AmountMinor, owed), nil
}

func (u *Usecase) onFailed(ctx context.Context, data domain.Data, now time.Time) (Result, error) {
	if data.ScheduledDeductionID == "" {
		return Result{}, fmt.Errorf("%w: scheduled_deduction_id is required", domain.ErrMalformedPayload)
	}
	row, err := u.Deductions.GetByDeductionID(ctx, data.ScheduledDeductionID)
	if errors.Is(err, deduction.ErrNotFound) {
		u.Log.Warn(ctx, "webhook ignored: unknown scheduled deduction "+data.ScheduledDeductionID)
		return Result{Outcome: OutcomeIgnored}, nil
	}
	if err != nil {
		return Result{}, err
	}
	ctx = u.Log.WithFields(ctx, map[string]any{"deduction_id": row.DeductionID, "loan_id": row.LoanID})

	booked := false
	if data.TransactionID != "" {
		_, err := u.Transactions.GetByGatewayTransactionID(ctx, data.TransactionID)
		switch {
		case err == nil:
			booked = true
		case !errors.Is(err, deduction.ErrTxNotFound):
			return Result{}, err
		}
	}
	reason := data.Reason
	if reason == "" {
		reason = "payment failed"
	}

	if row.Status == deduction.StatusProcessing && u.Failures != nil {
		if _, err := u.Failures.Fail(ctx, row, deductionuc.Failure{
			Reason:               reason,
			GatewayTransactionID: data.TransactionID,
			Ledger:               !booked,
		}, now); err != nil {
			return Result{}, err
		}
		return Result{Outcome: OutcomeProcessed}, nil
	}

	if !booked {
		if err := u.Transactions.Create(ctx, &deduction.Transaction{
			TransactionID:        id.NewID32(),
			DeductionID:          row.DeductionID,
			MandateID:            row.MandateID,
			LoanID:               row.LoanID,
			GatewayTransactionID: data.TransactionID,
			GrossAmount:          row.AmountMinor,
			Currency:             row.Currency,
			Status:               deduction.TxFailed,
			FailureReason:        reason,
		}); err != nil {
			return Result{}, fmt.Errorf("record failed transaction: %w", err)
		}
	}
	if row.Status == deduction.StatusCompleted {
		u.Log.Warn(ctx, "failure reported for a completed deduction")
	}
	return Result{Outcome: OutcomeProcessed}, nil
}

func (u *Usecase) onReversal(ctx context.Context, data domain.Data, status deduction.TxStatus) (Result, error) {
	if data.TransactionID == "" {
		return Result{}, fmt.Errorf("%w: transaction_id is required", domain.ErrMalformedPayload)
	}
	tx, err := u.Transactions.GetByGatewayTransactionID(ctx, data.TransactionID)
	if errors.Is(err, deduction.ErrTxNotFound) {
		u.Log.Warn(ctx, "webhook ignored: no transaction for "+data.TransactionID)
		return Result{Outcome: OutcomeIgnored}, nil
	}
	if err != nil {
		return Result{}, err
	}
	if err := u.Transactions.UpdateStatus(ctx, tx.TransactionID, status, data.Reason); err != nil {
		return Result{}, fmt.Errorf("update transaction status: %w", err)
	}
	u.Log.Info(ctx, "transaction "+tx.TransactionID+" marked "+string(status))
	return Result{Outcome: OutcomeProcessed}, nil
}

func (u *Usecase) alreadyBooked(ctx context.Context, gatewayTxID string) (bool, error) {
	tx, err := u.Transactions.GetByGatewayTransactionID(ctx, gatewayTxID)
	if errors.Is(err, deduction.ErrTxNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return tx.Status != deduction.TxFailed, nil
}

func (u *Usecase) validSignature(body []byte, signature string) bool {
	if len(u.secret) == 0 {
		return false
	}
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(got) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, u.secret)
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), got)
}

// Sign returns the hex signature a gateway would send for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func guardKey(p *domain.Payload) string {
	if p.ID != "" {
		return p.ID
	}
	if p.Data.TransactionID != "" {
		return string(p.Type) + ":" + p.Data.TransactionID
	}
	return ""
}
