package repayment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"credlio-backend/internal/domain/loan"
	"credlio-backend/internal/domain/notification"
	domain "credlio-backend/internal/domain/repayment"
	"credlio-backend/internal/domain/schedule"
	"credlio-backend/internal/domain/uow"
	"credlio-backend/pkg/auth"
	"credlio-backend/pkg/id"
	"credlio-backend/pkg/logger"
)

// ScoreRefresher recomputes a borrower's stored score.
type ScoreRefresher interface {
	Recompute(ctx context.Context, borrowerID string) error
}

type Usecase struct {
	uow      uow.UnitOfWork
	scores   ScoreRefresher
	notifier notification.Notifier
	log      *logger.Logger
	now      func() time.Time
}

func NewUsecase(tx uow.UnitOfWork, scores ScoreRefresher, notifier notification.Notifier, log *logger.Logger) *Usecase {
	if log == nil {
		log = logger.Nop()
	}
	return &Usecase{
		uow:      tx,
		scores:   scores,
		notifier: notifier,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Record appends a repayment against an active loan, then refreshes the
// borrower's score. The refresh is best effort.
func (u *Usecase) Record(ctx context.Context, in RecordInput, actorID string, role auth.Role) (*RepaymentDTO, error) {
	if in.AmountMinor <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidInput)
	}
	if in.Method == "" {
		in.Method = domain.MethodManual
	}
	if !in.Method.IsValid() {
		return nil, fmt.Errorf("%w: method %q", domain.ErrInvalidInput, in.Method)
	}
	paidAt := in.PaidAt
	if paidAt.IsZero() {
		paidAt = u.now()
	}

	ev := &domain.Event{
		LoanID:            in.LoanID,
		AmountMinor:       in.AmountMinor,
		PaidAt:            paidAt.UTC(),
		Method:            in.Method,
		ExternalReference: in.Reference,
	}
	if in.ScheduleID != "" {
		sid := in.ScheduleID
		ev.ScheduleID = &sid
	}

	var (
		applied Applied
		l       loan.Loan
	)
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, locked *loan.Loan) error {
		if role != auth.RoleAdmin && actorID != locked.BorrowerID && actorID != locked.LenderID {
			return loan.ErrForbidden
		}
		if !locked.IsActive() {
			return fmt.Errorf("%w: loan is %s", loan.ErrInvalidTransition, locked.Status)
		}
		var err error
		applied, err = Apply(ctx, r, locked, ev, u.now())
		l = *locked
		return err
	})
	if err != nil {
		return nil, err
	}

	ctx = u.log.WithLoanID(ctx, l.LoanID)
	dto := &RepaymentDTO{
		RepaymentID:      applied.Event.RepaymentID,
		LoanID:           l.LoanID,
		AmountMinor:      applied.Event.AmountMinor,
		PaidAt:           applied.Event.PaidAt,
		Method:           string(applied.Event.Method),
		TotalRepaidMinor: applied.TotalRepaidMinor,
		LoanStatus:       string(l.Status),
	}
	if applied.Event.ScheduleID != nil {
		dto.ScheduleID = *applied.Event.ScheduleID
	}

	if u.scores != nil {
		if err := u.scores.Recompute(ctx, l.BorrowerID); err != nil {
			u.log.Error(ctx, "score refresh after repayment", err)
			dto.Warnings = append(dto.Warnings, "credit score not refreshed")
		}
	}
	if u.notifier != nil && l.LenderID != "" {
		body := fmt.Sprintf("A repayment of %d %s was recorded on loan %s.", in.AmountMinor, l.Currency, l.LoanID)
		if err := u.notifier.Notify(ctx, l.LenderID, notification.KindRepaymentReceived, "Repayment received", body); err != nil {
			u.log.Warn(ctx, "repayment notification failed: "+err.Error())
		}
	}
	return dto, nil
}

// Apply writes ev against l inside an open unit of work. It links the
// earliest unpaid installment when ev has none, marks that installment paid
// when covered, bumps the loan's running total, and completes an active loan
// once the total reaches the scheduled amount. l must be locked by the caller.
func Apply(ctx context.Context, r uow.Repos, l *loan.Loan, ev *domain.Event, now time.Time) (Applied, error) {
	var entry *schedule.Entry
	if ev.ScheduleID == nil {
		e, err := r.Schedules.FirstUnpaid(ctx, l.LoanID)
		switch {
		case err == nil:
			entry = e
			sid := e.ScheduleID
			ev.ScheduleID = &sid
		case !errors.Is(err, schedule.ErrNotFound):
			return Applied{}, err
		}
	} else {
		e, err := r.Schedules.GetByScheduleID(ctx, *ev.ScheduleID)
		if err != nil {
			return Applied{}, err
		}
		if e.LoanID != l.LoanID {
			return Applied{}, fmt.Errorf("%w: schedule entry belongs to another loan", domain.ErrInvalidInput)
		}
		entry = e
	}

	ev.RepaymentID = id.NewID32()
	ev.LoanID = l.LoanID
	if err := r.Repayments.Create(ctx, ev); err != nil {
		return Applied{}, fmt.Errorf("append repayment: %w", err)
	}

	out := Applied{Event: *ev}
	if entry != nil && !entry.Paid && ev.AmountMinor >= entry.AmountDue() {
		if err := r.Schedules.MarkPaid(ctx, entry.ScheduleID, ev.PaidAt); err != nil {
			return Applied{}, fmt.Errorf("mark installment paid: %w", err)
		}
		out.InstallmentPaid = true
	}

	total, err := r.Loans.AddRepaid(ctx, l.LoanID, ev.AmountMinor)
	if err != nil {
		return Applied{}, fmt.Errorf("add repaid: %w", err)
	}
	l.TotalRepaidMinor = total
	out.TotalRepaidMinor = total

	if !l.IsActive() {
		return out, nil
	}
	entries, err := r.Schedules.ListByLoanID(ctx, l.LoanID)
	if err != nil {
		return Applied{}, err
	}
	if len(entries) == 0 || total < schedule.Total(entries) {
		return out, nil
	}
	if err := l.Transition(loan.StatusCompleted, now); err != nil {
		return Applied{}, err
	}
	if err := r.Loans.Save(ctx, l); err != nil {
		return Applied{}, err
	}
	out.Completed = true
	return out, nil
}
