package loan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "credlio-backend/internal/domain/loan"
	"credlio-backend/internal/domain/notification"
	"credlio-backend/internal/domain/schedule"
	"credlio-backend/internal/domain/uow"
	"credlio-backend/internal/engine/amortization"
	"credlio-backend/pkg/auth"
	"credlio-backend/pkg/id"
	"credlio-backend/pkg/logger"
)

type Usecase struct {
	repo      domain.Repository
	schedules schedule.Repository
	uow       uow.UnitOfWork
	notifier  notification.Notifier
	log       *logger.Logger
	now       func() time.Time
}

func NewUsecase(
	r domain.Repository,
	schedules schedule.Repository,
	tx uow.UnitOfWork,
	notifier notification.Notifier,
	log *logger.Logger,
) *Usecase {
	if log == nil {
		log = logger.Nop()
	}
	return &Usecase{
		repo:      r,
		schedules: schedules,
		uow:       tx,
		notifier:  notifier,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (u *Usecase) Create(ctx context.Context, in CreateLoanInput) (*LoanDTO, error) {
	if strings.TrimSpace(in.BorrowerID) == "" {
		return nil, fmt.Errorf("%w: borrower_id is required", domain.ErrInvalidInput)
	}
	if err := amortization.Validate(in.PrincipalMinor, in.AprBps, in.TermMonths); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if len(in.Currency) != 3 {
		return nil, fmt.Errorf("%w: currency must be a 3-letter code", domain.ErrInvalidInput)
	}

	// one open request per borrower
	open, err := u.repo.GetRequestedByBorrowerID(ctx, in.BorrowerID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: %s", domain.ErrOpenRequestExists, open.LoanID)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	now := u.now()
	l := &domain.Loan{
		LoanID:          id.NewID32(),
		BorrowerID:      in.BorrowerID,
		PrincipalMinor:  in.PrincipalMinor,
		AprBps:          in.AprBps,
		TermMonths:      in.TermMonths,
		Currency:        strings.ToUpper(in.Currency),
		Purpose:         strings.TrimSpace(in.Purpose),
		Status:          domain.StatusRequested,
		StatusUpdatedAt: now,
	}
	if err := u.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	dto := toDTO(l)
	return &dto, nil
}

func (u *Usecase) Get(ctx context.Context, loanID string) (*LoanDTO, error) {
	l, err := u.repo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	dto := toDTO(l)
	return &dto, nil
}

// GetFor returns the loan when actor is a party to it.
func (u *Usecase) GetFor(ctx context.Context, loanID string, actor Actor) (*LoanDTO, error) {
	l, err := u.repo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !isParty(l, actor) {
		return nil, domain.ErrForbidden
	}
	dto := toDTO(l)
	return &dto, nil
}

func (u *Usecase) Schedule(ctx context.Context, loanID string, actor Actor) ([]ScheduleEntryDTO, error) {
	if _, err := u.GetFor(ctx, loanID, actor); err != nil {
		return nil, err
	}
	entries, err := u.schedules.ListByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	out := make([]ScheduleEntryDTO, 0, len(entries))
	for i := range entries {
		out = append(out, toEntryDTO(&entries[i]))
	}
	return out, nil
}

// Offer records a lender's commitment: requested -> pending.
func (u *Usecase) Offer(ctx context.Context, loanID string, actor Actor) (*LoanDTO, error) {
	return u.transition(ctx, loanID, domain.StatusPending, func(l *domain.Loan) error {
		if l.BorrowerID == actor.UserID {
			return domain.ErrForbidden
		}
		l.LenderID = actor.UserID
		return nil
	})
}

// Reject is open to the assigned lender, any lender before an offer, or an admin.
func (u *Usecase) Reject(ctx context.Context, loanID string, actor Actor) (*LoanDTO, error) {
	return u.transition(ctx, loanID, domain.StatusRejected, func(l *domain.Loan) error {
		if actor.IsAdmin() {
			return nil
		}
		if l.BorrowerID == actor.UserID || (l.LenderID != "" && l.LenderID != actor.UserID) {
			return domain.ErrForbidden
		}
		return nil
	})
}

// Cancel withdraws the request; only the borrower or an admin may do it.
func (u *Usecase) Cancel(ctx context.Context, loanID string, actor Actor) (*LoanDTO, error) {
	return u.transition(ctx, loanID, domain.StatusCancelled, func(l *domain.Loan) error {
		if actor.IsAdmin() || l.BorrowerID == actor.UserID {
			return nil
		}
		return domain.ErrForbidden
	})
}

func (u *Usecase) transition(ctx context.Context, loanID string, next domain.Status, authorize func(*domain.Loan) error) (*LoanDTO, error) {
	if u.uow == nil {
		return nil, domain.ErrInvalidTransition
	}
	var out domain.Loan
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		if err := authorize(l); err != nil {
			return err
		}
		if err := l.Transition(next, u.now()); err != nil {
			return fmt.Errorf("%w: %s -> %s", err, l.Status, next)
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		out = *l
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.notify(ctx, out.BorrowerID, notification.KindLoanStatus, "Loan update",
		fmt.Sprintf("Your loan %s is now %s.", out.LoanID, out.Status))
	dto := toDTO(&out)
	return &dto, nil
}

// Activate moves pending -> active, then regenerates the repayment schedule.
// Schedule problems are reported as warnings and never undo the activation.
func (u *Usecase) Activate(ctx context.Context, loanID string, actor Actor) (*ActivationDTO, error) {
	if u.uow == nil {
		return nil, domain.ErrInvalidTransition
	}
	now := u.now()
	var out domain.Loan
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		if !actor.IsAdmin() && (l.LenderID == "" || l.LenderID != actor.UserID) {
			return domain.ErrForbidden
		}
		if err := l.Transition(domain.StatusActive, now); err != nil {
			return fmt.Errorf("%w: %s -> %s", err, l.Status, domain.StatusActive)
		}
		start := amortization.DateOnly(now)
		l.ActivatedAt = &now
		l.StartDate = &start
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		out = *l
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = u.log.WithLoanID(ctx, out.LoanID)
	res := &ActivationDTO{Loan: toDTO(&out)}
	if err := u.regenerateSchedule(ctx, &out); err != nil {
		u.log.Error(ctx, "schedule regeneration after activation", err)
		res.Warnings = append(res.Warnings, "repayment schedule could not be generated: "+err.Error())
	} else if err := u.schedules.PatchFirstDueDate(ctx, out.LoanID, amortization.FirstDueDate(now)); err != nil {
		u.log.Error(ctx, "first due date patch after activation", err)
		res.Warnings = append(res.Warnings, "first due date could not be set: "+err.Error())
	}

	u.notify(ctx, out.BorrowerID, notification.KindLoanActivated, "Loan activated",
		fmt.Sprintf("Your loan %s is active. The first payment is due %s.",
			out.LoanID, amortization.FirstDueDate(now).Format(time.DateOnly)))
	return res, nil
}

func (u *Usecase) regenerateSchedule(ctx context.Context, l *domain.Loan) error {
	start := amortization.DateOnly(u.now())
	if l.StartDate != nil {
		start = *l.StartDate
	}
	sched, err := amortization.ComputeSchedule(l.PrincipalMinor, l.AprBps, l.TermMonths, start)
	if err != nil {
		return err
	}
	entries := make([]schedule.Entry, 0, len(sched.Entries))
	for _, e := range sched.Entries {
		entries = append(entries, schedule.Entry{
			ScheduleID:         id.NewID32(),
			LoanID:             l.LoanID,
			PaymentNumber:      e.PaymentNumber,
			DueDate:            e.DueDate,
			PrincipalComponent: e.PrincipalComponent,
			InterestComponent:  e.InterestComponent,
		})
	}
	return u.schedules.ReplaceForLoan(ctx, l.LoanID, entries)
}

func (u *Usecase) notify(ctx context.Context, userID string, kind notification.Kind, title, body string) {
	if u.notifier == nil || userID == "" {
		return
	}
	if err := u.notifier.Notify(ctx, userID, kind, title, body); err != nil {
		u.log.Warn(ctx, "notification failed: "+err.Error())
	}
}

func isParty(l *domain.Loan, a Actor) bool {
	if a.IsAdmin() {
		return true
	}
	// open requests are visible to every lender
	if a.Role == auth.RoleLender && l.Status == domain.StatusRequested {
		return true
	}
	return a.UserID != "" && (a.UserID == l.BorrowerID || a.UserID == l.LenderID)
}
