package schedulemock

import (
	"context"
	"errors"
	"time"

	domain "credlio-backend/internal/domain/schedule"
)

var _ domain.Repository = (*Repo)(nil)

var errUnimplemented = errors.New("schedulemock: method not implemented")

type Repo struct {
	ReplaceForLoanFn    func(ctx context.Context, loanID string, entries []domain.Entry) error
	ListByLoanIDFn      func(ctx context.Context, loanID string) ([]domain.Entry, error)
	ListByLoanIDsFn     func(ctx context.Context, loanIDs []string) ([]domain.Entry, error)
	GetByScheduleIDFn   func(ctx context.Context, scheduleID string) (*domain.Entry, error)
	FirstUnpaidFn       func(ctx context.Context, loanID string) (*domain.Entry, error)
	PatchFirstDueDateFn func(ctx context.Context, loanID string, due time.Time) error
	MarkPaidFn          func(ctx context.Context, scheduleID string, paidAt time.Time) error
}

func (m *Repo) ReplaceForLoan(ctx context.Context, loanID string, entries []domain.Entry) error {
	if m.ReplaceForLoanFn != nil {
		return m.ReplaceForLoanFn(ctx, loanID, entries)
	}
	return nil
}

func (m *Repo) ListByLoanID(ctx context.Context, loanID string) ([]domain.Entry, error) {
	if m.ListByLoanIDFn != nil {
		return m.ListByLoanIDFn(ctx, loanID)
	}
	return nil, nil
}

func (m *Repo) ListByLoanIDs(ctx context.Context, loanIDs []string) ([]domain.Entry, error) {
	if m.ListByLoanIDsFn != nil {
		return m.ListByLoanIDsFn(ctx, loanIDs)
	}
	return nil, nil
}

func (m *Repo) GetByScheduleID(ctx context.Context, scheduleID string) (*domain.Entry, error) {
	if m.GetByScheduleIDFn != nil {
		return m.GetByScheduleIDFn(ctx, scheduleID)
	}
	return nil, errUnimplemented
}

func (m *Repo) FirstUnpaid(ctx context.Context, loanID string) (*domain.Entry, error) {
	if m.FirstUnpaidFn != nil {
		return m.FirstUnpaidFn(ctx, loanID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) PatchFirstDueDate(ctx context.Context, loanID string, due time.Time) error {
	if m.PatchFirstDueDateFn != nil {
		return m.PatchFirstDueDateFn(ctx, loanID, due)
	}
	return nil
}

func (m *Repo) MarkPaid(ctx context.Context, scheduleID string, paidAt time.Time) error {
	if m.MarkPaidFn != nil {
		return m.MarkPaidFn(ctx, scheduleID, paidAt)
	}
	return nil
}
