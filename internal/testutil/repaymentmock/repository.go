package repaymentmock

import (
	"context"

	domain "credlio-backend/internal/domain/repayment"
)

var _ domain.Repository = (*Repo)(nil)

type Repo struct {
	CreateFn        func(ctx context.Context, e *domain.Event) error
	ListByLoanIDsFn func(ctx context.Context, loanIDs []string) ([]domain.Event, error)
}

func (m *Repo) Create(ctx context.Context, e *domain.Event) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, e)
	}
	return nil
}

func (m *Repo) ListByLoanIDs(ctx context.Context, loanIDs []string) ([]domain.Event, error) {
	if m.ListByLoanIDsFn != nil {
		return m.ListByLoanIDsFn(ctx, loanIDs)
	}
	return nil, nil
}
