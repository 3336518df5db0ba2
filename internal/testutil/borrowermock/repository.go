package borrowermock

import (
	"context"

	domain "credlio-backend/internal/domain/borrower"
)

var _ domain.Repository = (*Repo)(nil)

type Repo struct {
	CreateFn          func(ctx context.Context, b *domain.Borrower) error
	GetByBorrowerIDFn func(ctx context.Context, borrowerID string) (*domain.Borrower, error)
	SaveFn            func(ctx context.Context, b *domain.Borrower) error
}

func (m *Repo) Create(ctx context.Context, b *domain.Borrower) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, b)
	}
	return nil
}

func (m *Repo) GetByBorrowerID(ctx context.Context, borrowerID string) (*domain.Borrower, error) {
	if m.GetByBorrowerIDFn != nil {
		return m.GetByBorrowerIDFn(ctx, borrowerID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) Save(ctx context.Context, b *domain.Borrower) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, b)
	}
	return nil
}
