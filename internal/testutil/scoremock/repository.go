package scoremock

import (
	"context"

	domain "credlio-backend/internal/domain/score"
)

var _ domain.Repository = (*Repo)(nil)

type Repo struct {
	GetByBorrowerIDFn func(ctx context.Context, borrowerID string) (*domain.BorrowerScore, error)
	InsertFn          func(ctx context.Context, s *domain.BorrowerScore) error
	UpdateVersionedFn func(ctx context.Context, s *domain.BorrowerScore, expected int64) error
}

func (m *Repo) GetByBorrowerID(ctx context.Context, borrowerID string) (*domain.BorrowerScore, error) {
	if m.GetByBorrowerIDFn != nil {
		return m.GetByBorrowerIDFn(ctx, borrowerID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) Insert(ctx context.Context, s *domain.BorrowerScore) error {
	if m.InsertFn != nil {
		return m.InsertFn(ctx, s)
	}
	return nil
}

func (m *Repo) UpdateVersioned(ctx context.Context, s *domain.BorrowerScore, expected int64) error {
	if m.UpdateVersionedFn != nil {
		return m.UpdateVersionedFn(ctx, s, expected)
	}
	return nil
}
