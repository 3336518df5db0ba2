package mandatemock

import (
	"context"
	"errors"

	domain "credlio-backend/internal/domain/mandate"
)

var _ domain.Repository = (*Repo)(nil)

var errUnimplemented = errors.New("mandatemock: method not implemented")

type Repo struct {
	CreateFn         func(ctx context.Context, m *domain.Mandate) error
	GetByMandateIDFn func(ctx context.Context, mandateID string) (*domain.Mandate, error)
	SaveFn           func(ctx context.Context, m *domain.Mandate) error
}

func (r *Repo) Create(ctx context.Context, m *domain.Mandate) error {
	if r.CreateFn != nil {
		return r.CreateFn(ctx, m)
	}
	return nil
}

func (r *Repo) GetByMandateID(ctx context.Context, mandateID string) (*domain.Mandate, error) {
	if r.GetByMandateIDFn != nil {
		return r.GetByMandateIDFn(ctx, mandateID)
	}
	return nil, errUnimplemented
}

func (r *Repo) Save(ctx context.Context, m *domain.Mandate) error {
	if r.SaveFn != nil {
		return r.SaveFn(ctx, m)
	}
	return nil
}
