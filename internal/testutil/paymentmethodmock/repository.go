package paymentmethodmock

import (
	"context"

	domain "credlio-backend/internal/domain/paymentmethod"
)

var _ domain.Repository = (*Repo)(nil)

type Repo struct {
	CreateFn               func(ctx context.Context, p *domain.PaymentMethod) error
	GetByPaymentMethodIDFn func(ctx context.Context, id string) (*domain.PaymentMethod, error)
}

func (m *Repo) Create(ctx context.Context, p *domain.PaymentMethod) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, p)
	}
	return nil
}

func (m *Repo) GetByPaymentMethodID(ctx context.Context, id string) (*domain.PaymentMethod, error) {
	if m.GetByPaymentMethodIDFn != nil {
		return m.GetByPaymentMethodIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}
