package paymentmethod

import "context"

type Repository interface {
	Create(ctx context.Context, p *PaymentMethod) error
	GetByPaymentMethodID(ctx context.Context, id string) (*PaymentMethod, error)
}
