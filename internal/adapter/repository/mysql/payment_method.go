package mysql

import (
	"context"

	"credlio-backend/internal/domain/paymentmethod"

	"gorm.io/gorm"
)

type PaymentMethodRepository struct{ db *gorm.DB }

func NewPaymentMethodRepository(db *gorm.DB) *PaymentMethodRepository {
	return &PaymentMethodRepository{db: db}
}

func (r *PaymentMethodRepository) Create(ctx context.Context, p *paymentmethod.PaymentMethod) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PaymentMethodRepository) GetByPaymentMethodID(ctx context.Context, id string) (*paymentmethod.PaymentMethod, error) {
	var out paymentmethod.PaymentMethod
	if err := r.db.WithContext(ctx).Where("payment_method_id = ?", id).First(&out).Error; err != nil {
		return nil, notFound(err, paymentmethod.ErrNotFound)
	}
	return &out, nil
}
