package mysql

import (
	"context"

	"credlio-backend/internal/domain/repayment"

	"gorm.io/gorm"
)

type RepaymentRepository struct{ db *gorm.DB }

func NewRepaymentRepository(db *gorm.DB) *RepaymentRepository { return &RepaymentRepository{db: db} }

func (r *RepaymentRepository) Create(ctx context.Context, e *repayment.Event) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *RepaymentRepository) ListByLoanIDs(ctx context.Context, loanIDs []string) ([]repayment.Event, error) {
	var out []repayment.Event
	if len(loanIDs) == 0 {
		return out, nil
	}
	err := r.db.WithContext(ctx).
		Where("loan_id IN ?", loanIDs).
		Order("paid_at ASC, id ASC").
		Find(&out).Error
	return out, err
}
