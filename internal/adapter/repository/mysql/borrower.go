package mysql

import (
	"context"

	"credlio-backend/internal/domain/borrower"

	"gorm.io/gorm"
)

type BorrowerRepository struct{ db *gorm.DB }

func NewBorrowerRepository(db *gorm.DB) *BorrowerRepository { return &BorrowerRepository{db: db} }

func (r *BorrowerRepository) Create(ctx context.Context, b *borrower.Borrower) error {
	return duplicate(r.db.WithContext(ctx).Create(b).Error, borrower.ErrAlreadyOnboarded)
}

func (r *BorrowerRepository) Save(ctx context.Context, b *borrower.Borrower) error {
	return r.db.WithContext(ctx).Save(b).Error
}

func (r *BorrowerRepository) GetByBorrowerID(ctx context.Context, borrowerID string) (*borrower.Borrower, error) {
	var out borrower.Borrower
	if err := r.db.WithContext(ctx).Where("borrower_id = ?", borrowerID).First(&out).Error; err != nil {
		return nil, notFound(err, borrower.ErrNotFound)
	}
	return &out, nil
}
