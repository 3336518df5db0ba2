package mysql

import (
	"context"

	"credlio-backend/internal/domain/mandate"

	"gorm.io/gorm"
)

type MandateRepository struct{ db *gorm.DB }

func NewMandateRepository(db *gorm.DB) *MandateRepository { return &MandateRepository{db: db} }

func (r *MandateRepository) Create(ctx context.Context, m *mandate.Mandate) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *MandateRepository) Save(ctx context.Context, m *mandate.Mandate) error {
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *MandateRepository) GetByMandateID(ctx context.Context, mandateID string) (*mandate.Mandate, error) {
	var out mandate.Mandate
	if err := r.db.WithContext(ctx).Where("mandate_id = ?", mandateID).First(&out).Error; err != nil {
		return nil, notFound(err, mandate.ErrNotFound)
	}
	return &out, nil
}
