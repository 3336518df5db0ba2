package mysql

import (
	"context"

	"credlio-backend/internal/domain/score"

	"gorm.io/gorm"
)

type ScoreRepository struct{ db *gorm.DB }

func NewScoreRepository(db *gorm.DB) *ScoreRepository { return &ScoreRepository{db: db} }

func (r *ScoreRepository) GetByBorrowerID(ctx context.Context, borrowerID string) (*score.BorrowerScore, error) {
	var out score.BorrowerScore
	if err := r.db.WithContext(ctx).Where("borrower_id = ?", borrowerID).First(&out).Error; err != nil {
		return nil, notFound(err, score.ErrNotFound)
	}
	return &out, nil
}

func (r *ScoreRepository) Insert(ctx context.Context, s *score.BorrowerScore) error {
	if s.Version == 0 {
		s.Version = 1
	}
	return duplicate(r.db.WithContext(ctx).Create(s).Error, score.ErrAlreadySeeded)
}

func (r *ScoreRepository) UpdateVersioned(ctx context.Context, s *score.BorrowerScore, expected int64) error {
	res := r.db.WithContext(ctx).
		Model(&score.BorrowerScore{}).
		Where("borrower_id = ? AND version = ?", s.BorrowerID, expected).
		Select("score", "factors", "computed_at", "version").
		Updates(&score.BorrowerScore{
			Score:      s.Score,
			Factors:    s.Factors,
			ComputedAt: s.ComputedAt,
			Version:    expected + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return score.ErrVersionConflict
	}
	s.Version = expected + 1
	return nil
}
