package score

import (
	"time"

	domain "credlio-backend/internal/domain/score"
)

type ScoreDTO struct {
	BorrowerID string         `json:"borrower_id"`
	Score      int            `json:"score"`
	Factors    domain.Factors `json:"factors"`
	Version    int64          `json:"version"`
	ComputedAt time.Time      `json:"computed_at"`
}

func toDTO(s *domain.BorrowerScore) *ScoreDTO {
	return &ScoreDTO{
		BorrowerID: s.BorrowerID,
		Score:      s.Score,
		Factors:    s.Factors,
		Version:    s.Version,
		ComputedAt: s.ComputedAt,
	}
}
