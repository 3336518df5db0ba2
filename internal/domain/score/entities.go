package score

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("borrower score not found")
	ErrVersionConflict = errors.New("borrower score changed concurrently")
	ErrAlreadySeeded   = errors.New("borrower score already exists")
)

// OnboardingScore is the value written when a borrower is first onboarded.
// It is not engine output.
const OnboardingScore = 600

// Factors is the category weight breakdown stored alongside a score.
type Factors struct {
	PaymentHistory    int `json:"payment_history"`
	CreditUtilization int `json:"credit_utilization"`
	CreditAge         int `json:"credit_age"`
	CreditMix         int `json:"credit_mix"`
	NewInquiries      int `json:"new_inquiries"`
}

var DefaultFactors = Factors{
	PaymentHistory:    35,
	CreditUtilization: 30,
	CreditAge:         15,
	CreditMix:         10,
	NewInquiries:      10,
}

type BorrowerScore struct {
	ID         uint64    `gorm:"primaryKey;column:id" json:"-"`
	BorrowerID string    `gorm:"size:64;uniqueIndex:ux_scores_borrower" json:"borrower_id"`
	Score      int       `gorm:"not null" json:"score"`
	Factors    Factors   `gorm:"serializer:json;type:text" json:"factors"`
	Version    int64     `gorm:"not null;default:1" json:"version"`
	ComputedAt time.Time `json:"computed_at"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (BorrowerScore) TableName() string { return "borrower_scores" }
