package borrower

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("borrower not found")
	ErrAlreadyOnboarded  = errors.New("borrower already onboarded")
	ErrInvalidTransition = errors.New("invalid kyc transition")
)

// DefaultCreditLimitMinor applies when no limit has been assigned.
const DefaultCreditLimitMinor int64 = 100_000

type KYCStatus string

const (
	KYCPending  KYCStatus = "pending"
	KYCVerified KYCStatus = "verified"
	KYCRejected KYCStatus = "rejected"
)

type Borrower struct {
	ID               uint64    `gorm:"primaryKey;column:id" json:"-"`
	// BorrowerID is the identity subject of the borrower's account.
	BorrowerID       string    `gorm:"size:64;uniqueIndex:ux_borrowers_borrower_id" json:"borrower_id"`
	CreditLimitMinor int64     `gorm:"not null;default:0" json:"credit_limit_minor"`
	KYCStatus        KYCStatus `gorm:"size:16;not null;default:pending" json:"kyc_status"`
	AccountCreatedAt time.Time `json:"account_created_at"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Borrower) TableName() string { return "borrowers" }

func (b *Borrower) EffectiveCreditLimit() int64 {
	if b == nil || b.CreditLimitMinor <= 0 {
		return DefaultCreditLimitMinor
	}
	return b.CreditLimitMinor
}
