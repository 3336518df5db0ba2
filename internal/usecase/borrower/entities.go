package borrower

import "time"

type OnboardInput struct {
	BorrowerID       string
	CreditLimitMinor int64
	AccountCreatedAt time.Time
}

type BorrowerDTO struct {
	BorrowerID       string    `json:"borrower_id"`
	CreditLimitMinor int64     `json:"credit_limit_minor"`
	KYCStatus        string    `json:"kyc_status"`
	AccountCreatedAt time.Time `json:"account_created_at"`
	// Warnings lists best-effort side effects that did not complete.
	Warnings []string `json:"warnings,omitempty"`
}
