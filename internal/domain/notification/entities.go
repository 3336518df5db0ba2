package notification

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("notification not found")

type Kind string

const (
	KindLoanActivated     Kind = "loan_activated"
	KindLoanStatus        Kind = "loan_status"
	KindKYC               Kind = "kyc_status"
	KindDeductionFailed   Kind = "deduction_failed"
	KindDeductionSuccess  Kind = "deduction_success"
	KindRepaymentReceived Kind = "repayment_received"
)

type Notification struct {
	ID             uint64     `gorm:"primaryKey;column:id" json:"-"`
	NotificationID string     `gorm:"size:32;uniqueIndex:ux_notifications_id" json:"notification_id"`
	UserID         string     `gorm:"size:64;index:idx_notifications_user" json:"user_id"`
	Kind           Kind       `gorm:"column:type;size:32" json:"type"`
	Title          string     `gorm:"size:191" json:"title"`
	Body           string     `gorm:"type:text" json:"body"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }
