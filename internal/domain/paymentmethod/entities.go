package paymentmethod

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("payment method not found")
	ErrInvalidInput = errors.New("invalid payment method")
	ErrNotUsable    = errors.New("payment method is not usable")
)

type Status string

const (
	StatusActive   Status = "active"
	StatusDisabled Status = "disabled"
)

// PaymentMethod is a tokenized card held by the gateway for a borrower.
type PaymentMethod struct {
	ID              uint64    `gorm:"primaryKey;column:id" json:"-"`
	PaymentMethodID string    `gorm:"size:32;uniqueIndex:ux_payment_methods_id" json:"payment_method_id"`
	BorrowerID      string    `gorm:"size:64;index:idx_payment_methods_borrower" json:"borrower_id"`
	CardToken       string    `gorm:"size:191;not null" json:"-"`
	CustomerRef     string    `gorm:"size:191" json:"customer_ref,omitempty"`
	Brand           string    `gorm:"size:32" json:"brand,omitempty"`
	Last4           string    `gorm:"size:4" json:"last4,omitempty"`
	Status          Status    `gorm:"size:16;not null;default:active" json:"status"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (PaymentMethod) TableName() string { return "payment_methods" }

func (p *PaymentMethod) Usable() bool { return p != nil && p.Status == StatusActive && p.CardToken != "" }
