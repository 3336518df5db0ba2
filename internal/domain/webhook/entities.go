package webhook

import (
	"errors"
	"time"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMalformedPayload = errors.New("malformed webhook payload")
	ErrUnknownEventType = errors.New("unknown webhook event type")
)

type EventType string

const (
	EventPaymentSuccess  EventType = "payment.success"
	EventPaymentFailed   EventType = "payment.failed"
	EventPaymentRefunded EventType = "payment.refunded"
	EventPaymentDisputed EventType = "payment.disputed"
)

func (t EventType) IsKnown() bool {
	switch t {
	case EventPaymentSuccess, EventPaymentFailed, EventPaymentRefunded, EventPaymentDisputed:
		return true
	}
	return false
}

// Data is the payload carried by every gateway delivery.
type Data struct {
	TransactionID        string `json:"transaction_id"`
	TransactionReference string `json:"transaction_reference"`
	Amount               int64  `json:"amount"`
	Currency             string `json:"currency"`
	MandateID            string `json:"mandate_id"`
	ScheduledDeductionID string `json:"scheduled_deduction_id"`
	Reason               string `json:"reason,omitempty"`
}

type Payload struct {
	ID   string    `json:"id"`
	Type EventType `json:"type"`
	Data Data      `json:"data"`
}

// Delivery is the append-only audit row written for every inbound webhook.
type Delivery struct {
	ID             uint64    `gorm:"primaryKey;column:id" json:"-"`
	Provider       string    `gorm:"size:32;not null" json:"provider"`
	EventID        string    `gorm:"size:191;index:idx_webhook_events_event_id" json:"event_id"`
	EventType      string    `gorm:"size:64" json:"event_type"`
	Payload        string    `gorm:"type:text" json:"payload"`
	SignatureValid bool      `json:"signature_valid"`
	SourceIP       string    `gorm:"size:64" json:"source_ip"`
	ReceivedAt     time.Time `json:"received_at"`
}

func (Delivery) TableName() string { return "webhook_events" }
