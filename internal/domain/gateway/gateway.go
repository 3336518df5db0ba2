package gateway

import (
	"context"
	"errors"
)

var ErrNotConfigured = errors.New("payment gateway not configured")

type ChargeRequest struct {
	AmountMinor      int64
	Currency         string
	CardToken        string
	CustomerRef      string
	MandateReference string
	// IdempotencyKey is repeated verbatim when an attempt with an unknown
	// outcome is retried, so the gateway returns the original payment.
	IdempotencyKey string
	// ReferenceID ties the charge back to the loan.
	ReferenceID string
}

type ChargeResult struct {
	Success       bool
	TransactionID string
	Status        string
	FailureReason string
}

// Charger moves money from a stored card.
type Charger interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}
