package webhook

import (
	"context"
	"time"

	"credlio-backend/internal/domain/deduction"
	deductionuc "credlio-backend/internal/usecase/deduction"
)

const (
	OutcomeProcessed = "processed"
	OutcomeDuplicate = "duplicate"
	OutcomeIgnored   = "ignored"

	provider = "gateway"
)

// Delivery is one inbound gateway request as received.
type Delivery struct {
	Body      []byte
	Signature string
	SourceIP  string
}

type Result struct {
	EventID string `json:"event_id"`
	Type    string `json:"type"`
	Outcome string `json:"outcome"`
	Chained bool   `json:"chained,omitempty"`
}

// Guard short-circuits redelivered event ids.
type Guard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// FailureRecorder applies the retry rules to a processing deduction.
type FailureRecorder interface {
	Fail(ctx context.Context, row *deduction.ScheduledDeduction, f deductionuc.Failure, now time.Time) (string, error)
}

type ScoreRefresher interface {
	Recompute(ctx context.Context, borrowerID string) error
}
