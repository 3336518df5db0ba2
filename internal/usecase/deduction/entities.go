package deduction

import "time"

// Options tunes a Driver. Zero values fall back to the defaults below.
type Options struct {
	// RetryAfter is how long a failed attempt waits before it is selectable again.
	RetryAfter time.Duration
	// StuckAfter is how long a row may stay processing before the sweep fails it.
	StuckAfter time.Duration
	// ChargeDelay spaces consecutive gateway charges.
	ChargeDelay time.Duration
	// BatchSize caps rows handled per pass.
	BatchSize int
}

const (
	DefaultRetryAfter = 24 * time.Hour
	DefaultStuckAfter = 6 * time.Hour
	defaultBatchSize  = 500

	reasonTimedOut = "processing timed out"
)

func (o Options) withDefaults() Options {
	if o.RetryAfter <= 0 {
		o.RetryAfter = DefaultRetryAfter
	}
	if o.StuckAfter <= 0 {
		o.StuckAfter = DefaultStuckAfter
	}
	if o.BatchSize <= 0 {
		o.BatchSize = defaultBatchSize
	}
	return o
}

// RunSummary counts what one pass did.
type RunSummary struct {
	Selected  int `json:"selected"`
	Completed int `json:"completed"`
	Retried   int `json:"retried"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
	Skipped   int `json:"skipped"`
}

func (s *RunSummary) add(outcome string) {
	switch outcome {
	case outcomeCompleted:
		s.Completed++
	case outcomeRetry:
		s.Retried++
	case outcomeFailed:
		s.Failed++
	case outcomeCancelled:
		s.Cancelled++
	default:
		s.Skipped++
	}
}

// Failure describes a failed attempt on a processing deduction.
type Failure struct {
	Reason               string
	GatewayTransactionID string
	// Ledger writes a failed deduction_transactions row with the transition.
	Ledger bool
	// OutcomeUnknown marks attempts the gateway may have captured (timeouts,
	// transport errors, stuck rows). The charge key is kept for the retry.
	OutcomeUnknown bool
}
