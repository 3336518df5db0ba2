package gatewaymock

import (
	"context"
	"strconv"
	"sync"

	"credlio-backend/internal/domain/gateway"
)

var _ gateway.Charger = (*Charger)(nil)

// Charger records every request. ChargeFn decides the outcome; when nil the
// charge succeeds with transaction id "tx-<n>".
type Charger struct {
	mu       sync.Mutex
	ChargeFn func(ctx context.Context, req gateway.ChargeRequest) (gateway.ChargeResult, error)
	requests []gateway.ChargeRequest
}

func (c *Charger) Charge(ctx context.Context, req gateway.ChargeRequest) (gateway.ChargeResult, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	n := len(c.requests)
	fn := c.ChargeFn
	c.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return gateway.ChargeResult{Success: true, TransactionID: "tx-" + strconv.Itoa(n), Status: "COMPLETED"}, nil
}

func (c *Charger) Requests() []gateway.ChargeRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]gateway.ChargeRequest, len(c.requests))
	copy(out, c.requests)
	return out
}
