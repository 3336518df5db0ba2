// Package square charges stored cards through the Square Payments API.
package square

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"credlio-backend/internal/domain/gateway"
	"credlio-backend/pkg/logger"

	sq "github.com/square/square-go-sdk"
	sqclient "github.com/square/square-go-sdk/client"
	sqcore "github.com/square/square-go-sdk/core"
	sqoption "github.com/square/square-go-sdk/option"
)

const (
	statusCompleted = "COMPLETED"
	statusApproved  = "APPROVED"

	categoryPaymentMethod = "PAYMENT_METHOD_ERROR"
)

var _ gateway.Charger = (*Charger)(nil)

type paymentsAPI interface {
	Create(ctx context.Context, req *sq.CreatePaymentRequest, opts ...sqoption.RequestOption) (*sq.CreatePaymentResponse, error)
}

type Config struct {
	BaseURL     string
	AccessToken string
	LocationID  string
}

type Charger struct {
	payments   paymentsAPI
	locationID string
	log        *logger.Logger
}

func NewCharger(cfg Config, log *logger.Logger) (*Charger, error) {
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return nil, gateway.ErrNotConfigured
	}
	if log == nil {
		log = logger.Nop()
	}
	opts := []sqoption.RequestOption{sqoption.WithToken(token)}
	if cfg.BaseURL != "" {
		opts = append(opts, sqoption.WithBaseURL(cfg.BaseURL))
	}
	sdk := sqclient.NewClient(opts...)
	return &Charger{payments: sdk.Payments, locationID: cfg.LocationID, log: log}, nil
}

// Charge creates an autocompleted card-on-file payment. Card-level declines
// come back as an unsuccessful result; transport and auth problems as errors.
func (c *Charger) Charge(ctx context.Context, req gateway.ChargeRequest) (gateway.ChargeResult, error) {
	if req.CardToken == "" {
		return gateway.ChargeResult{}, errors.New("card token is required")
	}
	ctx = c.log.WithFields(ctx, map[string]any{
		"idempotency_key": req.IdempotencyKey,
		"reference_id":    req.ReferenceID,
		"amount":          req.AmountMinor,
	})

	resp, err := c.payments.Create(ctx, c.toSquareRequest(req))
	if err != nil {
		if reason, declined := declineReason(err); declined {
			c.log.Warn(ctx, "square payment declined: "+reason)
			return gateway.ChargeResult{Success: false, Status: "FAILED", FailureReason: reason}, nil
		}
		c.log.Error(ctx, "square create payment", err)
		return gateway.ChargeResult{}, fmt.Errorf("square create payment: %w", err)
	}

	p := resp.GetPayment()
	res := gateway.ChargeResult{
		TransactionID: stringValue(p.GetID()),
		Status:        stringValue(p.GetStatus()),
	}
	switch res.Status {
	case statusCompleted, statusApproved:
		res.Success = true
	default:
		res.FailureReason = "payment " + strings.ToLower(res.Status)
	}
	c.log.Info(ctx, "square payment "+res.Status)
	return res, nil
}

func (c *Charger) toSquareRequest(req gateway.ChargeRequest) *sq.CreatePaymentRequest {
	currency := sq.Currency(strings.ToUpper(req.Currency))
	amount := req.AmountMinor
	autocomplete := true
	out := &sq.CreatePaymentRequest{
		IdempotencyKey: req.IdempotencyKey,
		SourceID:       req.CardToken,
		AmountMoney:    &sq.Money{Amount: &amount, Currency: &currency},
		Autocomplete:   &autocomplete,
		CustomerID:     ptrString(req.CustomerRef),
		LocationID:     ptrString(c.locationID),
		ReferenceID:    ptrString(req.ReferenceID),
	}
	if req.MandateReference != "" {
		out.Note = ptrString("mandate " + req.MandateReference)
	}
	return out
}

// declineReason reports whether err is a card-level rejection and, if so, its
// Square error code and detail.
func declineReason(err error) (string, bool) {
	var apiErr *sqcore.APIError
	if !errors.As(err, &apiErr) {
		return "", false
	}
	for _, e := range squareErrors(apiErr) {
		if e == nil || string(e.Category) != categoryPaymentMethod {
			continue
		}
		reason := string(e.Code)
		if d := stringValue(e.Detail); d != "" {
			reason += ": " + d
		}
		return reason, true
	}
	return "", false
}

func squareErrors(apiErr *sqcore.APIError) []*sq.Error {
	inner := apiErr.Unwrap()
	if inner == nil {
		return nil
	}
	var payload struct {
		Errors []*sq.Error `json:"errors"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(inner.Error())), &payload); err != nil {
		return nil
	}
	return payload.Errors
}

func ptrString(v string) *string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}

func stringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
