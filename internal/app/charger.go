package app

import (
	"context"
	"errors"

	"credlio-backend/internal/adapter/gateway/square"
	"credlio-backend/internal/config"
	"credlio-backend/internal/domain/gateway"
	"credlio-backend/pkg/logger"
)

// NewCharger returns the Square charger, or nil when no access token is
// configured. A nil charger leaves deductions untouched.
func NewCharger(cfg config.GatewayConfig, log *logger.Logger) gateway.Charger {
	c, err := square.NewCharger(square.Config{
		BaseURL:     cfg.BaseURL,
		AccessToken: cfg.AccessToken,
		LocationID:  cfg.LocationID,
	}, log)
	if err != nil {
		if log != nil && !errors.Is(err, gateway.ErrNotConfigured) {
			log.Error(context.Background(), "square charger", err)
		}
		return nil
	}
	return c
}
