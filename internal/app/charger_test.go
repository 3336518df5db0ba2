package app

import (
	"testing"

	"credlio-backend/internal/config"
	"credlio-backend/pkg/logger"
)

func TestNewCharger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.GatewayConfig
		wantNil bool
	}{
		{name: "no token", cfg: config.GatewayConfig{}, wantNil: true},
		{name: "blank token", cfg: config.GatewayConfig{AccessToken: "   "}, wantNil: true},
		{
			name: "configured",
			cfg: config.GatewayConfig{
				BaseURL:     "https://connect.squareupsandbox.com",
				AccessToken: "sandbox-token",
				LocationID:  "L1",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewCharger(tt.cfg, logger.Nop())
			if (got == nil) != tt.wantNil {
				t.Fatalf("NewCharger nil=%v, want nil=%v", got == nil, tt.wantNil)
			}
		})
	}
}
