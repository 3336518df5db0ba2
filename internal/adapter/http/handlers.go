package http

import (
	"context"
	"net/http"
	"time"

	"credlio-backend/internal/adapter/middleware"
	"credlio-backend/internal/usecase/loan"
	"credlio-backend/pkg/auth"

	"github.com/labstack/echo/v4"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck pings one backing dependency.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

type Handler struct {
	checks []HealthCheck
}

func NewHandler(checks ...HealthCheck) *Handler { return &Handler{checks: checks} }

// Health reports "ok" when every dependency answers and "degraded" with 503
// otherwise. Failure details stay in the response map, never the error text.
func (h *Handler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	status, code := "ok", http.StatusOK
	results := make(map[string]string, len(h.checks))
	for _, chk := range h.checks {
		if err := chk.Ping(ctx); err != nil {
			results[chk.Name] = "down"
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		results[chk.Name] = "up"
	}
	return c.JSON(code, map[string]any{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
		"checks": results,
	})
}

// actorOf reads the caller set by JWTAuth; the zero Actor has no rights.
func actorOf(c echo.Context) loan.Actor {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		return loan.Actor{}
	}
	return loan.Actor{UserID: claims.UserID(), Role: claims.Role}
}

// subjectFor resolves which borrower a request is about: admins name one
// explicitly, everyone else acts for themselves.
func subjectFor(a loan.Actor, requested string) (string, error) {
	if a.Role == auth.RoleAdmin {
		if requested == "" {
			return "", errMissingBorrower
		}
		return requested, nil
	}
	if requested != "" && requested != a.UserID {
		return "", errForbidden
	}
	return a.UserID, nil
}
