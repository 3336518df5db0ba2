package middleware

import (
	"net/http"
	"strings"

	"credlio-backend/pkg/auth"
	"credlio-backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

const claimsKey = "auth.claims"

// JWTAuth verifies the bearer token and stores its claims on the context.
func JWTAuth(v *auth.Verifier, log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing credentials"})
			}
			claims, err := v.Parse(token)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			}
			c.Set(claimsKey, claims)
			if log != nil {
				ctx := log.WithFields(c.Request().Context(), map[string]any{
					"user_id":    claims.UserID(),
					"actor_role": string(claims.Role),
				})
				c.SetRequest(c.Request().WithContext(ctx))
			}
			return next(c)
		}
	}
}

// RequireRole rejects callers whose role is not listed.
func RequireRole(roles ...auth.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ClaimsFrom(c)
			if claims == nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing credentials"})
			}
			for _, r := range roles {
				if claims.Role == r {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, map[string]string{"error": "role not permitted"})
		}
	}
}

// ClaimsFrom returns the verified claims, or nil on unauthenticated routes.
func ClaimsFrom(c echo.Context) *auth.Claims {
	claims, _ := c.Get(claimsKey).(*auth.Claims)
	return claims
}

// SetClaims is used by tests that bypass JWTAuth.
func SetClaims(c echo.Context, claims *auth.Claims) { c.Set(claimsKey, claims) }
