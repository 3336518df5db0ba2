package middleware

import (
	"context"

	"credlio-backend/pkg/logger"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// RequestLogger tags the request context with its id and writes one line per
// request through the service logger.
func RequestLogger(log *logger.Logger) echo.MiddlewareFunc {
	tag := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			if rid != "" {
				c.SetRequest(c.Request().WithContext(log.WithRequestID(c.Request().Context(), rid)))
			}
			return next(c)
		}
	}
	write := echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			ctx := log.WithFields(context.Background(), map[string]any{
				"method":      v.Method,
				"uri":         v.URI,
				"status":      v.Status,
				"duration_ms": v.Latency.Milliseconds(),
				"remote_ip":   v.RemoteIP,
				"request_id":  v.RequestID,
			})
			if v.Error != nil {
				log.Error(ctx, "request.complete", v.Error)
				return nil
			}
			log.Info(ctx, "request.complete")
			return nil
		},
	})
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return tag(write(next))
	}
}
