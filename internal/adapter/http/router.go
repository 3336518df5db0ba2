package http

import (
	stdhttp "net/http"
	"time"

	"credlio-backend/internal/adapter/middleware"
	"credlio-backend/pkg/auth"
	"credlio-backend/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

type Handlers struct {
	Health        *Handler
	Borrowers     *BorrowerHandler
	Loans         *LoanHandler
	Mandates      *MandateHandler
	Notifications *NotificationHandler
	Webhooks      *WebhookHandler
}

type RouteOptions struct {
	Verifier *auth.Verifier
	// Redis enables the idempotency middleware on authenticated writes.
	Redis          redis.Cmdable
	IdempotencyTTL time.Duration
	Metrics        stdhttp.Handler
	Log            *logger.Logger
}

// Register mounts every route on e. Webhooks authenticate by signature,
// everything else by bearer token.
func Register(e *echo.Echo, h Handlers, opts RouteOptions) {
	e.GET("/health", h.Health.Health)
	if opts.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(opts.Metrics))
	}
	e.POST("/webhooks/gateway", h.Webhooks.Receive)

	api := e.Group("", middleware.JWTAuth(opts.Verifier, opts.Log))
	if opts.Redis != nil {
		api.Use(middleware.Idempotency(opts.Redis, opts.IdempotencyTTL, opts.Log))
	}

	borrowerOrAdmin := middleware.RequireRole(auth.RoleBorrower, auth.RoleAdmin)
	lenderOrAdmin := middleware.RequireRole(auth.RoleLender, auth.RoleAdmin)

	api.POST("/borrowers", h.Borrowers.Onboard, borrowerOrAdmin)
	api.POST("/borrowers/:borrower_id/kyc", h.Borrowers.VerifyKYC, middleware.RequireRole(auth.RoleAdmin))
	api.GET("/borrowers/:borrower_id/score", h.Borrowers.GetScore)
	api.POST("/borrowers/:borrower_id/score/refresh", h.Borrowers.RefreshScore)

	api.POST("/loans", h.Loans.CreateLoan, borrowerOrAdmin)
	api.GET("/loans/:loan_id", h.Loans.GetLoan)
	api.GET("/loans/:loan_id/schedule", h.Loans.Schedule)
	api.POST("/loans/:loan_id/offer", h.Loans.Offer, middleware.RequireRole(auth.RoleLender))
	api.POST("/loans/:loan_id/reject", h.Loans.Reject, lenderOrAdmin)
	api.POST("/loans/:loan_id/cancel", h.Loans.Cancel, borrowerOrAdmin)
	api.POST("/loans/:loan_id/activate", h.Loans.Activate, lenderOrAdmin)
	api.POST("/loans/:loan_id/repayments", h.Loans.RecordRepayment)

	api.POST("/payment-methods", h.Mandates.RegisterPaymentMethod, borrowerOrAdmin)
	api.POST("/mandates", h.Mandates.CreateMandate, borrowerOrAdmin)
	api.GET("/mandates/:mandate_id", h.Mandates.GetMandate)
	api.POST("/mandates/:mandate_id/cancel", h.Mandates.CancelMandate)
	api.GET("/mandates/:mandate_id/deductions", h.Mandates.ListDeductions)

	api.GET("/notifications", h.Notifications.List)
	api.POST("/notifications/:notification_id/read", h.Notifications.MarkRead)
}
