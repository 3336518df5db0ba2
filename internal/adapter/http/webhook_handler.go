package http

import (
	"io"
	"net/http"

	"credlio-backend/internal/usecase/webhook"
	"credlio-backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

const (
	HeaderGatewaySignature = "X-Gateway-Signature"

	maxWebhookBody = 1 << 20
)

type WebhookHandler struct {
	uc  *webhook.Usecase
	log *logger.Logger
}

func NewWebhookHandler(uc *webhook.Usecase, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{uc: uc, log: log}
}

// Receive acknowledges a gateway delivery. Non-2xx answers make the gateway
// redeliver, so only server-side failures return 5xx.
func (h *WebhookHandler) Receive(c echo.Context) error {
	req := c.Request()
	body, err := io.ReadAll(io.LimitReader(req.Body, maxWebhookBody))
	if err != nil {
		return invalidBody(c)
	}
	res, err := h.uc.Handle(req.Context(), webhook.Delivery{
		Body:      body,
		Signature: req.Header.Get(HeaderGatewaySignature),
		SourceIP:  c.RealIP(),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, res)
}
