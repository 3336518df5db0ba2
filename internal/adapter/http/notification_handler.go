package http

import (
	"net/http"
	"strconv"

	"credlio-backend/internal/usecase/notification"
	"credlio-backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

type NotificationHandler struct {
	uc  *notification.Usecase
	log *logger.Logger
}

func NewNotificationHandler(uc *notification.Usecase, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{uc: uc, log: log}
}

// List returns the caller's notifications, newest first.
// Query: unread=true, limit=N.
func (h *NotificationHandler) List(c echo.Context) error {
	unread, _ := strconv.ParseBool(c.QueryParam("unread"))
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a non-negative integer"})
		}
		limit = n
	}
	rows, err := h.uc.List(c.Request().Context(), actorOf(c).UserID, unread, limit)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"notifications": rows})
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	if err := h.uc.MarkRead(c.Request().Context(), c.Param("notification_id"), actorOf(c).UserID); err != nil {
		return writeError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
