package http

import (
	"errors"
	"net/http"

	"credlio-backend/internal/domain/borrower"
	"credlio-backend/internal/domain/deduction"
	"credlio-backend/internal/domain/loan"
	"credlio-backend/internal/domain/mandate"
	"credlio-backend/internal/domain/notification"
	"credlio-backend/internal/domain/paymentmethod"
	"credlio-backend/internal/domain/repayment"
	"credlio-backend/internal/domain/schedule"
	"credlio-backend/internal/domain/score"
	"credlio-backend/internal/domain/webhook"
	borrowerUC "credlio-backend/internal/usecase/borrower"
	"credlio-backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

var (
	errForbidden       = errors.New("forbidden")
	errMissingBorrower = errors.New("borrower_id is required")
)

type errorMapping struct {
	status  int
	targets []error
}

// checked in order; the first match wins
var errorTable = []errorMapping{
	{http.StatusBadRequest, []error{
		loan.ErrInvalidInput, mandate.ErrInvalidInput, paymentmethod.ErrInvalidInput,
		repayment.ErrInvalidInput, borrowerUC.ErrInvalidInput, webhook.ErrMalformedPayload,
		errMissingBorrower,
	}},
	{http.StatusUnauthorized, []error{webhook.ErrInvalidSignature}},
	{http.StatusForbidden, []error{loan.ErrForbidden, mandate.ErrForbidden, errForbidden}},
	{http.StatusNotFound, []error{
		loan.ErrNotFound, mandate.ErrNotFound, paymentmethod.ErrNotFound, borrower.ErrNotFound,
		notification.ErrNotFound, schedule.ErrNotFound, score.ErrNotFound, deduction.ErrNotFound,
	}},
	{http.StatusConflict, []error{
		loan.ErrInvalidTransition, loan.ErrOpenRequestExists, borrower.ErrAlreadyOnboarded,
		borrower.ErrInvalidTransition, score.ErrVersionConflict, score.ErrAlreadySeeded,
		mandate.ErrNotActive, paymentmethod.ErrNotUsable, deduction.ErrDuplicate,
	}},
}

func statusFor(err error) int {
	for _, m := range errorTable {
		for _, target := range m.targets {
			if errors.Is(err, target) {
				return m.status
			}
		}
	}
	return http.StatusInternalServerError
}

// writeError maps a usecase error onto the ErrorResponse payload. Server
// errors are reported without internals.
func writeError(c echo.Context, log *logger.Logger, err error) error {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		if log != nil {
			log.Error(c.Request().Context(), "request failed", err)
		}
		msg = "internal error"
	}
	return c.JSON(status, ErrorResponse{Error: msg})
}

func invalidBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
}

func validationFailed(c echo.Context, err error) error {
	return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation failed",
		Details: ToFieldErrors(err),
	})
}
