package http

import (
	"context"
	"net/http"
	"time"

	"credlio-backend/internal/domain/repayment"
	"credlio-backend/internal/usecase/loan"
	repaymentUC "credlio-backend/internal/usecase/repayment"
	"credlio-backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

type LoanHandler struct {
	loans      *loan.Usecase
	repayments *repaymentUC.Usecase
	log        *logger.Logger
}

func NewLoanHandler(loans *loan.Usecase, repayments *repaymentUC.Usecase, log *logger.Logger) *LoanHandler {
	return &LoanHandler{loans: loans, repayments: repayments, log: log}
}

type createLoanReq struct {
	BorrowerID     string `json:"borrower_id"`
	PrincipalMinor int64  `json:"principal_minor" validate:"gt=0"`
	AprBps         int    `json:"apr_bps"         validate:"gte=0,lte=100000"`
	TermMonths     int    `json:"term_months"     validate:"gte=1,lte=600"`
	Currency       string `json:"currency"        validate:"required,currency"`
	Purpose        string `json:"purpose"         validate:"lte=64"`
}

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req createLoanReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	borrowerID, err := subjectFor(actorOf(c), req.BorrowerID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	dto, err := h.loans.Create(c.Request().Context(), loan.CreateLoanInput{
		BorrowerID:     borrowerID,
		PrincipalMinor: req.PrincipalMinor,
		AprBps:         req.AprBps,
		TermMonths:     req.TermMonths,
		Currency:       req.Currency,
		Purpose:        req.Purpose,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	dto, err := h.loans.GetFor(c.Request().Context(), c.Param("loan_id"), actorOf(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) Schedule(c echo.Context) error {
	entries, err := h.loans.Schedule(c.Request().Context(), c.Param("loan_id"), actorOf(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"entries": entries})
}

func (h *LoanHandler) Offer(c echo.Context) error {
	return h.lifecycle(c, h.loans.Offer)
}

func (h *LoanHandler) Reject(c echo.Context) error {
	return h.lifecycle(c, h.loans.Reject)
}

func (h *LoanHandler) Cancel(c echo.Context) error {
	return h.lifecycle(c, h.loans.Cancel)
}

func (h *LoanHandler) Activate(c echo.Context) error {
	res, err := h.loans.Activate(c.Request().Context(), c.Param("loan_id"), actorOf(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, res)
}

type lifecycleFn func(ctx context.Context, loanID string, actor loan.Actor) (*loan.LoanDTO, error)

func (h *LoanHandler) lifecycle(c echo.Context, fn lifecycleFn) error {
	dto, err := fn(c.Request().Context(), c.Param("loan_id"), actorOf(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type recordRepaymentReq struct {
	AmountMinor int64      `json:"amount_minor" validate:"gt=0"`
	PaidAt      *time.Time `json:"paid_at"`
	Method      string     `json:"method"       validate:"omitempty,oneof=manual gateway"`
	ScheduleID  string     `json:"schedule_id"  validate:"omitempty,hex32"`
	Reference   string     `json:"reference"    validate:"lte=128"`
}

func (h *LoanHandler) RecordRepayment(c echo.Context) error {
	var req recordRepaymentReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	in := repaymentUC.RecordInput{
		LoanID:      c.Param("loan_id"),
		AmountMinor: req.AmountMinor,
		Method:      repayment.Method(req.Method),
		ScheduleID:  req.ScheduleID,
		Reference:   req.Reference,
	}
	if req.PaidAt != nil {
		in.PaidAt = *req.PaidAt
	}
	a := actorOf(c)
	dto, err := h.repayments.Record(c.Request().Context(), in, a.UserID, a.Role)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, dto)
}
