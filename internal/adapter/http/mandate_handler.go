package http

import (
	"net/http"
	"time"

	domain "credlio-backend/internal/domain/mandate"
	"credlio-backend/internal/usecase/mandate"
	"credlio-backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

type MandateHandler struct {
	uc  *mandate.Usecase
	log *logger.Logger
}

func NewMandateHandler(uc *mandate.Usecase, log *logger.Logger) *MandateHandler {
	return &MandateHandler{uc: uc, log: log}
}

type registerPaymentMethodReq struct {
	BorrowerID  string `json:"borrower_id"`
	CardToken   string `json:"card_token"   validate:"required,lte=255"`
	CustomerRef string `json:"customer_ref" validate:"lte=255"`
	Brand       string `json:"brand"        validate:"lte=32"`
	Last4       string `json:"last4"        validate:"omitempty,len=4,numeric"`
}

func (h *MandateHandler) RegisterPaymentMethod(c echo.Context) error {
	var req registerPaymentMethodReq
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
	dto, err := h.uc.RegisterPaymentMethod(c.Request().Context(), mandate.RegisterPaymentMethodInput{
		BorrowerID:  borrowerID,
		CardToken:   req.CardToken,
		CustomerRef: req.CustomerRef,
		Brand:       req.Brand,
		Last4:       req.Last4,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

type createMandateReq struct {
	LoanID          string `json:"loan_id"           validate:"required,hex32"`
	PaymentMethodID string `json:"payment_method_id" validate:"required,hex32"`
	Frequency       string `json:"frequency"         validate:"required,oneof=weekly biweekly monthly"`
	DeductionDay    int    `json:"deduction_day"     validate:"gte=0,lte=31"`
	AmountMinor     int64  `json:"amount_minor"      validate:"gte=0"`
	// Accept canonical date `YYYY-MM-DD`
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
}

func (h *MandateHandler) CreateMandate(c echo.Context) error {
	var req createMandateReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	in := mandate.CreateMandateInput{
		LoanID:          req.LoanID,
		PaymentMethodID: req.PaymentMethodID,
		Frequency:       domain.Frequency(req.Frequency),
		DeductionDay:    req.DeductionDay,
		AmountMinor:     req.AmountMinor,
	}
	if req.StartDate != "" {
		in.StartDate, _ = time.Parse(time.DateOnly, req.StartDate)
	}
	a := actorOf(c)
	dto, err := h.uc.Create(c.Request().Context(), in, a.UserID, a.Role)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *MandateHandler) GetMandate(c echo.Context) error {
	a := actorOf(c)
	dto, err := h.uc.Get(c.Request().Context(), c.Param("mandate_id"), a.UserID, a.Role)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *MandateHandler) CancelMandate(c echo.Context) error {
	a := actorOf(c)
	dto, err := h.uc.Cancel(c.Request().Context(), c.Param("mandate_id"), a.UserID, a.Role)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *MandateHandler) ListDeductions(c echo.Context) error {
	a := actorOf(c)
	rows, err := h.uc.ListDeductions(c.Request().Context(), c.Param("mandate_id"), a.UserID, a.Role)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"deductions": rows})
}
