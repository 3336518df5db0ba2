package http

import (
	"net/http"
	"time"

	"credlio-backend/internal/usecase/borrower"
	"credlio-backend/internal/usecase/score"
	"credlio-backend/pkg/auth"
	"credlio-backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

type BorrowerHandler struct {
	borrowers *borrower.Usecase
	scores    *score.Usecase
	log       *logger.Logger
}

func NewBorrowerHandler(borrowers *borrower.Usecase, scores *score.Usecase, log *logger.Logger) *BorrowerHandler {
	return &BorrowerHandler{borrowers: borrowers, scores: scores, log: log}
}

type onboardReq struct {
	BorrowerID       string     `json:"borrower_id"`
	CreditLimitMinor int64      `json:"credit_limit_minor" validate:"gte=0"`
	AccountCreatedAt *time.Time `json:"account_created_at"`
}

func (h *BorrowerHandler) Onboard(c echo.Context) error {
	var req onboardReq
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
	in := borrower.OnboardInput{BorrowerID: borrowerID, CreditLimitMinor: req.CreditLimitMinor}
	if req.AccountCreatedAt != nil {
		in.AccountCreatedAt = *req.AccountCreatedAt
	}
	dto, err := h.borrowers.Onboard(c.Request().Context(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

type kycReq struct {
	Approved *bool `json:"approved" validate:"required"`
}

func (h *BorrowerHandler) VerifyKYC(c echo.Context) error {
	var req kycReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	dto, err := h.borrowers.VerifyKYC(c.Request().Context(), c.Param("borrower_id"), *req.Approved)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// GetScore is readable by the borrower, lenders and admins.
func (h *BorrowerHandler) GetScore(c echo.Context) error {
	borrowerID := c.Param("borrower_id")
	a := actorOf(c)
	if a.Role == auth.RoleBorrower && a.UserID != borrowerID {
		return writeError(c, h.log, errForbidden)
	}
	dto, err := h.scores.Get(c.Request().Context(), borrowerID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// RefreshScore recomputes on demand; borrowers may refresh only their own.
func (h *BorrowerHandler) RefreshScore(c echo.Context) error {
	borrowerID := c.Param("borrower_id")
	a := actorOf(c)
	if !a.IsAdmin() && a.UserID != borrowerID {
		return writeError(c, h.log, errForbidden)
	}
	dto, err := h.scores.Refresh(c.Request().Context(), borrowerID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}
