package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openlistings/claimsvc/internal/domain"
)

// claimUsecaser is the subset of ClaimUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type claimUsecaser interface {
	RequestCode(ctx context.Context, companyID, email, companyName string) error
	VerifyAndClaim(ctx context.Context, companyID, email, code string) (string, error)
}

type ClaimHandler struct {
	claims claimUsecaser
	logger *slog.Logger
}

func NewClaimHandler(claims claimUsecaser, logger *slog.Logger) *ClaimHandler {
	return &ClaimHandler{
		claims: claims,
		logger: logger.With("component", "claim_handler"),
	}
}

type requestCodeRequest struct {
	Email       string `json:"email"        form:"email"        binding:"required"`
	CompanyName string `json:"company_name" form:"company_name"`
}

type verifyClaimRequest struct {
	Email string `json:"email" form:"email" binding:"required"`
	Code  string `json:"code"  form:"code"  binding:"required"`
}

type claimResponse struct {
	Success bool   `json:"success"`
	Step    string `json:"step,omitempty"`
	Token   string `json:"token,omitempty"`
	Error   string `json:"error,omitempty"`
}

// POST /listings/:id/claim/request
// Accepts JSON or form-encoded bodies (the claim form posts both ways).
func (h *ClaimHandler) RequestCode(c *gin.Context) {
	companyID := c.Param("id")

	var req requestCodeRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, claimResponse{Error: errInvalidEmail})
		return
	}

	err := h.claims.RequestCode(c.Request.Context(), companyID, req.Email, req.CompanyName)
	if err != nil {
		h.writeClaimError(c, err)
		return
	}

	c.JSON(http.StatusOK, claimResponse{Success: true, Step: string(domain.StepVerify)})
}

// POST /listings/:id/claim/verify
func (h *ClaimHandler) VerifyAndClaim(c *gin.Context) {
	companyID := c.Param("id")

	var req verifyClaimRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, claimResponse{Error: errInvalidCode})
		return
	}

	token, err := h.claims.VerifyAndClaim(c.Request.Context(), companyID, req.Email, req.Code)
	if err != nil {
		h.writeClaimError(c, err)
		return
	}

	c.JSON(http.StatusOK, claimResponse{Success: true, Step: string(domain.StepDone), Token: token})
}

func (h *ClaimHandler) writeClaimError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidEmail):
		c.JSON(http.StatusBadRequest, claimResponse{Error: errInvalidEmail})
	case errors.Is(err, domain.ErrInvalidCode):
		c.JSON(http.StatusBadRequest, claimResponse{Error: errInvalidCode})
	case errors.Is(err, domain.ErrCodeRejected):
		c.JSON(http.StatusUnauthorized, claimResponse{Error: errCodeRejected})
	case errors.Is(err, domain.ErrCompanyNotFound):
		c.JSON(http.StatusNotFound, claimResponse{Error: errListingNotFound})
	case errors.Is(err, domain.ErrCompanyClaimed):
		c.JSON(http.StatusConflict, claimResponse{Error: errAlreadyClaimed})
	case domain.IsDependencyError(err):
		h.logger.ErrorContext(c.Request.Context(), "claim dependency failure", "error", err)
		c.JSON(http.StatusServiceUnavailable, claimResponse{Error: errStoreUnavailable})
	default:
		h.logger.ErrorContext(c.Request.Context(), "claim flow", "error", err)
		c.JSON(http.StatusInternalServerError, claimResponse{Error: errInternalServer})
	}
}
