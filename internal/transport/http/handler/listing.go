package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openlistings/claimsvc/internal/domain"
	"github.com/openlistings/claimsvc/internal/repository"
)

type ListingHandler struct {
	companies repository.CompanyRepository
	logger    *slog.Logger
}

func NewListingHandler(companies repository.CompanyRepository, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{
		companies: companies,
		logger:    logger.With("component", "listing_handler"),
	}
}

type listingResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Claimed bool   `json:"claimed"`
}

// GET /listings/:id
// Public lookup. The owner reference stays private.
func (h *ListingHandler) GetByID(c *gin.Context) {
	id := c.Param("id")

	company, err := h.companies.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrCompanyNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errListingNotFound})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "get listing", "listing_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, listingResponse{
		ID:      company.ID,
		Name:    company.Name,
		Claimed: company.IsClaimed,
	})
}
