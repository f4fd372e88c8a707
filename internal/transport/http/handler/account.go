package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openlistings/claimsvc/internal/domain"
	"github.com/openlistings/claimsvc/internal/repository"
)

type AccountHandler struct {
	accounts repository.AccountRepository
	logger   *slog.Logger
}

func NewAccountHandler(accounts repository.AccountRepository, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		logger:   logger.With("component", "account_handler"),
	}
}

type accountResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// GET /accounts/me
// Requires the session JWT issued by a successful claim.
func (h *AccountHandler) Me(c *gin.Context) {
	accountID := c.GetString("accountID")

	account, err := h.accounts.FindByID(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "get account", "account_id", accountID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, accountResponse{
		ID:        account.ID,
		Email:     account.Email,
		CreatedAt: account.CreatedAt,
	})
}
