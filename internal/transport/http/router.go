package httptransport

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/openlistings/claimsvc/internal/transport/http/handler"
	"github.com/openlistings/claimsvc/internal/transport/http/middleware"

	sloggin "github.com/samber/slog-gin"
)

func NewRouter(
	logger *slog.Logger,
	claimHandler *handler.ClaimHandler,
	listingHandler *handler.ListingHandler,
	accountHandler *handler.AccountHandler,
	jwtKey []byte,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	// Public listing + claim flow
	listings := r.Group("/listings")
	listings.GET("/:id", listingHandler.GetByID)
	listings.POST("/:id/claim/request", claimHandler.RequestCode)
	listings.POST("/:id/claim/verify", claimHandler.VerifyAndClaim)

	// Owner routes, protected by the session JWT issued on claim
	accounts := r.Group("/accounts", middleware.Auth(jwtKey))
	accounts.GET("/me", accountHandler.Me)

	return r
}
