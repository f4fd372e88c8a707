package repository

import (
	"context"

	"github.com/openlistings/claimsvc/internal/domain"
)

type AccountRepository interface {
	FindOrCreate(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)

	// EnsureOwnerProfile upserts the owner role record binding the account to
	// the company. Safe to call repeatedly.
	EnsureOwnerProfile(ctx context.Context, accountID, companyID string) error
}
