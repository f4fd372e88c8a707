package repository

import (
	"context"

	"github.com/openlistings/claimsvc/internal/domain"
)

type CompanyRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Company, error)

	// Claim flips the company to claimed and binds it to accountID, but only
	// if it is not claimed yet. Returns nil when the transition happened or
	// when the company is already claimed by the same account (client retry);
	// ErrCompanyClaimed when another account owns it. Never overwrites an
	// existing owner.
	Claim(ctx context.Context, companyID, accountID string) error
}
