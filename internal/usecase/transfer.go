package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openlistings/claimsvc/internal/repository"
)

// OwnershipTransfer binds a just-verified claimant to a company: look up or
// create the account, flip the claimed flag, attach the owner profile.
type OwnershipTransfer struct {
	accounts  repository.AccountRepository
	companies repository.CompanyRepository
	logger    *slog.Logger
}

func NewOwnershipTransfer(accounts repository.AccountRepository, companies repository.CompanyRepository, logger *slog.Logger) *OwnershipTransfer {
	return &OwnershipTransfer{
		accounts:  accounts,
		companies: companies,
		logger:    logger.With("component", "ownership_transfer"),
	}
}

// Transfer is retry-safe: a second invocation for a company this account
// already claimed reports success without mutating anything, because
// CompanyRepository.Claim treats same-owner as a no-op and the profile
// upsert is idempotent.
func (t *OwnershipTransfer) Transfer(ctx context.Context, companyID, emailAddr string) (string, error) {
	account, err := t.accounts.FindOrCreate(ctx, emailAddr)
	if err != nil {
		return "", fmt.Errorf("provision account: %w", err)
	}

	if err := t.companies.Claim(ctx, companyID, account.ID); err != nil {
		return "", err
	}

	if err := t.accounts.EnsureOwnerProfile(ctx, account.ID, companyID); err != nil {
		return "", fmt.Errorf("attach owner profile: %w", err)
	}

	t.logger.InfoContext(ctx, "company claimed", "company_id", companyID, "account_id", account.ID)
	return account.ID, nil
}
