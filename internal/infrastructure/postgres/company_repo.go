package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openlistings/claimsvc/internal/domain"
)

type CompanyRepository struct {
	pool *pgxpool.Pool
}

func NewCompanyRepository(pool *pgxpool.Pool) *CompanyRepository {
	return &CompanyRepository{pool: pool}
}

func (r *CompanyRepository) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	query := `
		SELECT id, name, is_claimed, claimed_by, created_at, updated_at
		FROM companies
		WHERE id = $1`

	var c domain.Company
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.IsClaimed, &c.ClaimedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCompanyNotFound
		}
		return nil, &domain.DependencyError{Dependency: "postgres", Err: fmt.Errorf("get company: %w", err)}
	}
	return &c, nil
}

// Claim performs the conditional false→true transition. The WHERE clause is
// the guard: an already-claimed row is never updated.
func (r *CompanyRepository) Claim(ctx context.Context, companyID, accountID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE companies
		SET    is_claimed = TRUE,
		       claimed_by = $2,
		       updated_at = NOW()
		WHERE  id = $1 AND is_claimed = FALSE`,
		companyID, accountID,
	)
	if err != nil {
		return &domain.DependencyError{Dependency: "postgres", Err: fmt.Errorf("claim company: %w", err)}
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// No transition: either missing, or already claimed. A retry by the same
	// account after a timed-out first attempt reports success.
	var claimedBy *string
	err = r.pool.QueryRow(ctx,
		`SELECT claimed_by FROM companies WHERE id = $1`, companyID,
	).Scan(&claimedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrCompanyNotFound
		}
		return &domain.DependencyError{Dependency: "postgres", Err: fmt.Errorf("recheck company: %w", err)}
	}
	if claimedBy != nil && *claimedBy == accountID {
		return nil
	}
	return domain.ErrCompanyClaimed
}
