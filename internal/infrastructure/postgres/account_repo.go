package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openlistings/claimsvc/internal/domain"
)

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func (r *AccountRepository) FindOrCreate(ctx context.Context, email string) (*domain.Account, error) {
	// The no-op DO UPDATE makes RETURNING yield the existing row on conflict.
	query := `
		INSERT INTO accounts (id, email)
		VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET updated_at = NOW()
		RETURNING id, email, created_at, updated_at`

	var a domain.Account
	err := r.pool.QueryRow(ctx, query, uuid.NewString(), email).Scan(
		&a.ID, &a.Email, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, &domain.DependencyError{Dependency: "postgres", Err: fmt.Errorf("find or create account: %w", err)}
	}
	return &a, nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT id, email, created_at, updated_at FROM accounts WHERE id = $1`

	var a domain.Account
	err := r.pool.QueryRow(ctx, query, id).Scan(&a.ID, &a.Email, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, &domain.DependencyError{Dependency: "postgres", Err: fmt.Errorf("find account: %w", err)}
	}
	return &a, nil
}

func (r *AccountRepository) EnsureOwnerProfile(ctx context.Context, accountID, companyID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_profiles (account_id, company_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id, company_id) DO NOTHING`,
		accountID, companyID, domain.RoleOwner,
	)
	if err != nil {
		return &domain.DependencyError{Dependency: "postgres", Err: fmt.Errorf("upsert owner profile: %w", err)}
	}
	return nil
}
