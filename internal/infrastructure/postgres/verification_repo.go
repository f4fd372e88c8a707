package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openlistings/claimsvc/internal/domain"
)

// VerificationRepository is the durable backend of the verification store.
// One row per (company_id, email); issuing a new code overwrites the old row.
type VerificationRepository struct {
	pool *pgxpool.Pool
}

func NewVerificationRepository(pool *pgxpool.Pool) *VerificationRepository {
	return &VerificationRepository{pool: pool}
}

func (r *VerificationRepository) Put(ctx context.Context, companyID, email, code string, ttl time.Duration) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO claim_verifications (company_id, email, code, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (company_id, email) DO UPDATE
		SET code = EXCLUDED.code, expires_at = EXCLUDED.expires_at, created_at = NOW()`,
		companyID, email, code, time.Now().Add(ttl),
	)
	if err != nil {
		return &domain.DependencyError{Dependency: "postgres", Err: fmt.Errorf("store verification code: %w", err)}
	}
	return nil
}

// Consume is a single conditional delete: match, expiry check and removal
// happen in one statement, so concurrent submissions of the same code can
// never both succeed.
func (r *VerificationRepository) Consume(ctx context.Context, companyID, email, code string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM claim_verifications
		WHERE company_id = $1 AND email = $2 AND code = $3 AND expires_at > NOW()`,
		companyID, email, code,
	)
	if err != nil {
		return false, &domain.DependencyError{Dependency: "postgres", Err: fmt.Errorf("consume verification code: %w", err)}
	}
	return tag.RowsAffected() == 1, nil
}

func (r *VerificationRepository) Delete(ctx context.Context, companyID, email string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM claim_verifications WHERE company_id = $1 AND email = $2`,
		companyID, email,
	)
	if err != nil {
		return &domain.DependencyError{Dependency: "postgres", Err: fmt.Errorf("delete verification code: %w", err)}
	}
	return nil
}

func (r *VerificationRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM claim_verifications WHERE expires_at <= $1`, cutoff,
	)
	if err != nil {
		return 0, &domain.DependencyError{Dependency: "postgres", Err: fmt.Errorf("delete expired codes: %w", err)}
	}
	return tag.RowsAffected(), nil
}
