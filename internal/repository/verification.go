package repository

import (
	"context"
	"time"
)

// VerificationStore maps (companyID, email) to a live verification code.
// Implementations must make Consume an atomic check-and-delete: two
// concurrent Consume calls for the same pair must never both succeed.
type VerificationStore interface {
	// Put stores code for the pair with an absolute expiry of now+ttl,
	// superseding any previous live entry for the same pair.
	Put(ctx context.Context, companyID, email, code string, ttl time.Duration) error

	// Consume atomically deletes the entry and returns true only when one
	// exists for the pair, its code matches exactly, and it has not expired.
	// Any other condition returns false with no state change.
	Consume(ctx context.Context, companyID, email, code string) (bool, error)

	// Delete removes any entry for the pair, live or expired.
	Delete(ctx context.Context, companyID, email string) error

	// DeleteExpired removes entries whose expiry is at or before the cutoff
	// and returns how many were removed.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
