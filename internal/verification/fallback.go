package verification

import (
	"context"
	"log/slog"
	"time"

	"github.com/openlistings/claimsvc/internal/infrastructure/memory"
	"github.com/openlistings/claimsvc/internal/metrics"
	"github.com/openlistings/claimsvc/internal/repository"
)

// FallbackStore is a verification store with a durable primary and an
// in-process secondary. Exactly one backend is authoritative for a pair at
// any moment:
//
//   - Put prefers the durable store; on success the memory entry for the
//     pair (left over from an earlier outage) is cleared. On failure the
//     code goes to memory instead, and memory owns the pair.
//   - Consume goes to whichever backend owns the pair. Memory owns it only
//     while it holds a live entry; otherwise the durable store is asked,
//     falling back to memory only when the durable read itself fails.
//
// Call sites never learn which backend served them.
type FallbackStore struct {
	durable repository.VerificationStore // nil when Postgres never came up
	mem     *memory.Store
	logger  *slog.Logger
}

func NewFallbackStore(durable repository.VerificationStore, mem *memory.Store, logger *slog.Logger) *FallbackStore {
	return &FallbackStore{
		durable: durable,
		mem:     mem,
		logger:  logger.With("component", "verification_store"),
	}
}

func (s *FallbackStore) Put(ctx context.Context, companyID, email, code string, ttl time.Duration) error {
	if s.durable != nil {
		err := s.durable.Put(ctx, companyID, email, code, ttl)
		if err == nil {
			// Durable write supersedes any fallback-era entry for the pair.
			_ = s.mem.Delete(ctx, companyID, email)
			return nil
		}
		s.logger.WarnContext(ctx, "durable store write failed, using in-process store",
			"company_id", companyID, "error", err)
	}

	metrics.StoreFallbackTotal.WithLabelValues("put").Inc()
	return s.mem.Put(ctx, companyID, email, code, ttl)
}

func (s *FallbackStore) Consume(ctx context.Context, companyID, email, code string) (bool, error) {
	if s.mem.Live(companyID, email) {
		// The durable store never saw this code; memory is authoritative.
		metrics.StoreFallbackTotal.WithLabelValues("consume").Inc()
		ok, _ := s.mem.Consume(ctx, companyID, email, code)
		if ok && s.durable != nil {
			// Clear any stale durable row superseded during the outage.
			if err := s.durable.Delete(ctx, companyID, email); err != nil {
				s.logger.WarnContext(ctx, "clear superseded durable code", "error", err)
			}
		}
		return ok, nil
	}

	if s.durable == nil {
		return s.mem.Consume(ctx, companyID, email, code)
	}

	ok, err := s.durable.Consume(ctx, companyID, email, code)
	if err != nil {
		s.logger.WarnContext(ctx, "durable store read failed, checking in-process store",
			"company_id", companyID, "error", err)
		metrics.StoreFallbackTotal.WithLabelValues("consume").Inc()
		return s.mem.Consume(ctx, companyID, email, code)
	}
	return ok, nil
}

func (s *FallbackStore) Delete(ctx context.Context, companyID, email string) error {
	if err := s.mem.Delete(ctx, companyID, email); err != nil {
		return err
	}
	if s.durable == nil {
		return nil
	}
	return s.durable.Delete(ctx, companyID, email)
}

func (s *FallbackStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	n, _ := s.mem.DeleteExpired(ctx, cutoff)
	metrics.ReapedCodesTotal.WithLabelValues("memory").Add(float64(n))

	if s.durable == nil {
		return n, nil
	}

	m, err := s.durable.DeleteExpired(ctx, cutoff)
	if err != nil {
		return n, err
	}
	metrics.ReapedCodesTotal.WithLabelValues("postgres").Add(float64(m))
	return n + m, nil
}
