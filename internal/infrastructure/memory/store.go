// Package memory holds the in-process fallback for the verification store.
// It is process-local and non-persistent: good enough for local development
// and for riding out short Postgres outages on a single instance, wrong for
// anything that needs codes to survive a restart or span instances.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/openlistings/claimsvc/internal/domain"
)

type Store struct {
	mu      sync.Mutex
	entries map[string]*domain.ClaimVerification
}

func NewStore() *Store {
	return &Store{entries: make(map[string]*domain.ClaimVerification)}
}

func key(companyID, email string) string {
	return companyID + ":" + email
}

func (s *Store) Put(_ context.Context, companyID, email, code string, ttl time.Duration) error {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key(companyID, email)] = &domain.ClaimVerification{
		CompanyID: companyID,
		Email:     email,
		Code:      code,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	return nil
}

// Consume checks and deletes under one lock acquisition, so at most one of
// any number of concurrent submissions wins.
func (s *Store) Consume(_ context.Context, companyID, email, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(companyID, email)
	entry, ok := s.entries[k]
	if !ok {
		return false, nil
	}
	if entry.Expired(time.Now()) {
		// Lazy expiry: drop the stale entry, reject the code.
		delete(s.entries, k)
		return false, nil
	}
	if entry.Code != code {
		return false, nil
	}
	delete(s.entries, k)
	return true, nil
}

func (s *Store) Delete(_ context.Context, companyID, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key(companyID, email))
	return nil
}

func (s *Store) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for k, entry := range s.entries {
		if !entry.ExpiresAt.After(cutoff) {
			delete(s.entries, k)
			n++
		}
	}
	return n, nil
}

// Live reports whether a non-expired entry exists for the pair. The fallback
// composite uses it to route a Consume to whichever backend actually holds
// the code.
func (s *Store) Live(companyID, email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key(companyID, email)]
	return ok && !entry.Expired(time.Now())
}
