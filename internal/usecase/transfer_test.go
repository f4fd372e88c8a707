package usecase_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/openlistings/claimsvc/internal/domain"
	"github.com/openlistings/claimsvc/internal/usecase"
)

type fakeAccountRepo struct {
	findOrCreate       func(ctx context.Context, email string) (*domain.Account, error)
	findByID           func(ctx context.Context, id string) (*domain.Account, error)
	ensureOwnerProfile func(ctx context.Context, accountID, companyID string) error
}

func (r *fakeAccountRepo) FindOrCreate(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOrCreate(ctx, email)
}

func (r *fakeAccountRepo) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.findByID(ctx, id)
}

func (r *fakeAccountRepo) EnsureOwnerProfile(ctx context.Context, accountID, companyID string) error {
	return r.ensureOwnerProfile(ctx, accountID, companyID)
}

func newTransfer(accounts *fakeAccountRepo, companies *fakeCompanyRepo) *usecase.OwnershipTransfer {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return usecase.NewOwnershipTransfer(accounts, companies, logger)
}

var testAccount = &domain.Account{ID: "acct-1", Email: "owner@biz.com"}

func TestTransfer_ProvisionsAccountAndClaims(t *testing.T) {
	var claimedBy, profiledAccount, profiledCompany string

	accounts := &fakeAccountRepo{
		findOrCreate: func(_ context.Context, email string) (*domain.Account, error) {
			if email != "owner@biz.com" {
				t.Errorf("find or create with email %q", email)
			}
			return testAccount, nil
		},
		ensureOwnerProfile: func(_ context.Context, accountID, companyID string) error {
			profiledAccount, profiledCompany = accountID, companyID
			return nil
		},
	}
	companies := &fakeCompanyRepo{
		claim: func(_ context.Context, _, accountID string) error {
			claimedBy = accountID
			return nil
		},
	}

	accountID, err := newTransfer(accounts, companies).Transfer(context.Background(), "c1", "owner@biz.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if accountID != testAccount.ID {
		t.Errorf("account ID = %q, want %q", accountID, testAccount.ID)
	}
	if claimedBy != testAccount.ID {
		t.Errorf("claimed by %q, want %q", claimedBy, testAccount.ID)
	}
	if profiledAccount != testAccount.ID || profiledCompany != "c1" {
		t.Errorf("profile upsert (%q, %q), want (%q, c1)", profiledAccount, profiledCompany, testAccount.ID)
	}
}

func TestTransfer_RetryAfterOwnClaim_Succeeds(t *testing.T) {
	accounts := &fakeAccountRepo{
		findOrCreate: func(context.Context, string) (*domain.Account, error) { return testAccount, nil },
		ensureOwnerProfile: func(context.Context, string, string) error { return nil },
	}
	companies := &fakeCompanyRepo{
		// Repo contract: same-owner retry is a no-op success.
		claim: func(context.Context, string, string) error { return nil },
	}

	accountID, err := newTransfer(accounts, companies).Transfer(context.Background(), "c1", "owner@biz.com")
	if err != nil {
		t.Fatalf("retry should succeed, got %v", err)
	}
	if accountID != testAccount.ID {
		t.Errorf("account ID = %q, want %q", accountID, testAccount.ID)
	}
}

func TestTransfer_ClaimedByAnother_Propagates(t *testing.T) {
	accounts := &fakeAccountRepo{
		findOrCreate: func(context.Context, string) (*domain.Account, error) { return testAccount, nil },
		ensureOwnerProfile: func(context.Context, string, string) error {
			t.Fatal("profile must not be attached when the claim is refused")
			return nil
		},
	}
	companies := &fakeCompanyRepo{
		claim: func(context.Context, string, string) error { return domain.ErrCompanyClaimed },
	}

	_, err := newTransfer(accounts, companies).Transfer(context.Background(), "c1", "owner@biz.com")
	if !errors.Is(err, domain.ErrCompanyClaimed) {
		t.Errorf("want ErrCompanyClaimed, got %v", err)
	}
}

func TestTransfer_AccountProvisionError_Propagates(t *testing.T) {
	provErr := &domain.DependencyError{Dependency: "postgres", Err: errors.New("insert failed")}
	accounts := &fakeAccountRepo{
		findOrCreate: func(context.Context, string) (*domain.Account, error) { return nil, provErr },
	}
	companies := &fakeCompanyRepo{
		claim: func(context.Context, string, string) error {
			t.Fatal("claim must not run without an account")
			return nil
		},
	}

	_, err := newTransfer(accounts, companies).Transfer(context.Background(), "c1", "owner@biz.com")
	if !errors.Is(err, provErr) {
		t.Errorf("want wrapped provision error, got %v", err)
	}
}

func TestTransfer_ProfileUpsertError_Propagates(t *testing.T) {
	upsertErr := errors.New("profile write failed")
	accounts := &fakeAccountRepo{
		findOrCreate: func(context.Context, string) (*domain.Account, error) { return testAccount, nil },
		ensureOwnerProfile: func(context.Context, string, string) error { return upsertErr },
	}
	companies := &fakeCompanyRepo{
		claim: func(context.Context, string, string) error { return nil },
	}

	_, err := newTransfer(accounts, companies).Transfer(context.Background(), "c1", "owner@biz.com")
	if !errors.Is(err, upsertErr) {
		t.Errorf("want wrapped upsert error, got %v", err)
	}
}
