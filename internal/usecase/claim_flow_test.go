package usecase_test

// Flow tests run the claim protocol end to end against the real fallback
// store (memory-only) and real OwnershipTransfer, with stateful fakes for
// the external tables. The issued code is fished out of the captured email,
// the same way the claimant would read it.

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/openlistings/claimsvc/internal/domain"
	"github.com/openlistings/claimsvc/internal/infrastructure/memory"
	"github.com/openlistings/claimsvc/internal/usecase"
	"github.com/openlistings/claimsvc/internal/verification"
)

var codePattern = regexp.MustCompile(`\d{6}`)

// statefulCompanies mimics the companies table claim transition.
type statefulCompanies struct {
	mu        sync.Mutex
	companies map[string]*domain.Company
}

func newStatefulCompanies(ids ...string) *statefulCompanies {
	s := &statefulCompanies{companies: make(map[string]*domain.Company)}
	for _, id := range ids {
		s.companies[id] = &domain.Company{ID: id, Name: "Test Listing " + id}
	}
	return s
}

func (s *statefulCompanies) GetByID(_ context.Context, id string) (*domain.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.companies[id]
	if !ok {
		return nil, domain.ErrCompanyNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *statefulCompanies) Claim(_ context.Context, companyID, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.companies[companyID]
	if !ok {
		return domain.ErrCompanyNotFound
	}
	if c.IsClaimed {
		if c.ClaimedBy != nil && *c.ClaimedBy == accountID {
			return nil
		}
		return domain.ErrCompanyClaimed
	}
	c.IsClaimed = true
	c.ClaimedBy = &accountID
	return nil
}

// statefulAccounts mimics the accounts table.
type statefulAccounts struct {
	mu       sync.Mutex
	byEmail  map[string]*domain.Account
	profiles map[string]string // accountID -> companyID
	next     int
}

func newStatefulAccounts() *statefulAccounts {
	return &statefulAccounts{byEmail: make(map[string]*domain.Account), profiles: make(map[string]string)}
}

func (s *statefulAccounts) FindOrCreate(_ context.Context, email string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.byEmail[email]; ok {
		return a, nil
	}
	s.next++
	a := &domain.Account{ID: "acct-" + strconv.Itoa(s.next), Email: email}
	s.byEmail[email] = a
	return a, nil
}

func (s *statefulAccounts) FindByID(_ context.Context, id string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.byEmail {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (s *statefulAccounts) EnsureOwnerProfile(_ context.Context, accountID, companyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[accountID] = companyID
	return nil
}

type capturingSender struct {
	mu     sync.Mutex
	bodies []string
}

func (s *capturingSender) Send(_ context.Context, _, _, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodies = append(s.bodies, body)
	return nil
}

func (s *capturingSender) lastCode(t *testing.T) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.bodies) == 0 {
		t.Fatal("no email was sent")
	}
	code := codePattern.FindString(s.bodies[len(s.bodies)-1])
	if code == "" {
		t.Fatal("no 6-digit code in the email body")
	}
	return code
}

type flow struct {
	uc        *usecase.ClaimUsecase
	companies *statefulCompanies
	sender    *capturingSender
}

func newFlow(t *testing.T, companyIDs ...string) *flow {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	companies := newStatefulCompanies(companyIDs...)
	accounts := newStatefulAccounts()
	sender := &capturingSender{}
	store := verification.NewFallbackStore(nil, memory.NewStore(), logger)
	transfer := usecase.NewOwnershipTransfer(accounts, companies, logger)

	uc := usecase.NewClaimUsecase(
		companies, store, transfer, sender, logger,
		[]byte(testJWTKey), 10*time.Minute, "Open Listings", false,
	)
	return &flow{uc: uc, companies: companies, sender: sender}
}

func TestClaimFlow_RoundTripSucceedsExactlyOnce(t *testing.T) {
	f := newFlow(t, "c1")
	ctx := context.Background()

	if err := f.uc.RequestCode(ctx, "c1", "Owner@Biz.com ", ""); err != nil {
		t.Fatalf("request code: %v", err)
	}
	code := f.sender.lastCode(t)

	token, err := f.uc.VerifyAndClaim(ctx, "c1", "owner@biz.com", code)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if token == "" {
		t.Fatal("expected a session token")
	}

	company, _ := f.companies.GetByID(ctx, "c1")
	if !company.IsClaimed {
		t.Fatal("company should be claimed")
	}

	// Re-submitting the consumed code must fail.
	if _, err := f.uc.VerifyAndClaim(ctx, "c1", "owner@biz.com", code); !errors.Is(err, domain.ErrCodeRejected) {
		t.Errorf("second submission: want ErrCodeRejected, got %v", err)
	}
}

func TestClaimFlow_NewRequestSupersedesOldCode(t *testing.T) {
	f := newFlow(t, "c1")
	ctx := context.Background()

	if err := f.uc.RequestCode(ctx, "c1", "owner@biz.com", ""); err != nil {
		t.Fatalf("first request: %v", err)
	}
	oldCode := f.sender.lastCode(t)

	if err := f.uc.RequestCode(ctx, "c1", "owner@biz.com", ""); err != nil {
		t.Fatalf("second request: %v", err)
	}
	newCode := f.sender.lastCode(t)

	if oldCode != newCode {
		if _, err := f.uc.VerifyAndClaim(ctx, "c1", "owner@biz.com", oldCode); !errors.Is(err, domain.ErrCodeRejected) {
			t.Errorf("superseded code: want ErrCodeRejected, got %v", err)
		}
	}
	if _, err := f.uc.VerifyAndClaim(ctx, "c1", "owner@biz.com", newCode); err != nil {
		t.Errorf("latest code should verify, got %v", err)
	}
}

func TestClaimFlow_NeverIssuedCodeRejected(t *testing.T) {
	f := newFlow(t, "c1")

	_, err := f.uc.VerifyAndClaim(context.Background(), "c1", "owner@biz.com", "123456")
	if !errors.Is(err, domain.ErrCodeRejected) {
		t.Errorf("want ErrCodeRejected, got %v", err)
	}
}

func TestClaimFlow_RequestAgainstClaimedCompanyBlocked(t *testing.T) {
	f := newFlow(t, "c1")
	ctx := context.Background()

	if err := f.uc.RequestCode(ctx, "c1", "owner@biz.com", ""); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := f.uc.VerifyAndClaim(ctx, "c1", "owner@biz.com", f.sender.lastCode(t)); err != nil {
		t.Fatalf("verify: %v", err)
	}

	err := f.uc.RequestCode(ctx, "c1", "rival@other.com", "")
	if !errors.Is(err, domain.ErrCompanyClaimed) {
		t.Errorf("want ErrCompanyClaimed, got %v", err)
	}
}

func TestClaimFlow_ConcurrentVerify_ExactlyOneWinner(t *testing.T) {
	f := newFlow(t, "c1")
	ctx := context.Background()

	if err := f.uc.RequestCode(ctx, "c1", "owner@biz.com", ""); err != nil {
		t.Fatalf("request: %v", err)
	}
	code := f.sender.lastCode(t)

	const clients = 8
	results := make(chan error, clients)
	start := make(chan struct{})
	var wg sync.WaitGroup

	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.uc.VerifyAndClaim(ctx, "c1", "owner@biz.com", code)
			results <- err
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	var wins, rejections int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrCodeRejected):
			rejections++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("%d clients claimed, want exactly 1", wins)
	}
	if rejections != clients-1 {
		t.Errorf("%d rejections, want %d", rejections, clients-1)
	}
}
