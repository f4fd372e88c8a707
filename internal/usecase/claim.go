package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/openlistings/claimsvc/internal/domain"
	"github.com/openlistings/claimsvc/internal/email"
	"github.com/openlistings/claimsvc/internal/metrics"
	"github.com/openlistings/claimsvc/internal/repository"
	"github.com/openlistings/claimsvc/internal/verification"
)

const defaultSessionTTL = 24 * time.Hour

// codeStore is the Put/Consume subset of the verification store the claim
// flow needs.
type codeStore interface {
	Put(ctx context.Context, companyID, email, code string, ttl time.Duration) error
	Consume(ctx context.Context, companyID, email, code string) (bool, error)
}

// transferer is satisfied by *OwnershipTransfer; narrowed here so tests can
// inject a fake.
type transferer interface {
	Transfer(ctx context.Context, companyID, emailAddr string) (string, error)
}

// ClaimUsecase drives the two-step claim protocol: request a code, then
// verify it and take ownership.
type ClaimUsecase struct {
	companies  repository.CompanyRepository
	store      codeStore
	transfer   transferer
	email      email.Sender
	logger     *slog.Logger
	jwtKey     []byte
	codeTTL    time.Duration
	sessionTTL time.Duration
	siteName   string

	// strictLookups makes a failing company lookup abort RequestCode. Set in
	// production; elsewhere the flow proceeds so the claim form stays usable
	// against a cold or absent database.
	strictLookups bool
}

func NewClaimUsecase(
	companies repository.CompanyRepository,
	store codeStore,
	transfer transferer,
	sender email.Sender,
	logger *slog.Logger,
	jwtKey []byte,
	codeTTL time.Duration,
	siteName string,
	production bool,
) *ClaimUsecase {
	return &ClaimUsecase{
		companies:     companies,
		store:         store,
		transfer:      transfer,
		email:         sender,
		logger:        logger.With("component", "claim_usecase"),
		jwtKey:        jwtKey,
		codeTTL:       codeTTL,
		sessionTTL:    defaultSessionTTL,
		siteName:      siteName,
		strictLookups: production,
	}
}

// RequestCode issues and emails a fresh verification code for the pair,
// superseding any earlier live code. The code never travels back to the
// caller.
func (u *ClaimUsecase) RequestCode(ctx context.Context, companyID, emailAddr, companyName string) error {
	addr, err := NormalizeEmail(emailAddr)
	if err != nil {
		return err
	}
	if companyID == "" {
		return domain.ErrCompanyNotFound
	}

	company, err := u.companies.GetByID(ctx, companyID)
	switch {
	case err == nil:
		if company.IsClaimed {
			return domain.ErrCompanyClaimed
		}
		if companyName == "" {
			companyName = company.Name
		}
	case errors.Is(err, domain.ErrCompanyNotFound):
		return err
	default:
		if u.strictLookups {
			return fmt.Errorf("company lookup: %w", err)
		}
		u.logger.WarnContext(ctx, "company lookup failed, proceeding without claim-state check",
			"company_id", companyID, "error", err)
	}

	code, err := verification.GenerateCode()
	if err != nil {
		return err
	}

	if err := u.store.Put(ctx, companyID, addr, code, u.codeTTL); err != nil {
		return fmt.Errorf("store code: %w", err)
	}
	metrics.CodesIssuedTotal.Inc()

	subject, body := composeCodeEmail(companyName, u.siteName, code, u.codeTTL)
	if err := u.email.Send(ctx, addr, subject, body); err != nil {
		// The flow still succeeds: the code is stored and a re-request will
		// supersede it. An undelivered code is unusable though, so it must
		// show up in logs and metrics.
		u.logger.ErrorContext(ctx, "send verification email", "company_id", companyID, "error", err)
		metrics.EmailSendFailuresTotal.Inc()
	}

	return nil
}

// VerifyAndClaim consumes the submitted code and, on success, transfers
// ownership and returns a signed session token for the new owner account.
func (u *ClaimUsecase) VerifyAndClaim(ctx context.Context, companyID, emailAddr, code string) (string, error) {
	addr, err := NormalizeEmail(emailAddr)
	if err != nil {
		return "", err
	}
	if !verification.ValidCodeShape(code) {
		return "", domain.ErrInvalidCode
	}

	ok, err := u.store.Consume(ctx, companyID, addr, code)
	if err != nil {
		return "", fmt.Errorf("consume code: %w", err)
	}
	if !ok {
		// One umbrella for wrong, expired and never-issued: no oracle for
		// brute-forcing.
		metrics.CodeVerificationsTotal.WithLabelValues("rejected").Inc()
		return "", domain.ErrCodeRejected
	}
	metrics.CodeVerificationsTotal.WithLabelValues("accepted").Inc()

	accountID, err := u.transfer.Transfer(ctx, companyID, addr)
	if err != nil {
		// The code is already burned; the claimant has to request a new one.
		// Still a hard error in every environment: reporting success here
		// without the ownership write would be lying.
		u.logger.ErrorContext(ctx, "ownership transfer failed after code consume",
			"company_id", companyID, "error", err)
		return "", fmt.Errorf("transfer ownership: %w", err)
	}
	metrics.ClaimsCompletedTotal.Inc()

	token, err := u.signSession(accountID, addr)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return token, nil
}

func (u *ClaimUsecase) signSession(accountID, emailAddr string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   accountID,
		"email": emailAddr,
		"iat":   now.Unix(),
		"exp":   now.Add(u.sessionTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(u.jwtKey)
}

// NormalizeEmail trims and lower-cases the address, which is the claim
// identity everywhere downstream, and checks the minimal shape: a local
// part, an @, and a dotted domain.
func NormalizeEmail(s string) (string, error) {
	addr := strings.ToLower(strings.TrimSpace(s))

	local, dom, found := strings.Cut(addr, "@")
	if !found || local == "" || dom == "" {
		return "", domain.ErrInvalidEmail
	}
	if !strings.Contains(dom, ".") || strings.HasPrefix(dom, ".") || strings.HasSuffix(dom, ".") {
		return "", domain.ErrInvalidEmail
	}
	return addr, nil
}

func composeCodeEmail(companyName, siteName, code string, ttl time.Duration) (subject, body string) {
	if companyName == "" {
		companyName = "your listing"
	}
	subject = fmt.Sprintf("Your verification code for %s", companyName)
	body = fmt.Sprintf(
		`<p>Use this code to verify ownership of <strong>%s</strong> on %s:</p>`+
			`<p style="font-size:24px;letter-spacing:4px"><strong>%s</strong></p>`+
			`<p>The code expires in %d minutes. If you did not request it, ignore this email.</p>`,
		companyName, siteName, code, int(ttl.Minutes()),
	)
	return subject, body
}
