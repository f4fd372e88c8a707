package domain

import "time"

// ClaimStep is the client-visible state of the claim flow.
type ClaimStep string

const (
	StepVerify ClaimStep = "verify" // code sent, awaiting submission
	StepDone   ClaimStep = "done"   // ownership transferred
)

const CodeLength = 6

// ClaimVerification is a live (company, email) → code binding. At most one
// exists per pair; issuing a new code supersedes the previous one.
type ClaimVerification struct {
	CompanyID string
	Email     string
	Code      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (v *ClaimVerification) Expired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}
