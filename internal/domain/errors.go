package domain

import "errors"

var (
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrInvalidCode     = errors.New("code must be 6 digits")
	ErrCodeRejected    = errors.New("code is invalid or expired")
	ErrCompanyNotFound = errors.New("company not found")
	ErrCompanyClaimed  = errors.New("company is already claimed")
	ErrAccountNotFound = errors.New("account not found")
)

// DependencyError marks a failure of an external collaborator (database,
// mail provider, identity provider). Callers decide per environment whether
// the operation can degrade or must fail hard.
type DependencyError struct {
	Dependency string
	Err        error
}

func (e *DependencyError) Error() string {
	return e.Dependency + " unavailable: " + e.Err.Error()
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

// IsDependencyError reports whether err is (or wraps) a DependencyError.
func IsDependencyError(err error) bool {
	var depErr *DependencyError
	return errors.As(err, &depErr)
}
