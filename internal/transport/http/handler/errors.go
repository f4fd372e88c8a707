package handler

const (
	errInternalServer   = "Internal server error"
	errStoreUnavailable = "Service temporarily unavailable, try again shortly"
	errListingNotFound  = "Listing not found"
	errAlreadyClaimed   = "This listing has already been claimed"
	errInvalidEmail     = "Enter a valid email address"
	errInvalidCode      = "Code must be 6 digits"
	errCodeRejected     = "Code is invalid or expired"
)
