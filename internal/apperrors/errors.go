package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrHoldingNotFound indicates that a holding with the given ID does not exist for the user.
	ErrHoldingNotFound = errors.New("holding not found")

	// ErrUserNotFound indicates that no user matches the given ID or email.
	ErrUserNotFound = errors.New("user not found")

	// ErrSessionNotFound indicates that a session does not exist or was revoked.
	ErrSessionNotFound = errors.New("session not found")
)

// Upstream errors are returned by the price and exchange-rate clients.
var (
	// ErrInvalidTicker indicates that a ticker is empty or too long after sanitization.
	ErrInvalidTicker = errors.New("invalid ticker symbol")

	// ErrUpstreamUnavailable indicates that a price or rate endpoint was unreachable
	// or answered with a non-success status.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrNoData indicates that the upstream has no quote for the symbol.
	ErrNoData = errors.New("no price data available")
)

// Business logic errors represent validation failures or preconditions that are not met.
var (
	// ErrRatesNotReady indicates a non-USD conversion was attempted before rates were loaded.
	ErrRatesNotReady = errors.New("exchange rates not loaded yet")

	// ErrNotAuthenticated indicates that the request carries no valid signed-in session.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrUserExists indicates that an account with the email is already registered.
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidCredentials indicates a sign-in with an unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrSessionClosed indicates an operation on a portfolio session that was torn down.
	ErrSessionClosed = errors.New("portfolio session closed")

	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")
)

// Operation failure errors represent system-level failures when retrieving or processing data.
var (
	ErrFailedToLoadHoldings   = errors.New("failed to load stocks")
	ErrFailedToAddHolding     = errors.New("failed to add stock")
	ErrFailedToDeleteHolding  = errors.New("failed to delete stock")
	ErrFailedToFetchPrice     = errors.New("failed to fetch stock price")
	ErrFailedToFetchRates     = errors.New("exchange rate fetch failed")
	ErrFailedToGetVersionInfo = errors.New("failed to get version information")
	ErrFailedToSignUp         = errors.New("failed to sign up")
	ErrFailedToSignIn         = errors.New("failed to sign in")
	ErrFailedToSignOut        = errors.New("failed to sign out")
)

// ValidationError reports invalid form input. It is raised before any network call.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError returns a ValidationError for field with a user-facing message.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
