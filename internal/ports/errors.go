package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// Analytics Errors
	ErrInvalidSeries    = errors.New("invalid price series")
	ErrInvalidConfig    = errors.New("invalid strategy or risk configuration")
	ErrInsufficientData = errors.New("insufficient data for strategy interval")
	// ErrDegenerateStatistics names zero-variance inputs. Calculators recover
	// from it locally with neutral values; it is never returned to callers.
	ErrDegenerateStatistics = errors.New("degenerate statistics")
	ErrStaleGeneration      = errors.New("result superseded by a newer request")

	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Exchange Specific Errors
	ErrExchangeUnavailable  = errors.New("exchange API is unavailable")
	ErrConnectionFailed     = errors.New("failed to connect to the exchange")
	ErrRateLimited          = errors.New("API rate limit exceeded")
	ErrAuthenticationFailed = errors.New("exchange authentication failed (check API keys)")
	ErrInvalidSymbol        = errors.New("unknown or unsupported symbol")

	// Database Specific Errors
	ErrQueryFailed = errors.New("database query failed")
)
