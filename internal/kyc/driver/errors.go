package driver

import (
	"errors"
	"fmt"
	"net/http"

	dErrors "kycore/pkg/domain-errors"
)

// ErrorCategory is the normalized failure taxonomy of provider calls.
type ErrorCategory string

const (
	ErrorTimeout        ErrorCategory = "timeout"
	ErrorBadData        ErrorCategory = "bad_data"
	ErrorAuthentication ErrorCategory = "authentication"
	ErrorProviderOutage ErrorCategory = "provider_outage"
	ErrorNotFound       ErrorCategory = "not_found"
	ErrorRateLimited    ErrorCategory = "rate_limited"
	ErrorInternal       ErrorCategory = "internal"
)

// ProviderError wraps a provider failure with a normalized category.
type ProviderError struct {
	Category   ErrorCategory
	Driver     string
	Message    string
	StatusCode int
	Underlying error
	Retryable  bool
}

func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("driver %s [%s]: %s: %v", e.Driver, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("driver %s [%s]: %s", e.Driver, e.Category, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

func NewProviderError(category ErrorCategory, driverName, message string, underlying error) *ProviderError {
	retryable := category == ErrorTimeout ||
		category == ErrorProviderOutage ||
		category == ErrorRateLimited

	return &ProviderError{
		Category:   category,
		Driver:     driverName,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// CategoryForStatus classifies a non-2xx provider HTTP status.
func CategoryForStatus(code int) ErrorCategory {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrorAuthentication
	case code == http.StatusNotFound:
		return ErrorNotFound
	case code == http.StatusTooManyRequests:
		return ErrorRateLimited
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return ErrorTimeout
	case code >= 500:
		return ErrorProviderOutage
	case code >= 400:
		return ErrorBadData
	default:
		return ErrorInternal
	}
}

func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

func GetCategory(err error) ErrorCategory {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ErrorInternal
}

// ErrInvalidPayload marks webhook payloads that cannot be decoded or lack required fields.
var ErrInvalidPayload = errors.New("invalid webhook payload")

// ToDomain translates a driver failure into the domain taxonomy. Errors that already
// carry a domain code pass through unchanged.
func ToDomain(err error) error {
	if err == nil {
		return nil
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, ErrInvalidPayload) {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid webhook payload")
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		switch pe.Category {
		case ErrorNotFound:
			return dErrors.Wrap(err, dErrors.CodeNotFound, "verification not found at provider")
		case ErrorTimeout:
			return dErrors.Wrap(err, dErrors.CodeTimeout, "provider timed out")
		default:
			return dErrors.Wrap(err, dErrors.CodeProvider, "provider request failed").
				With("category", string(pe.Category))
		}
	}
	return dErrors.Wrap(err, dErrors.CodeProvider, "provider request failed")
}
