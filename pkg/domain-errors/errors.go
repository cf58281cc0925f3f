// Package domainerrors carries the error taxonomy shared by services and transports.
//
// Services return *Error values with a Code; transports translate codes to status
// codes with ToHTTPStatus. Stores return pkg/platform/sentinel errors instead and let
// the service layer choose the code.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain failure.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeValidation         Code = "validation_error"
	CodeInvalidInput       Code = "invalid_input"
	CodeInvariantViolation Code = "invariant_violation"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal_error"

	// Driver and configuration failures.
	CodeConfiguration  Code = "configuration_error"
	CodeUnknownDriver  Code = "unknown_driver"
	CodeDriverDisabled Code = "driver_disabled"
	CodeProvider       Code = "provider_error"

	// Resume terminal conditions.
	CodeNotResumable   Code = "not_resumable"
	CodeResumeRejected Code = "resume_rejected"
	CodeStillPending   Code = "still_pending"
	CodeNoURL          Code = "no_url_available"
)

// Error is a coded domain error. Meta holds small, non-sensitive context such as the
// record status at the time of failure.
type Error struct {
	Code    Code
	Message string
	Meta    map[string]string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// With returns a copy of e carrying key=value in Meta.
func (e *Error) With(key, value string) *Error {
	meta := make(map[string]string, len(e.Meta)+1)
	for k, v := range e.Meta {
		meta[k] = v
	}
	meta[key] = value
	return &Error{Code: e.Code, Message: e.Message, Meta: meta, cause: e.cause}
}

// New creates a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// CodeOf returns the outermost code in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether the outermost coded error in err's chain has code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias of HasCode kept for handler readability.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// MetaOf returns the metadata value for key on the outermost coded error.
func MetaOf(err error, key string) string {
	var de *Error
	if errors.As(err, &de) && de.Meta != nil {
		return de.Meta[key]
	}
	return ""
}

// ToHTTPStatus maps a code to the status transports should answer with.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeValidation, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound, CodeUnknownDriver:
		return http.StatusNotFound
	case CodeConflict, CodeNotResumable, CodeResumeRejected, CodeStillPending, CodeNoURL:
		return http.StatusConflict
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeProvider:
		return http.StatusBadGateway
	case CodeDriverDisabled, CodeConfiguration:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
