// Package services holds the business logic between the HTTP handlers and
// the repositories: variant expansion and reconciliation, sequential code
// allocation, the live-comment order pipeline and purchase-order receiving.
package services

import "fmt"

// Validation error codes surfaced to HTTP handlers
const (
	CodeValidationError  = "VALIDATION_ERROR"
	CodeGapTooLarge      = "CODE_GAP_TOO_LARGE"
	CodeDuplicateCode    = "DUPLICATE_CODE"
	CodeInvalidState     = "INVALID_STATE_TRANSITION"
	CodeTooManyVariants  = "TOO_MANY_VARIANTS"
	CodeSessionNotActive = "SESSION_NOT_ACTIVE"
)

// ValidationError is a business rule violation the caller can act on. The
// handler layer maps it to a 4xx response with the code and details intact.
type ValidationError struct {
	Code    string
	Message string
	Field   string
	Details map[string]interface{}
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newValidationError(code, message, field string) *ValidationError {
	return &ValidationError{Code: code, Message: message, Field: field}
}
