package domain

import (
	"errors"
	"fmt"
	"time"
)

// CDSError represents a standardized error response
type CDSError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// Error implements the error interface
func (e *CDSError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrInvalidInput        = "INVALID_INPUT"
	ErrKnowledgeLookupMiss = "KNOWLEDGE_LOOKUP_MISS"
	ErrEnrichmentTimeout   = "ENRICHMENT_TIMEOUT"
	ErrEnrichmentError     = "ENRICHMENT_ERROR"
	ErrSinkError           = "SINK_ERROR"
	ErrDatabaseError       = "DATABASE_ERROR"
	ErrInternalServer      = "INTERNAL_SERVER_ERROR"
	ErrRateLimit           = "RATE_LIMIT_EXCEEDED"
)

// ValidationError represents input validation errors. Input errors fail fast:
// nothing downstream is computed.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewCDSError creates a new CDSError with timestamp
func NewCDSError(code, message, details, requestID string) *CDSError {
	return &CDSError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// IsValidationError reports whether err is (or wraps) a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
