package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCDSError_Error(t *testing.T) {
	err := NewCDSError(ErrInvalidInput, "patient ID is required", "", "req-123")

	assert.Equal(t, "INVALID_INPUT: patient ID is required", err.Error())
	assert.Equal(t, "req-123", err.RequestID)
	assert.False(t, err.Timestamp.IsZero())
}

func TestValidationError_Error(t *testing.T) {
	err := NewValidationError("symptoms", "at least one symptom or finding is required", []string{})

	assert.Equal(t, "validation error for field 'symptoms': at least one symptom or finding is required", err.Error())
}

func TestIsValidationError(t *testing.T) {
	ve := NewValidationError("patient_id", "required", "")

	require.True(t, IsValidationError(ve))
	require.True(t, IsValidationError(fmt.Errorf("rejecting request: %w", ve)))
	require.False(t, IsValidationError(fmt.Errorf("boom")))
	require.False(t, IsValidationError(nil))
}
