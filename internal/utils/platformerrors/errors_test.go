package platformerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewError(LayerInfrastructure, ErrorTypeTransport, "failed to reach service", cause)

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to reach service")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestIsTypeSeesThroughWrapping(t *testing.T) {
	inner := NewError(LayerDomain, ErrorTypeNotFound, "no active request", nil)
	wrapped := fmt.Errorf("handling command: %w", inner)

	assert.True(t, IsType(wrapped, ErrorTypeNotFound))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsConflict(wrapped))
}

func TestAsErrorPreservesPlatformErrorType(t *testing.T) {
	original := NewError(LayerDomain, ErrorTypeValidation, "at least one chart file is required", nil)

	got := AsError(LayerDomain, original, "submit")
	assert.Equal(t, ErrorTypeValidation, got.Type)
	require.ErrorIs(t, got, original)

	plain := errors.New("boom")
	converted := AsError(LayerDomain, plain, "submit")
	assert.Equal(t, ErrorTypeInternal, converted.Type)
	require.ErrorIs(t, converted, plain)
}

func TestRemoteServiceErrorCarriesStatusCode(t *testing.T) {
	err := NewRemoteServiceError(LayerInfrastructure, 502, "create run failed")

	assert.Equal(t, ErrorTypeRemoteService, err.Type)
	assert.Equal(t, 502, err.StatusCode)
}
