package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCustomError_WrapsSentinel(t *testing.T) {
	err := fmt.Errorf("service: %w", NewConflictError("Request was already approved."))

	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "service: Request was already approved.", err.Error())
	assert.Equal(t, "Request was already approved.", MessageOf(err, "fallback"))
}

func TestCustomError_ErrorFallsBackToCause(t *testing.T) {
	assert.Equal(t, "user not found", NewCustomError(ErrUserNotFound, "").Error())
	assert.Equal(t, "unknown error", (&CustomError{}).Error())
}

func TestMessageOf_Fallback(t *testing.T) {
	assert.Equal(t, "fallback", MessageOf(ErrUserNotFound, "fallback"))
	assert.Equal(t, "fallback", MessageOf(NewCustomError(ErrUserNotFound, ""), "fallback"))
	assert.Equal(t, "fallback", MessageOf(nil, "fallback"))
}

func TestNewUpstreamError_KeepsCause(t *testing.T) {
	cause := errors.New("smtp: 421 service not available")
	err := NewUpstreamError("Could not send the reset email.", cause)

	assert.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, errors.Unwrap(err).Error(), "421 service not available")
	assert.Equal(t, "Could not send the reset email.", MessageOf(err, ""))
}

func TestNewInvalidTransitionError_FormatsMessage(t *testing.T) {
	err := NewInvalidTransitionError("cannot %s a request in status %q", "approve", "Collected")

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, `cannot approve a request in status "Collected"`, err.Error())
}
