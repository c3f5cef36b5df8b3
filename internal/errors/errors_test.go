package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(cause, ErrCodeInternal, "claim failed")

	assert.Equal(t, "claim failed: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "ignored"))
}

func TestConstructors_SetCodes(t *testing.T) {
	tests := []struct {
		err  *AppError
		code ErrorCode
		is   func(error) bool
	}{
		{NotFound("job"), ErrCodeNotFound, IsNotFound},
		{NotFoundf("job %s", "x"), ErrCodeNotFound, IsNotFound},
		{Conflict("taken"), ErrCodeConflict, IsConflict},
		{Conflictf("job %s taken", "x"), ErrCodeConflict, IsConflict},
		{Validation("bad"), ErrCodeValidation, IsValidation},
		{Validationf("bad %d", 1), ErrCodeValidation, IsValidation},
		{Unavailable("weather down"), ErrCodeUnavailable, IsUnavailable},
	}
	for _, tt := range tests {
		t.Run(string(tt.code)+"/"+tt.err.Message, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.True(t, tt.is(wrapped))
			assert.Equal(t, tt.code, GetCode(wrapped))
		})
	}
}

func TestValidationField(t *testing.T) {
	err := ValidationField("radius_km", "must be positive")
	require.True(t, IsValidation(err))
	assert.Equal(t, "radius_km", GetField(err))
	assert.Empty(t, GetField(errors.New("plain")))
	assert.Empty(t, GetCode(errors.New("plain")))
}

func TestWrapf(t *testing.T) {
	err := Wrapf(errors.New("eof"), ErrCodeUnavailable, "vision %s", "http")
	assert.Equal(t, "vision http: eof", err.Error())
	assert.True(t, IsUnavailable(err))
}
