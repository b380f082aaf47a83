package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrCodeInvalidConfig, "bad file %s", "a.json")
	assert.Equal(t, "INVALID_CONFIG: bad file a.json", err.Error())

	cause := errors.New("unexpected EOF")
	wrapped := Wrap(ErrCodeFrontend, cause, "python parser")
	assert.Equal(t, "FRONTEND_ERROR: python parser: unexpected EOF", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}

func TestIsAndGetCode(t *testing.T) {
	inner := New(ErrCodeIdentifierExhaustion, "no fresh name")
	outer := fmt.Errorf("iteration 2: %w", inner)

	assert.True(t, Is(outer, ErrCodeIdentifierExhaustion))
	assert.False(t, Is(outer, ErrCodeInternal))
	assert.Equal(t, ErrCodeIdentifierExhaustion, GetCode(outer))
	assert.Equal(t, Code(""), GetCode(errors.New("plain")))
	assert.False(t, Is(nil, ErrCodeInternal))
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"structured", New(ErrCodeFileNotFound, "missing.py"), "missing.py"},
		{"with cause", Wrap(ErrCodeInvalidConfig, errors.New("line 3"), "cfg.json"), "cfg.json: line 3"},
		{"plain", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}
