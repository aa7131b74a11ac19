package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesByKind(t *testing.T) {
	err := NotFound("position %s not found", "pos-1")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrForbidden))

	wrapped := fmt.Errorf("loading position: %w", err)
	assert.True(t, errors.Is(wrapped, ErrNotFound))
}

func TestMessage_HidesStoreCause(t *testing.T) {
	err := Store(errors.New("pq: connection refused"), "failed to load assignments")

	assert.Equal(t, GenericMessage, Message(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestMessage_UserFacing(t *testing.T) {
	assert.Equal(t, "position pos-1 not found", Message(NotFound("position %s not found", "pos-1")))
	assert.Equal(t, ErrNoPendingAssignments.Message, Message(ErrNoPendingAssignments))
	assert.Equal(t, GenericMessage, Message(errors.New("boom")))
	assert.Equal(t, "", Message(nil))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{"auth", ErrAuth, KindAuth},
		{"forbidden", Forbidden("nope"), KindForbidden},
		{"validation wrapped", fmt.Errorf("x: %w", Validation("bad")), KindValidation},
		{"invalid state", ErrInvalidState, KindInvalidState},
		{"already assigned", ErrAlreadyAssigned, KindAlreadyAssigned},
		{"plain error", errors.New("boom"), KindStore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, KindOf(tt.err))
		})
	}
}
