package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetailErrorsMatchTheirKind(t *testing.T) {
	insufficient := &InsufficientBalanceError{BaseID: uuid.New(), EquipmentTypeID: uuid.New(), Available: 5, Requested: 6}
	wrapped := fmt.Errorf("record expenditure: %w", insufficient)

	assert.ErrorIs(t, wrapped, ErrInsufficientBalance)
	assert.NotErrorIs(t, wrapped, ErrValidation)

	var detail *InsufficientBalanceError
	require.True(t, errors.As(wrapped, &detail))
	assert.Equal(t, 5, detail.Available)
	assert.Equal(t, 6, detail.Requested)

	state := &StateError{Entity: "transfer", From: "completed", To: "cancelled"}
	assert.ErrorIs(t, state, ErrInvalidState)
	assert.Contains(t, state.Error(), "completed")

	validation := &ValidationError{Fields: []FieldError{{Field: "Quantity", Tag: "gt"}}}
	assert.ErrorIs(t, validation, ErrValidation)
	assert.Contains(t, validation.Error(), "Quantity")
}

func TestKind(t *testing.T) {
	cases := map[string]error{
		"validation_error":     NewValidationError("bad"),
		"insufficient_balance": &InsufficientBalanceError{},
		"invalid_state":        &StateError{},
		"unauthorized":         Unauthorized("approve", uuid.New()),
		"not_found":            NotFound("transfer", uuid.New()),
		"concurrency_conflict": fmt.Errorf("complete: %w", ErrConcurrencyConflict),
		"internal":             errors.New("boom"),
	}
	for want, err := range cases {
		assert.Equal(t, want, Kind(err), err.Error())
	}
}
