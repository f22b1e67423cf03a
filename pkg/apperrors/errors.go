package apperrors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Ledger error kinds. Detail types below match these through errors.Is.
var (
	ErrValidation          = errors.New("validation failed")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidState        = errors.New("invalid state transition")
	ErrUnauthorized        = errors.New("actor lacks authority over base")
	ErrNotFound            = errors.New("record not found")
	ErrConcurrencyConflict = errors.New("concurrency conflict, retry later")
)

type FieldError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param,omitempty"`
}

// ValidationError carries every failed field of a request struct.
type ValidationError struct {
	Fields  []FieldError
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Message)
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("field '%s' failed on '%s'", f.Field, f.Tag))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

type InsufficientBalanceError struct {
	BaseID          uuid.UUID `json:"base_id"`
	EquipmentTypeID uuid.UUID `json:"equipment_type_id"`
	Available       int       `json:"available"`
	Requested       int       `json:"requested"`
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("%s: base %s equipment type %s has %d, needs %d",
		ErrInsufficientBalance, e.BaseID, e.EquipmentTypeID, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Is(target error) bool { return target == ErrInsufficientBalance }

// StateError reports a transition attempted from the wrong state.
type StateError struct {
	Entity string `json:"entity"`
	From   string `json:"from"`
	To     string `json:"to"`
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s cannot move from %s to %s", ErrInvalidState, e.Entity, e.From, e.To)
}

func (e *StateError) Is(target error) bool { return target == ErrInvalidState }

func NotFound(entity string, id interface{}) error {
	return fmt.Errorf("%w: %s %v", ErrNotFound, entity, id)
}

func Unauthorized(action string, baseID uuid.UUID) error {
	return fmt.Errorf("%w: %s on base %s", ErrUnauthorized, action, baseID)
}

// Kind returns a stable code for err, or "internal".
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConcurrencyConflict):
		return "concurrency_conflict"
	default:
		return "internal"
	}
}
