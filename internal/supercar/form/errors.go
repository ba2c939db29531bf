package form

import (
	"errors"
	"fmt"

	"cloupeer.io/supercar/internal/supercar/schema"
)

var (
	// ErrStale is returned by a call whose result belongs to a resource the
	// controller has left, by a target change or a deactivation, or by a fetch
	// landing while a submit is in flight. The result was discarded.
	ErrStale = errors.New("result superseded by a newer request")
	// ErrNotEditable is returned by Edit outside of the editable states.
	ErrNotEditable = errors.New("form is not editable")
	// ErrNotSubmittable is returned by Submit while loading, submitting or inactive.
	ErrNotSubmittable = errors.New("form cannot be submitted")
	// ErrUnknownField is returned by Edit for a name the schema does not define.
	ErrUnknownField = errors.New("unknown field")
	// ErrValidationFailure is matched by every ValidationError.
	ErrValidationFailure = errors.New("validation failure")
)

// ValidationError lists the invalid fields that blocked a submit.
type ValidationError struct {
	Kind   schema.Kind
	Fields map[string]*schema.FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s configuration is invalid: %v", e.Kind, schema.ValidationErrors(e.Fields))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailure
}
