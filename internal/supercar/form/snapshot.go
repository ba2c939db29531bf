package form

import (
	"cloupeer.io/supercar/internal/supercar/route"
	"cloupeer.io/supercar/internal/supercar/schema"
)

// Field is the editable state of one form field.
type Field struct {
	// Raw is the value as entered, possibly invalid.
	Raw string
	// Dirty is set by Edit and cleared by a successful submit or hydration.
	Dirty bool
	// Err is the current violation of Raw, nil when valid or not yet checked.
	Err *schema.FieldError
}

// FieldState pairs a field with its spec for presentation.
type FieldState struct {
	Spec schema.FieldSpec
	Field
}

// Snapshot is a copy of the controller state. It is safe to keep and read
// after the controller moved on.
type Snapshot struct {
	Route  route.Route
	Target string
	Kind   schema.Kind
	Path   string
	State  string

	// Fields follow the schema order. Empty while no target is bound.
	Fields []FieldState

	// Err is the error of the last failed operation, cleared by the next success.
	Err error
}

// Field returns the state of the named field.
func (s Snapshot) Field(name string) (FieldState, bool) {
	for _, f := range s.Fields {
		if f.Spec.Name == name {
			return f, true
		}
	}
	return FieldState{}, false
}

// Values returns the raw value of every field.
func (s Snapshot) Values() map[string]string {
	values := make(map[string]string, len(s.Fields))
	for _, f := range s.Fields {
		values[f.Spec.Name] = f.Raw
	}
	return values
}

// Dirty reports whether any field was edited since the last hydration or submit.
func (s Snapshot) Dirty() bool {
	for _, f := range s.Fields {
		if f.Dirty {
			return true
		}
	}
	return false
}

// Invalid returns the fields currently flagged as invalid.
func (s Snapshot) Invalid() map[string]*schema.FieldError {
	errs := make(map[string]*schema.FieldError)
	for _, f := range s.Fields {
		if f.Err != nil {
			errs[f.Spec.Name] = f.Err
		}
	}
	return errs
}

// Editable reports whether Edit and Submit are accepted in this state.
func (s Snapshot) Editable() bool {
	switch s.State {
	case StateReady, StateHydrationFailed, StateSubmitFailed:
		return true
	}
	return false
}
