// Package schema describes the editable fields of every configuration kind
// exposed by the vehicle controller and the constraints they obey.
package schema

import (
	"errors"
	"fmt"
	"slices"
)

// Kind names a configuration form.
type Kind string

const (
	// KindMain is the vehicle-wide configuration.
	KindMain Kind = "main"
	// KindPropulsion is the propulsion motor configuration.
	KindPropulsion Kind = "propulsion"
	// KindSteering is the steering motor configuration.
	KindSteering Kind = "steering"
)

// Field groups, rendered as separate fieldsets.
const (
	GroupLimits  = "limits"
	GroupControl = "control"
	GroupPins    = "pins"
)

// FieldType is the value type of a field. Only numeric fields exist today.
type FieldType string

const Numeric FieldType = "numeric"

// ErrUnknownKind is returned by Lookup for a kind without a schema.
var ErrUnknownKind = errors.New("unknown configuration kind")

// FieldSpec describes one editable field.
type FieldSpec struct {
	Name     string
	Label    string
	Group    string
	Type     FieldType
	Required bool
	Min      float64
	Max      float64
}

// Schema is the ordered set of fields of a configuration kind. Schemas are
// shared and must not be modified.
type Schema struct {
	Kind   Kind
	Title  string
	Fields []FieldSpec
}

// Field returns the spec of the named field.
func (s *Schema) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Names returns the field names in display order.
func (s *Schema) Names() []string {
	names := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		names = append(names, f.Name)
	}
	return names
}

// Groups returns the field groups in order of first appearance.
func (s *Schema) Groups() []string {
	var groups []string
	for _, f := range s.Fields {
		if !slices.Contains(groups, f.Group) {
			groups = append(groups, f.Group)
		}
	}
	return groups
}

// Check verifies the structural invariants of the schema.
func (s *Schema) Check() error {
	if len(s.Fields) == 0 {
		return fmt.Errorf("schema %q has no fields", s.Kind)
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("schema %q: field without a name", s.Kind)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("schema %q: duplicate field %q", s.Kind, f.Name)
		}
		seen[f.Name] = struct{}{}
		if f.Type != Numeric {
			return fmt.Errorf("schema %q: field %q has unsupported type %q", s.Kind, f.Name, f.Type)
		}
		if f.Min > f.Max {
			return fmt.Errorf("schema %q: field %q has min %v > max %v", s.Kind, f.Name, f.Min, f.Max)
		}
	}
	return nil
}

func numeric(name, label, group string, min, max float64) FieldSpec {
	return FieldSpec{
		Name:     name,
		Label:    label,
		Group:    group,
		Type:     Numeric,
		Required: true,
		Min:      min,
		Max:      max,
	}
}

// motorFields is shared by the propulsion and steering motors.
var motorFields = []FieldSpec{
	numeric("acceleration", "Acceleration (%)", GroupControl, 0, 100),
	numeric("ctrl_period", "Control period (μs)", GroupControl, 0, 100),
	numeric("pwm_freq", "PWM Frequency (Hz)", GroupControl, 0, 20000),
	numeric("pwm_pin", "PWM output GPIO", GroupPins, 0, 39),
	numeric("direction_pin", "Direction output GPIO (Relay)", GroupPins, 0, 39),
}

var catalog = map[Kind]*Schema{
	KindMain: {
		Kind:  KindMain,
		Title: "Supercar",
		Fields: []FieldSpec{
			numeric("max_speed", "Maximum speed", GroupLimits, 0, 100),
			numeric("delta_speed", "Delta speed (Speed limit increment)", GroupLimits, 0, 100),
			numeric("distance_threshold_forward", "Front distance threshold", GroupLimits, 0, 25),
			numeric("distance_threshold_backward", "Back distance threshold", GroupLimits, 0, 25),
			numeric("mode_input_pin", "Mode input GPIO (Rocker switch)", GroupPins, 0, 39),
			numeric("mode_output_pin", "Mode output GPIO (Relay)", GroupPins, 0, 39),
			numeric("power_output_pin", "Power output GPIO (Relay)", GroupPins, 0, 39),
		},
	},
	KindPropulsion: {Kind: KindPropulsion, Title: "Propulsion motor", Fields: motorFields},
	KindSteering:   {Kind: KindSteering, Title: "Steering motor", Fields: motorFields},
}

func init() {
	for _, s := range catalog {
		if err := s.Check(); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the schema of kind.
func Lookup(kind Kind) (*Schema, error) {
	s, ok := catalog[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return s, nil
}

// Kinds returns every known kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindMain, KindPropulsion, KindSteering}
}

// ParseKind converts a user supplied string into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := catalog[k]; !ok {
		return "", fmt.Errorf("%w: %q (expected one of %v)", ErrUnknownKind, s, Kinds())
	}
	return k, nil
}
