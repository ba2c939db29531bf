package schema

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Reason classifies a field violation.
type Reason string

const (
	ReasonRequired   Reason = "required"
	ReasonNotNumber  Reason = "not_a_number"
	ReasonOutOfRange Reason = "out_of_range"
)

// FieldError describes why a raw value is not acceptable for a field.
type FieldError struct {
	Field  string
	Reason Reason
	Raw    string
	Min    float64
	Max    float64
}

func (e *FieldError) Error() string {
	switch e.Reason {
	case ReasonRequired:
		return fmt.Sprintf("%s: value is required", e.Field)
	case ReasonNotNumber:
		return fmt.Sprintf("%s: %q is not a number", e.Field, e.Raw)
	default:
		return fmt.Sprintf("%s: %s is out of range [%s, %s]", e.Field, e.Raw, FormatNumber(e.Min), FormatNumber(e.Max))
	}
}

// Message is the short, field-local form of the error used next to an input.
func (e *FieldError) Message() string {
	switch e.Reason {
	case ReasonRequired:
		return "required"
	case ReasonNotNumber:
		return "must be a number"
	default:
		return fmt.Sprintf("must be between %s and %s", FormatNumber(e.Min), FormatNumber(e.Max))
	}
}

// ValidateField checks raw against spec. It returns nil when raw is acceptable.
func ValidateField(spec FieldSpec, raw string) *FieldError {
	v := strings.TrimSpace(raw)
	if v == "" {
		if spec.Required {
			return &FieldError{Field: spec.Name, Reason: ReasonRequired, Raw: raw}
		}
		return nil
	}

	n, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return &FieldError{Field: spec.Name, Reason: ReasonNotNumber, Raw: raw}
	}

	if n < spec.Min || n > spec.Max {
		return &FieldError{Field: spec.Name, Reason: ReasonOutOfRange, Raw: v, Min: spec.Min, Max: spec.Max}
	}
	return nil
}

// Validate checks every field of s. Missing values are treated as empty. The
// result only holds the invalid fields.
func Validate(s *Schema, values map[string]string) map[string]*FieldError {
	errs := make(map[string]*FieldError)
	for _, f := range s.Fields {
		if ferr := ValidateField(f, values[f.Name]); ferr != nil {
			errs[f.Name] = ferr
		}
	}
	return errs
}

// ValidationErrors is returned by Coerce when at least one field is invalid.
type ValidationErrors map[string]*FieldError

func (e ValidationErrors) Error() string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)

	msgs := make([]string, 0, len(names))
	for _, name := range names {
		msgs = append(msgs, e[name].Error())
	}
	return strings.Join(msgs, "; ")
}

// Coerce converts the raw values of s into the numeric record sent to the
// device. Empty optional fields are omitted and fields outside s are dropped.
func Coerce(s *Schema, values map[string]string) (map[string]any, error) {
	if errs := Validate(s, values); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	record := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		v := strings.TrimSpace(values[f.Name])
		if v == "" {
			continue
		}
		n, _ := strconv.ParseFloat(v, 64) // Already validated
		record[f.Name] = n
	}
	return record, nil
}

// FormatNumber renders n without a trailing fraction when it is integral.
func FormatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// FormatValue renders a decoded record value as raw form input. It reports
// false for values that cannot be shown in a numeric field.
func FormatValue(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case float64:
		return FormatNumber(t), true
	case float32:
		return FormatNumber(float64(t)), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		if t {
			return "1", true
		}
		return "0", true
	case string:
		return t, true
	case fmt.Stringer:
		return t.String(), true
	default:
		return "", false
	}
}
