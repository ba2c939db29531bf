package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogInvariants(t *testing.T) {
	for _, kind := range Kinds() {
		s, err := Lookup(kind)
		require.NoError(t, err)
		require.NoError(t, s.Check())

		for _, f := range s.Fields {
			assert.LessOrEqual(t, f.Min, f.Max, "%s.%s", kind, f.Name)
			assert.True(t, f.Required, "%s.%s", kind, f.Name)
			assert.NotEmpty(t, f.Label, "%s.%s", kind, f.Name)
		}
	}
}

func TestLookup(t *testing.T) {
	main, err := Lookup(KindMain)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"max_speed", "delta_speed", "distance_threshold_forward", "distance_threshold_backward",
		"mode_input_pin", "mode_output_pin", "power_output_pin",
	}, main.Names())
	assert.Equal(t, []string{GroupLimits, GroupPins}, main.Groups())

	propulsion, err := Lookup(KindPropulsion)
	require.NoError(t, err)
	steering, err := Lookup(KindSteering)
	require.NoError(t, err)
	assert.Equal(t, propulsion.Fields, steering.Fields)
	assert.Equal(t, []string{"acceleration", "ctrl_period", "pwm_freq", "pwm_pin", "direction_pin"}, steering.Names())

	f, ok := steering.Field("pwm_freq")
	require.True(t, ok)
	assert.Equal(t, float64(20000), f.Max)

	_, err = Lookup("turbo")
	assert.True(t, errors.Is(err, ErrUnknownKind))

	_, err = ParseKind("turbo")
	assert.ErrorIs(t, err, ErrUnknownKind)
	k, err := ParseKind("steering")
	require.NoError(t, err)
	assert.Equal(t, KindSteering, k)
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name   string
		schema Schema
		ok     bool
	}{
		{"valid", Schema{Kind: "x", Fields: []FieldSpec{numeric("a", "A", GroupPins, 0, 1)}}, true},
		{"empty", Schema{Kind: "x"}, false},
		{"min above max", Schema{Kind: "x", Fields: []FieldSpec{numeric("a", "A", GroupPins, 2, 1)}}, false},
		{"duplicate", Schema{Kind: "x", Fields: []FieldSpec{numeric("a", "A", GroupPins, 0, 1), numeric("a", "B", GroupPins, 0, 1)}}, false},
		{"unnamed", Schema{Kind: "x", Fields: []FieldSpec{numeric("", "A", GroupPins, 0, 1)}}, false},
		{"untyped", Schema{Kind: "x", Fields: []FieldSpec{{Name: "a", Max: 1}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Check()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateField(t *testing.T) {
	spec := numeric("max_speed", "Maximum speed", GroupLimits, 0, 100)

	tests := []struct {
		raw    string
		reason Reason
	}{
		{"0", ""},
		{"100", ""},
		{"42.5", ""},
		{" 7 ", ""},
		{"", ReasonRequired},
		{"   ", ReasonRequired},
		{"fast", ReasonNotNumber},
		{"NaN", ReasonNotNumber},
		{"Inf", ReasonNotNumber},
		{"-1", ReasonOutOfRange},
		{"150", ReasonOutOfRange},
		{"100.01", ReasonOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			ferr := ValidateField(spec, tt.raw)
			if tt.reason == "" {
				assert.Nil(t, ferr)
				return
			}
			require.NotNil(t, ferr)
			assert.Equal(t, tt.reason, ferr.Reason)
			assert.Equal(t, "max_speed", ferr.Field)
			assert.NotEmpty(t, ferr.Message())
		})
	}

	optional := spec
	optional.Required = false
	assert.Nil(t, ValidateField(optional, ""))
}

func TestFieldErrorMessages(t *testing.T) {
	spec := numeric("pwm_freq", "PWM Frequency (Hz)", GroupControl, 0, 20000)

	ferr := ValidateField(spec, "25000")
	require.NotNil(t, ferr)
	assert.Equal(t, "pwm_freq: 25000 is out of range [0, 20000]", ferr.Error())
	assert.Equal(t, "must be between 0 and 20000", ferr.Message())

	assert.Equal(t, "pwm_freq: value is required", ValidateField(spec, "").Error())
	assert.Equal(t, `pwm_freq: "x" is not a number`, ValidateField(spec, "x").Error())
}

func TestValidateAndCoerce(t *testing.T) {
	s, err := Lookup(KindPropulsion)
	require.NoError(t, err)

	values := map[string]string{
		"acceleration":  "12.5",
		"ctrl_period":   "10",
		"pwm_freq":      "1000",
		"pwm_pin":       "21",
		"direction_pin": "17",
		"unknown":       "ignored",
	}
	assert.Empty(t, Validate(s, values))

	record, err := Coerce(s, values)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"acceleration":  12.5,
		"ctrl_period":   float64(10),
		"pwm_freq":      float64(1000),
		"pwm_pin":       float64(21),
		"direction_pin": float64(17),
	}, record)

	values["pwm_freq"] = "25000"
	delete(values, "pwm_pin")
	errs := Validate(s, values)
	require.Len(t, errs, 2)
	assert.Equal(t, ReasonOutOfRange, errs["pwm_freq"].Reason)
	assert.Equal(t, ReasonRequired, errs["pwm_pin"].Reason)

	_, err = Coerce(s, values)
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 2)
	assert.Equal(t, "pwm_freq: 25000 is out of range [0, 20000]; pwm_pin: value is required", err.Error())
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
		ok   bool
	}{
		{float64(80), "80", true},
		{12.5, "12.5", true},
		{float32(2), "2", true},
		{7, "7", true},
		{int64(9), "9", true},
		{true, "1", true},
		{"15", "15", true},
		{nil, "", false},
		{[]any{1}, "", false},
	}

	for _, tt := range tests {
		got, ok := FormatValue(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}
