package schema_test

import (
	"fmt"

	"cloupeer.io/supercar/internal/supercar/schema"
)

func ExampleValidate() {
	s, _ := schema.Lookup(schema.KindMain)

	errs := schema.Validate(s, map[string]string{
		"max_speed":                   "150",
		"delta_speed":                 "5",
		"distance_threshold_forward":  "10",
		"distance_threshold_backward": "10",
		"mode_input_pin":              "13",
		"mode_output_pin":             "4",
		"power_output_pin":            "0",
	})
	for name, err := range errs {
		fmt.Println(name, err.Message())
	}
	// Output: max_speed must be between 0 and 100
}
