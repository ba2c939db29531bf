package app

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/gosuri/uitable"
	"gopkg.in/yaml.v3"

	"cloupeer.io/supercar/internal/supercar/form"
	"cloupeer.io/supercar/internal/supercar/remote"
	"cloupeer.io/supercar/internal/supercar/schema"
	"cloupeer.io/supercar/internal/supercar/status"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

var formats = []string{formatTable, formatJSON, formatYAML}

func validateFormat(f string) error {
	if !slices.Contains(formats, f) {
		return fmt.Errorf("--output: must be one of %v, got %q", formats, f)
	}
	return nil
}

func printStatus(w io.Writer, s status.Status, format string) error {
	switch format {
	case formatJSON:
		return printJSON(w, s)
	case formatYAML:
		return printYAML(w, s)
	}

	table := uitable.New()
	table.MaxColWidth = 60
	table.AddRow("POWER:", s.Display())
	table.AddRow("MODE:", orNone(s.Mode))
	table.AddRow("APPLIED MODE:", orNone(s.AppliedMode))
	table.AddRow("CONTROL:", orNone(s.ControlType))
	table.AddRow("RUNNING:", orNone(s.Running))
	table.AddRow("STEERING:", orNone(s.Steering))
	table.AddRow("REVERSE:", fmt.Sprintf("direction=%t mode=%t", s.ReverseDirection, s.ReverseMode))
	if d := s.Distance; d != nil {
		table.AddRow("DISTANCE:", fmt.Sprintf("front %s/%s back %s/%s",
			schema.FormatNumber(d.FrontLeft), schema.FormatNumber(d.FrontRight),
			schema.FormatNumber(d.BackLeft), schema.FormatNumber(d.BackRight)))
	}
	for _, m := range []*status.MotorControl{s.PropulsionMotor, s.SteeringMotor} {
		if m == nil {
			continue
		}
		table.AddRow(strings.ToUpper(m.Name)+":", fmt.Sprintf("duty=%s%% direction=%s",
			schema.FormatNumber(m.DutyCycle), orNone(m.Direction)))
	}
	_, err := fmt.Fprintln(w, table)
	return err
}

func printConfig(w io.Writer, s *schema.Schema, record remote.Record, format string) error {
	switch format {
	case formatJSON:
		return printJSON(w, record)
	case formatYAML:
		return printYAML(w, record)
	}

	table := uitable.New()
	table.MaxColWidth = 50
	table.AddRow("FIELD", "VALUE", "RANGE", "DESCRIPTION")
	for _, f := range s.Fields {
		value := "<missing>"
		if v, ok := record[f.Name]; ok {
			if raw, ok := schema.FormatValue(v); ok {
				value = raw
			} else {
				value = fmt.Sprintf("<invalid %v>", v)
			}
		}
		table.AddRow(f.Name, value,
			schema.FormatNumber(f.Min)+"-"+schema.FormatNumber(f.Max), f.Label)
	}
	_, err := fmt.Fprintln(w, table)
	return err
}

// printInvalid lists the fields that blocked a submit.
func printInvalid(w io.Writer, snap form.Snapshot) {
	table := uitable.New()
	table.AddRow("FIELD", "VALUE", "ERROR")
	for _, f := range snap.Fields {
		if f.Err != nil {
			table.AddRow(f.Spec.Name, fmt.Sprintf("%q", f.Raw), f.Err.Message())
		}
	}
	fmt.Fprintln(w, table)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func orNone(s string) string {
	if s == "" {
		return "<none>"
	}
	return s
}
