package status

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"cloupeer.io/supercar/internal/supercar/remote"
)

// Distance holds the four ultrasonic readings of the vehicle.
type Distance struct {
	FrontLeft  float64 `json:"front_left" yaml:"front_left"`
	FrontRight float64 `json:"front_right" yaml:"front_right"`
	BackLeft   float64 `json:"back_left" yaml:"back_left"`
	BackRight  float64 `json:"back_right" yaml:"back_right"`
}

// MotorControl is the runtime state of one motor controller.
type MotorControl struct {
	Name      string             `json:"name" yaml:"name"`
	StartTime float64            `json:"start_time" yaml:"start_time"`
	StartFlag bool               `json:"start_flag" yaml:"start_flag"`
	DutyCycle float64            `json:"duty_cycle" yaml:"duty_cycle"`
	Direction string             `json:"direction" yaml:"direction"`
	Expt      float64            `json:"expt" yaml:"expt"`
	Config    map[string]float64 `json:"cfg,omitempty" yaml:"cfg,omitempty"`
}

// Status is the read-only snapshot served on the status resource. Every field
// but Power is optional.
type Status struct {
	Power bool `json:"power" yaml:"power"`

	Mode             string `json:"mode,omitempty" yaml:"mode,omitempty"`
	AppliedMode      string `json:"applied_mode,omitempty" yaml:"applied_mode,omitempty"`
	ControlType      string `json:"control_type,omitempty" yaml:"control_type,omitempty"`
	Steering         string `json:"steering,omitempty" yaml:"steering,omitempty"`
	Running          string `json:"running,omitempty" yaml:"running,omitempty"`
	ReverseDirection bool   `json:"reverse_direction" yaml:"reverse_direction"`
	ReverseMode      bool   `json:"reverse_mode" yaml:"reverse_mode"`

	Distance        *Distance          `json:"distance,omitempty" yaml:"distance,omitempty"`
	PropulsionMotor *MotorControl      `json:"propulsion_motor_ctrl,omitempty" yaml:"propulsion_motor_ctrl,omitempty"`
	SteeringMotor   *MotorControl      `json:"steering_motor_ctrl,omitempty" yaml:"steering_motor_ctrl,omitempty"`
	Config          map[string]float64 `json:"cfg,omitempty" yaml:"cfg,omitempty"`
}

// Display renders the power state the way the dashboard shows it.
func (s Status) Display() string {
	if s.Power {
		return "ON"
	}
	return "OFF"
}

// Decode converts a status record into a Status. Unknown fields are ignored.
func Decode(record remote.Record) (Status, error) {
	var s Status
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &s,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Status{}, err
	}
	if err := dec.Decode(record); err != nil {
		return Status{}, fmt.Errorf("failed to decode status: %w", err)
	}
	return s, nil
}
