package simulator

import (
	"math"
	"sync"

	"cloupeer.io/supercar/internal/supercar/schema"
)

// floatFields keep their fraction when applied; every other field is
// truncated to an integer like the controller firmware does.
var floatFields = map[string]bool{
	"acceleration": true,
}

// Device is an in-memory vehicle controller.
type Device struct {
	mu sync.RWMutex

	power            bool
	mode             string
	appliedMode      string
	controlType      string
	steering         string
	running          string
	reverseDirection bool
	reverseMode      bool
	distance         map[string]float64

	configs map[schema.Kind]map[string]float64
	faults  map[string]int
}

// NewDevice returns a device carrying the firmware defaults.
func NewDevice() *Device {
	return &Device{
		mode:        "MOTION",
		appliedMode: "MOTION",
		controlType: "LOCAL",
		steering:    "NONE",
		running:     "NONE",
		distance: map[string]float64{
			"front_left":  200,
			"front_right": 200,
			"back_left":   200,
			"back_right":  200,
		},
		configs: map[schema.Kind]map[string]float64{
			schema.KindMain: {
				"max_speed":                   50,
				"delta_speed":                 5,
				"distance_threshold_forward":  10,
				"distance_threshold_backward": 10,
				"mode_input_pin":              13,
				"mode_output_pin":             4,
				"power_output_pin":            0,
			},
			schema.KindPropulsion: {
				"acceleration":  0,
				"ctrl_period":   10,
				"pwm_freq":      1000,
				"pwm_pin":       21,
				"direction_pin": 17,
			},
			schema.KindSteering: {
				"acceleration":  0,
				"ctrl_period":   10,
				"pwm_freq":      1000,
				"pwm_pin":       19,
				"direction_pin": 18,
			},
		},
		faults: map[string]int{},
	}
}

// SetPower switches the vehicle on or off.
func (d *Device) SetPower(on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.power = on
}

// SetFault makes every request on path fail with code. Code 0 clears the fault.
func (d *Device) SetFault(path string, code int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if code == 0 {
		delete(d.faults, path)
		return
	}
	d.faults[path] = code
}

// Fault returns the status code injected for path, or 0.
func (d *Device) Fault(path string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.faults[path]
}

// Config returns a copy of the configuration of kind.
func (d *Device) Config(kind schema.Kind) map[string]any {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.configLocked(kind)
}

func (d *Device) configLocked(kind schema.Kind) map[string]any {
	cfg := d.configs[kind]
	out := make(map[string]any, len(cfg))
	for k, v := range cfg {
		out[k] = v
	}
	return out
}

// Apply stores the known numeric fields of body into the configuration of
// kind. Unknown and non-numeric fields are ignored. No range is enforced.
func (d *Device) Apply(kind schema.Kind, body map[string]any) {
	s, err := schema.Lookup(kind)
	if err != nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	cfg := d.configs[kind]
	for _, f := range s.Fields {
		n, ok := body[f.Name].(float64)
		if !ok {
			continue
		}
		if !floatFields[f.Name] {
			n = math.Trunc(n)
		}
		cfg[f.Name] = n
	}
}

// Status returns the status snapshot served on the status resource.
func (d *Device) Status() map[string]any {
	d.mu.RLock()
	defer d.mu.RUnlock()

	distance := make(map[string]any, len(d.distance))
	for k, v := range d.distance {
		distance[k] = v
	}

	return map[string]any{
		"power":                 d.power,
		"propulsion_motor_ctrl": d.motorLocked(schema.KindPropulsion),
		"steering_motor_ctrl":   d.motorLocked(schema.KindSteering),
		"mode":                  d.mode,
		"applied_mode":          d.appliedMode,
		"control_type":          d.controlType,
		"steering":              d.steering,
		"reverse_direction":     d.reverseDirection,
		"reverse_mode":          d.reverseMode,
		"running":               d.running,
		"distance":              distance,
		"cfg":                   d.configLocked(schema.KindMain),
	}
}

func (d *Device) motorLocked(kind schema.Kind) map[string]any {
	return map[string]any{
		"start_time": float64(0),
		"start_flag": false,
		"duty_cycle": float64(0),
		"direction":  "RIGHT",
		"expt":       float64(0),
		"name":       string(kind),
		"cfg":        d.configLocked(kind),
	}
}
