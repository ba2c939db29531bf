package options

import (
	"errors"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*DeviceOptions)(nil)

// DefaultDeviceURL is the address the controller firmware serves its API on.
const DefaultDeviceURL = "http://10.0.0.120/api/"

// DeviceOptions describes how to reach the vehicle controller.
type DeviceOptions struct {
	// URL is the API base; resource paths such as "supercar/config" are appended to it.
	URL string `json:"url" mapstructure:"url"`

	// ID names the device in relayed topics and metrics.
	ID string `json:"id" mapstructure:"id"`

	// Timeout bounds a single request to the device.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// PollInterval is the status polling period of the watcher.
	PollInterval time.Duration `json:"poll-interval" mapstructure:"poll-interval"`
}

// NewDeviceOptions creates a DeviceOptions object with default parameters.
func NewDeviceOptions() *DeviceOptions {
	return &DeviceOptions{
		URL:          DefaultDeviceURL,
		ID:           "supercar",
		Timeout:      5 * time.Second,
		PollInterval: 2 * time.Second,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *DeviceOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}

	if err := ValidateURL(o.URL, "http", "https"); err != nil {
		errs = append(errs, err)
	}
	if o.ID == "" {
		errs = append(errs, errors.New("--device.id must not be empty"))
	}
	if o.Timeout <= 0 {
		errs = append(errs, errors.New("--device.timeout must be positive"))
	}
	if o.PollInterval <= 0 {
		errs = append(errs, errors.New("--device.poll-interval must be positive"))
	}

	return errs
}

// AddFlags adds flags for DeviceOptions to the specified FlagSet.
func (o *DeviceOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.URL, "device.url", o.URL, "Base URL of the vehicle controller API.")
	fs.StringVar(&o.ID, "device.id", o.ID, "Identifier of the vehicle controller used in topics and metrics.")
	fs.DurationVar(&o.Timeout, "device.timeout", o.Timeout, "Timeout for a single request to the vehicle controller.")
	fs.DurationVar(&o.PollInterval, "device.poll-interval", o.PollInterval, "Interval between two status polls.")
}
