package options

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsDefaults(t *testing.T) {
	o := NewOptions()
	require.NoError(t, o.Validate())

	fss := o.Flags()
	for _, name := range []string{"device", "http", "mqtt", "log"} {
		assert.Contains(t, fss.FlagSets, name)
	}

	cfg := o.Config()
	assert.Same(t, o.Device, cfg.DeviceOptions)
	assert.False(t, cfg.HttpOptions.Enabled())
	assert.False(t, cfg.MqttOptions.Enabled())
}

func TestOptionsValidate(t *testing.T) {
	o := NewOptions()
	o.Device.URL = "ftp://device"
	o.Device.PollInterval = 0
	o.Log.Level = "loud"

	err := o.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--device.poll-interval")
	assert.Contains(t, err.Error(), "--log.level")

	o = NewOptions()
	o.Device.PollInterval = 500 * time.Millisecond
	o.Http.Addr = "127.0.0.1:9090"
	assert.NoError(t, o.Validate())
}
