package options

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *DeviceOptions)
		wantErr int
	}{
		{"defaults", func(o *DeviceOptions) {}, 0},
		{"https url", func(o *DeviceOptions) { o.URL = "https://car.local/api/" }, 0},
		{"relative url", func(o *DeviceOptions) { o.URL = "/api/" }, 1},
		{"unsupported scheme", func(o *DeviceOptions) { o.URL = "ftp://10.0.0.120/api/" }, 1},
		{"empty id", func(o *DeviceOptions) { o.ID = "" }, 1},
		{"zero timeout and interval", func(o *DeviceOptions) { o.Timeout = 0; o.PollInterval = 0 }, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewDeviceOptions()
			tt.mutate(o)
			assert.Len(t, o.Validate(), tt.wantErr)
		})
	}
}

func TestDeviceOptionsFlags(t *testing.T) {
	o := NewDeviceOptions()
	fs := pflag.NewFlagSet("device", pflag.ContinueOnError)
	o.AddFlags(fs)

	require.NoError(t, fs.Parse([]string{
		"--device.url=http://127.0.0.1:8080/api/",
		"--device.poll-interval=500ms",
	}))
	assert.Equal(t, "http://127.0.0.1:8080/api/", o.URL)
	assert.Equal(t, 500*time.Millisecond, o.PollInterval)
	assert.Equal(t, 5*time.Second, o.Timeout)
}

func TestOptionalGroupsDisabledByDefault(t *testing.T) {
	h := NewHttpOptions()
	m := NewMqttOptions()
	assert.False(t, h.Enabled())
	assert.False(t, m.Enabled())
	assert.Empty(t, h.Validate())
	assert.Empty(t, m.Validate())
}

func TestMqttOptionsValidate(t *testing.T) {
	m := NewMqttOptions()
	m.Broker = "tcp://broker.local:1883"
	assert.Empty(t, m.Validate())

	m.QoS = 3
	m.TopicRoot = ""
	assert.Len(t, m.Validate(), 2)

	cfg := m.ToClientConfig()
	assert.Equal(t, "tcp://broker.local:1883", cfg.BrokerURL)
	assert.Equal(t, uint16(60), cfg.KeepAlive)
}

func TestValidateAddress(t *testing.T) {
	assert.NoError(t, ValidateAddress("127.0.0.1:9090"))
	assert.NoError(t, ValidateAddress(":9090"))
	assert.Error(t, ValidateAddress("127.0.0.1"))
	assert.Error(t, ValidateAddress("127.0.0.1:http"))
}
