package simulator

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloupeer.io/supercar/internal/supercar/form"
	"cloupeer.io/supercar/internal/supercar/remote"
	"cloupeer.io/supercar/internal/supercar/route"
	"cloupeer.io/supercar/internal/supercar/schema"
	"cloupeer.io/supercar/internal/supercar/status"
	"cloupeer.io/supercar/pkg/options"
)

func newTestDevice(t *testing.T) (*Device, *httptest.Server, *remote.Client) {
	t.Helper()
	d := NewDevice()
	srv := httptest.NewServer(NewRouter(d, 0))
	t.Cleanup(srv.Close)

	rc, err := remote.NewClient(srv.URL + "/api/")
	require.NoError(t, err)
	return d, srv, rc
}

func put(t *testing.T, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPut, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestDefaultsMatchFirmware(t *testing.T) {
	_, _, rc := newTestDevice(t)

	cfg, err := rc.FetchResource(context.Background(), "supercar/config")
	require.NoError(t, err)
	assert.Equal(t, float64(50), cfg["max_speed"])
	assert.Equal(t, float64(13), cfg["mode_input_pin"])

	prop, err := rc.FetchResource(context.Background(), "supercar/propulsion/config")
	require.NoError(t, err)
	assert.Equal(t, float64(21), prop["pwm_pin"])
	assert.Equal(t, float64(17), prop["direction_pin"])

	steer, err := rc.FetchResource(context.Background(), "supercar/steering/config")
	require.NoError(t, err)
	assert.Equal(t, float64(19), steer["pwm_pin"])
	assert.Equal(t, float64(18), steer["direction_pin"])

	_, err = rc.FetchResource(context.Background(), "supercar/rudder/config")
	assert.ErrorIs(t, err, remote.ErrRemoteRejected)
}

func TestEverySchemaFieldIsServed(t *testing.T) {
	_, _, rc := newTestDevice(t)

	for _, kind := range schema.Kinds() {
		r, target, err := route.ForKind(kind)
		require.NoError(t, err)
		b, err := route.Resolve(r, target)
		require.NoError(t, err)

		record, err := rc.FetchResource(context.Background(), b.Path)
		require.NoError(t, err)

		s, err := schema.Lookup(kind)
		require.NoError(t, err)
		for _, name := range s.Names() {
			assert.Contains(t, record, name, "%s.%s", kind, name)
		}
	}
}

func TestPutAppliesKnownFieldsAndEchoes(t *testing.T) {
	d, srv, _ := newTestDevice(t)

	body := `{"acceleration":12.5,"pwm_freq":1500.9,"pwm_pin":"x","turbo":1}`
	resp := put(t, srv.URL+"/api/supercar/steering/config", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	echoed, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, body, string(echoed))

	cfg := d.Config(schema.KindSteering)
	assert.Equal(t, 12.5, cfg["acceleration"])
	assert.Equal(t, float64(1500), cfg["pwm_freq"])
	assert.Equal(t, float64(19), cfg["pwm_pin"])
	assert.NotContains(t, cfg, "turbo")

	// The other motor is untouched.
	assert.Equal(t, float64(1000), d.Config(schema.KindPropulsion)["pwm_freq"])
}

func TestPutRejectsUnparsableBody(t *testing.T) {
	_, srv, _ := newTestDevice(t)

	for _, body := range []string{"max_speed=5", "", "null"} {
		resp := put(t, srv.URL+"/api/supercar/config", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
}

func TestFaultInjection(t *testing.T) {
	d, srv, rc := newTestDevice(t)

	resp := put(t, srv.URL+"/sim/faults", `{"path":"supercar/propulsion/config","code":500}`)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 500, d.Fault("supercar/propulsion/config"))

	err := rc.ReplaceResource(context.Background(), "supercar/propulsion/config", remote.Record{"pwm_pin": float64(5)})
	require.ErrorIs(t, err, remote.ErrRemoteRejected)
	assert.Equal(t, 500, remote.StatusCode(err))
	assert.Equal(t, float64(21), d.Config(schema.KindPropulsion)["pwm_pin"])

	_, err = rc.FetchResource(context.Background(), "supercar/steering/config")
	require.NoError(t, err)

	resp = put(t, srv.URL+"/sim/faults", `{"path":"supercar/propulsion/config","code":0}`)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.NoError(t, rc.ReplaceResource(context.Background(), "supercar/propulsion/config", remote.Record{"pwm_pin": float64(5)}))

	resp = put(t, srv.URL+"/sim/faults", `{"path":"supercar","code":200}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatusFollowsPower(t *testing.T) {
	_, srv, rc := newTestDevice(t)
	v := status.NewView(rc)

	_, err := v.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "OFF", v.Display())

	resp := put(t, srv.URL+"/sim/power", `{"power":true}`)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	s, err := v.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ON", v.Display())
	require.NotNil(t, s.PropulsionMotor)
	assert.Equal(t, "propulsion", s.PropulsionMotor.Name)
	assert.Equal(t, float64(21), s.PropulsionMotor.Config["pwm_pin"])
	assert.Equal(t, "MOTION", s.Mode)
	require.NotNil(t, s.Distance)
}

func TestFormRoundTripAgainstDevice(t *testing.T) {
	d, _, rc := newTestDevice(t)
	c := form.NewController(route.Main, rc)

	require.NoError(t, c.Activate(context.Background(), ""))
	assert.Equal(t, "50", c.Snapshot().Values()["max_speed"])

	require.NoError(t, c.Edit("max_speed", "75"))
	require.NoError(t, c.Submit(context.Background()))
	assert.Equal(t, float64(75), d.Config(schema.KindMain)["max_speed"])

	// A fresh controller sees the stored value.
	c2 := form.NewController(route.Main, rc)
	require.NoError(t, c2.Activate(context.Background(), ""))
	assert.Equal(t, "75", c2.Snapshot().Values()["max_speed"])
}

func TestLatencyHonorsCancellation(t *testing.T) {
	d := NewDevice()
	srv := httptest.NewServer(NewRouter(d, time.Minute))
	defer srv.Close()

	rc, err := remote.NewClient(srv.URL + "/api/")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = rc.FetchResource(ctx, "supercar")
	assert.ErrorIs(t, err, remote.ErrTransportFailure)
}

func TestHealthAndMetrics(t *testing.T) {
	_, srv, rc := newTestDevice(t)
	_, err := rc.FetchResource(context.Background(), "supercar")
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	mresp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer mresp.Body.Close()
	body, err := io.ReadAll(mresp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `supercar_simulator_requests_total{code="200",method="GET",route="/api/supercar"}`)
}

func TestNewSimulatorRequiresAddress(t *testing.T) {
	cfg := &Config{HttpOptions: options.NewHttpOptions()}
	_, err := cfg.NewSimulator()
	require.Error(t, err)

	cfg.HttpOptions.Addr = "127.0.0.1:0"
	cfg.PowerOn = true
	sim, err := cfg.NewSimulator()
	require.NoError(t, err)
	assert.True(t, sim.Device().Status()["power"].(bool))
}

func TestRunStopsOnCancel(t *testing.T) {
	opts := options.NewHttpOptions()
	opts.Addr = "127.0.0.1:0"
	sim, err := (&Config{HttpOptions: opts}).NewSimulator()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sim.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("simulator did not stop")
	}
}
