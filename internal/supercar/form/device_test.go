package form_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloupeer.io/supercar/internal/supercar/form"
	"cloupeer.io/supercar/internal/supercar/remote"
	"cloupeer.io/supercar/internal/supercar/route"
)

// A device whose propulsion motor refuses every update.
func TestSubmitRejectedByDevice(t *testing.T) {
	var puts atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/supercar/propulsion/config", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"acceleration":  30,
			"ctrl_period":   10,
			"pwm_freq":      1000,
			"pwm_pin":       21,
			"direction_pin": 17,
		})
	})
	mux.HandleFunc("PUT /api/supercar/propulsion/config", func(w http.ResponseWriter, r *http.Request) {
		puts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	rc, err := remote.NewClient(srv.URL + "/api/")
	require.NoError(t, err)
	c := form.NewController(route.Motor, rc)

	require.NoError(t, c.Activate(context.Background(), route.TargetPropulsion))
	require.NoError(t, c.Edit("acceleration", "40"))
	before := c.Snapshot()

	err = c.Submit(context.Background())
	require.ErrorIs(t, err, remote.ErrRemoteRejected)
	assert.Equal(t, http.StatusInternalServerError, remote.StatusCode(err))
	assert.Equal(t, int32(1), puts.Load())

	after := c.Snapshot()
	assert.Equal(t, form.StateSubmitFailed, after.State)
	assert.Equal(t, before.Fields, after.Fields)
	assert.Equal(t, "40", after.Values()["acceleration"])
}

func TestSubmitSendsFullRecord(t *testing.T) {
	var body map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/supercar/config", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"max_speed":80,"delta_speed":5,"distance_threshold_forward":10,` +
			`"distance_threshold_backward":8,"mode_input_pin":13,"mode_output_pin":4,"power_output_pin":0}`))
	})
	mux.HandleFunc("PUT /api/supercar/config", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	rc, err := remote.NewClient(srv.URL + "/api/")
	require.NoError(t, err)
	c := form.NewController(route.Main, rc)

	require.NoError(t, c.Activate(context.Background(), ""))
	require.NoError(t, c.Edit("max_speed", "90"))
	require.NoError(t, c.Submit(context.Background()))

	assert.Equal(t, map[string]any{
		"max_speed":                   float64(90),
		"delta_speed":                 float64(5),
		"distance_threshold_forward":  float64(10),
		"distance_threshold_backward": float64(8),
		"mode_input_pin":              float64(13),
		"mode_output_pin":             float64(4),
		"power_output_pin":            float64(0),
	}, body)
	assert.Equal(t, form.StateReady, c.State())
}
