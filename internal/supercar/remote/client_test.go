package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloupeer.io/supercar/internal/pkg/metrics"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL + "/api/")
	require.NoError(t, err)
	return c
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		url string
		ok  bool
	}{
		{"http://10.0.0.120/api/", true},
		{"https://car.local/api", true},
		{"ftp://car.local/api", false},
		{"/api/", false},
		{"http://", false},
		{"://bad", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			_, err := NewClient(tt.url)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestURL(t *testing.T) {
	c, err := NewClient("http://10.0.0.120/api/")
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.120/api/supercar/config", c.URL("supercar/config"))
	assert.Equal(t, "http://10.0.0.120/api/supercar/steering/config", c.URL("/supercar/steering/config"))

	c, err = NewClient("http://10.0.0.120/api")
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.120/api/supercar", c.URL("supercar"))
	assert.Equal(t, "http://10.0.0.120/api", c.BaseURL())
}

func TestFetchResource(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/supercar/config", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"max_speed":80,"delta_speed":5,"extra":"x"}`)
	}))

	before := testutil.ToFloat64(metrics.RemoteRequestsTotal.WithLabelValues("fetch", "success"))

	record, err := c.FetchResource(context.Background(), "supercar/config")
	require.NoError(t, err)
	assert.Equal(t, Record{"max_speed": float64(80), "delta_speed": float64(5), "extra": "x"}, record)

	after := testutil.ToFloat64(metrics.RemoteRequestsTotal.WithLabelValues("fetch", "success"))
	assert.Equal(t, before+1, after)
}

func TestFetchResourceFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   error
	}{
		{"rejected", http.StatusInternalServerError, "boom", ErrRemoteRejected},
		{"not found", http.StatusNotFound, "", ErrRemoteRejected},
		{"redirect", http.StatusNotModified, "", ErrRemoteRejected},
		{"malformed", http.StatusOK, "{", ErrDecodeFailure},
		{"array", http.StatusOK, "[1,2]", ErrDecodeFailure},
		{"null", http.StatusOK, "null", ErrDecodeFailure},
		{"plain text", http.StatusOK, "ok", ErrDecodeFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))

			record, err := c.FetchResource(context.Background(), "supercar")
			require.Error(t, err)
			assert.Nil(t, record)
			assert.ErrorIs(t, err, tt.kind)

			var rerr *Error
			require.ErrorAs(t, err, &rerr)
			assert.Equal(t, OpFetch, rerr.Op)
			assert.Equal(t, "supercar", rerr.Path)
			if tt.kind == ErrRemoteRejected {
				assert.Equal(t, tt.status, rerr.StatusCode)
				assert.Equal(t, tt.status, StatusCode(err))
			}
		})
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL + "/api/"
	srv.Close()

	c, err := NewClient(base, WithTimeout(time.Second))
	require.NoError(t, err)

	_, err = c.FetchResource(context.Background(), "supercar")
	assert.ErrorIs(t, err, ErrTransportFailure)
	assert.Zero(t, StatusCode(err))

	err = c.ReplaceResource(context.Background(), "supercar/config", Record{"max_speed": 1})
	assert.ErrorIs(t, err, ErrTransportFailure)
	assert.Contains(t, err.Error(), "replace supercar/config: transport failure")
}

func TestCanceledContext(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchResource(ctx, "supercar")
	assert.ErrorIs(t, err, ErrTransportFailure)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReplaceResource(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/supercar/propulsion/config", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))

	record := Record{"acceleration": 12.5, "pwm_freq": float64(1000)}
	require.NoError(t, c.ReplaceResource(context.Background(), "supercar/propulsion/config", record))
	assert.Equal(t, map[string]any{"acceleration": 12.5, "pwm_freq": float64(1000)}, got)
}

func TestReplaceResourceRejected(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
	}))

	err := c.ReplaceResource(context.Background(), "supercar/config", Record{})
	require.Error(t, err)

	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, OpReplace, rerr.Op)
	assert.Equal(t, ErrRemoteRejected, rerr.Kind)
	assert.Equal(t, http.StatusBadRequest, rerr.StatusCode)
	assert.Equal(t, "Invalid JSON", rerr.Body)
	assert.Equal(t, "replace supercar/config: remote rejected: status 400", err.Error())
}

func TestOneExchangePerCall(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := c.FetchResource(context.Background(), "supercar")
	require.Error(t, err)
	_, err = c.FetchResource(context.Background(), "supercar")
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}
