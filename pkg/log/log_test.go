package log

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"k8s.io/klog/v2"
)

func TestInitWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.log")

	opts := NewOptions()
	opts.Format = "json"
	opts.Level = "debug"
	opts.OutputPaths = []string{path}
	Init(opts)
	t.Cleanup(func() { Init(&Options{Level: "fatal", Format: "json", OutputPaths: []string{os.DevNull}}) })

	Info("Hydrated form", "path", "supercar/config", "fields", 7)
	Error(errors.New("boom"), "Submit failed", "status", 500)
	_ = Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want 2: %q", len(lines), data)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode first entry: %v", err)
	}
	if entry["message"] != "Hydrated form" || entry["path"] != "supercar/config" {
		t.Errorf("unexpected entry: %v", entry)
	}

	if err := json.Unmarshal([]byte(lines[1]), &entry); err != nil {
		t.Fatalf("decode second entry: %v", err)
	}
	if entry["error"] != "boom" {
		t.Errorf("error field = %v, want boom", entry["error"])
	}
}

func TestOptionsValidate(t *testing.T) {
	opts := NewOptions()
	if errs := opts.Validate(); len(errs) != 0 {
		t.Fatalf("defaults should validate, got %v", errs)
	}

	opts.Level = "loud"
	opts.Format = "xml"
	if errs := opts.Validate(); len(errs) != 2 {
		t.Fatalf("got %d errors, want 2: %v", len(errs), errs)
	}
}

func TestWritesToTerminal(t *testing.T) {
	opts := NewOptions()
	if !opts.WritesToTerminal() {
		t.Error("stderr output should count as terminal")
	}

	opts.OutputPaths = []string{"/tmp/supercarctl.log"}
	if opts.WritesToTerminal() {
		t.Error("file output should not count as terminal")
	}
}

func TestLogrBridge(t *testing.T) {
	l := NewNopLogger()
	lr := l.WithName("form").WithValues("target", "steering").Logr()
	if lr.GetSink() == nil {
		t.Fatal("logr bridge should carry a sink")
	}
	lr.Info("bridged")
}

func TestInitRoutesKlog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "klog.log")

	opts := NewOptions()
	opts.Format = "json"
	opts.Level = "info"
	opts.OutputPaths = []string{path}
	Init(opts)
	t.Cleanup(func() {
		Init(&Options{Level: "fatal", Format: "json", OutputPaths: []string{os.DevNull}})
		klog.ClearLogger()
	})

	klog.InfoS("Received signal", "signal", "terminated")
	klog.Flush()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry); err != nil {
		t.Fatalf("decode entry %q: %v", data, err)
	}
	if entry["message"] != "Received signal" || entry["signal"] != "terminated" {
		t.Errorf("unexpected entry: %v", entry)
	}
}
