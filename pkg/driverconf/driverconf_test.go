package driverconf

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spectrum.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
requested_vcc: 33
ignore_voltage: true
trace_path: /var/log/spectrum-trace.cbor
log_level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RequestedVcc != 33 {
		t.Errorf("RequestedVcc = %d, want 33", cfg.RequestedVcc)
	}
	if !cfg.IgnoreVoltage {
		t.Error("IgnoreVoltage = false, want true")
	}
	if cfg.TracePath != "/var/log/spectrum-trace.cbor" {
		t.Errorf("TracePath = %q", cfg.TracePath)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "ignore_voltage: true\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.RequestedVcc != Default().RequestedVcc {
		t.Errorf("RequestedVcc = %d, want default %d", cfg.RequestedVcc, Default().RequestedVcc)
	}
	if cfg.LogLevel != Default().LogLevel {
		t.Errorf("LogLevel = %q, want default %q", cfg.LogLevel, Default().LogLevel)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"BadYAML", "requested_vcc: [oops\n"},
		{"BadVcc", "requested_vcc: -5\n"},
		{"BadLogLevel", "log_level: loud\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("Load() succeeded, want error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load() succeeded on missing file")
	}
}
