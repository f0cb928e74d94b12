package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Endpoint != "ws://127.0.0.1:7125/websocket" {
		t.Fatalf("Endpoint = %q, want ws://127.0.0.1:7125/websocket", cfg.Endpoint)
	}

	wantLog, err := expandPath(defaultLogFile)
	if err != nil {
		t.Fatalf("expandPath(defaultLogFile) returned error: %v", err)
	}
	if cfg.LogFile != wantLog {
		t.Fatalf("LogFile = %q, want %q", cfg.LogFile, wantLog)
	}
	if cfg.LogLevel != "info" || cfg.ClientName != "krui" {
		t.Fatalf("LogLevel/ClientName = %q/%q", cfg.LogLevel, cfg.ClientName)
	}
	if cfg.HistoryLimit != 50 || cfg.ConsoleLimit != 0 {
		t.Fatalf("limits = %d/%d, want 50/0", cfg.HistoryLimit, cfg.ConsoleLimit)
	}
	if cfg.ReconnectMin != 500*time.Millisecond || cfg.ReconnectMax != 30*time.Second || cfg.ReadTimeout != time.Minute {
		t.Fatalf("durations = %v/%v/%v", cfg.ReconnectMin, cfg.ReconnectMax, cfg.ReadTimeout)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeConfig(t, `
endpoint = "  voron.local  "
log_file = "  ~/logs/krui.log  "
log_level = " DEBUG "
client_name = "bench"
history_limit = 10
console_limit = 500
reconnect_min = "0s"
reconnect_max = "5s"
read_timeout = "0s"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Endpoint != "ws://voron.local/websocket" {
		t.Fatalf("Endpoint = %q", cfg.Endpoint)
	}
	if cfg.LogFile != filepath.Join(home, "logs/krui.log") {
		t.Fatalf("LogFile = %q, want it under HOME %q", cfg.LogFile, home)
	}
	if cfg.LogLevel != "debug" || cfg.ClientName != "bench" {
		t.Fatalf("LogLevel/ClientName = %q/%q", cfg.LogLevel, cfg.ClientName)
	}
	if cfg.HistoryLimit != 10 || cfg.ConsoleLimit != 500 {
		t.Fatalf("limits = %d/%d", cfg.HistoryLimit, cfg.ConsoleLimit)
	}
	if cfg.ReconnectMin != 0 || cfg.ReconnectMax != 5*time.Second || cfg.ReadTimeout != 0 {
		t.Fatalf("durations = %v/%v/%v", cfg.ReconnectMin, cfg.ReconnectMax, cfg.ReadTimeout)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := writeConfig(t, `
endpoint = "   "
log_file = ""
log_level = ""
history_limit = 0
reconnect_min = ""
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	def := Default()
	if cfg != def {
		t.Fatalf("Load = %+v, want defaults %+v", cfg, def)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"invalid toml", `endpoint = [`, "parse config"},
		{"bad scheme", `endpoint = "ftp://printer"`, "endpoint"},
		{"bad duration", `reconnect_max = "soon"`, "reconnect_max"},
		{"negative duration", `read_timeout = "-1s"`, "read_timeout"},
		{"min above max", "reconnect_min = \"1m\"\nreconnect_max = \"1s\"", "exceeds"},
		{"bad level", `log_level = "loud"`, "log_level"},
		{"negative console", `console_limit = -1`, "console_limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatalf("Load returned nil error, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load error = %q, want it to mention %q", err.Error(), tt.want)
			}
		})
	}
}

func TestSetEndpoint(t *testing.T) {
	cfg := Default()
	if err := cfg.SetEndpoint("https://printer.example:8443"); err != nil {
		t.Fatalf("SetEndpoint error = %v", err)
	}
	if cfg.Endpoint != "wss://printer.example:8443/websocket" {
		t.Fatalf("Endpoint = %q", cfg.Endpoint)
	}
	if err := cfg.SetEndpoint("ftp://x"); err == nil {
		t.Fatalf("SetEndpoint accepted ftp")
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}
