package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSetupJSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, "json", "debug")
	defer Setup(os.Stderr, "text", "info")

	InfoWithComponent(ComponentDither, "frame published", "row", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["component"] != ComponentDither {
		t.Errorf("component = %v, want %q", entry["component"], ComponentDither)
	}
	if entry["msg"] != "frame published" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["row"] != float64(3) {
		t.Errorf("row = %v, want 3", entry["row"])
	}
}

func TestSetupTextRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, "text", "warn")
	defer Setup(os.Stderr, "text", "info")

	Info("hidden")
	Warn("shown", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "key=value") {
		t.Errorf("warn message missing: %q", out)
	}
}
