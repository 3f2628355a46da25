package debug

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestEnabled(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		verbose  bool
		want     bool
	}{
		{"enabled with value", "1", false, true},
		{"enabled with any value", "true", false, true},
		{"disabled when empty", "", false, false},
		{"verbose flag", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldEnabled, oldVerbose := enabled, verboseMode
			defer func() { enabled, verboseMode = oldEnabled, oldVerbose }()

			enabled = tt.envValue != ""
			SetVerbose(tt.verbose)

			if got := Enabled(); got != tt.want {
				t.Errorf("Enabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	oldStderr := os.Stderr
	defer func() { os.Stderr = oldStderr }()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stderr = w
	fn()
	w.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestLogf(t *testing.T) {
	tests := []struct {
		name       string
		enabled    bool
		wantOutput string
	}{
		{"outputs when enabled", true, "test message: hello\n"},
		{"no output when disabled", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldEnabled := enabled
			defer func() { enabled = oldEnabled }()
			enabled = tt.enabled

			got := captureStderr(t, func() { Logf("test message: %s\n", "hello") })
			if got != tt.wantOutput {
				t.Errorf("Logf() output = %q, want %q", got, tt.wantOutput)
			}
		})
	}
}

func TestQuiet(t *testing.T) {
	defer SetQuiet(false)
	SetQuiet(true)
	if !IsQuiet() {
		t.Error("IsQuiet() = false after SetQuiet(true)")
	}
	SetQuiet(false)
	if IsQuiet() {
		t.Error("IsQuiet() = true after SetQuiet(false)")
	}
}

func TestLevel(t *testing.T) {
	oldEnabled, oldVerbose, oldQuiet := enabled, verboseMode, quietMode
	defer func() { enabled, verboseMode, quietMode = oldEnabled, oldVerbose, oldQuiet }()

	enabled, verboseMode, quietMode = false, false, false
	if got := Level(); got != slog.LevelInfo {
		t.Errorf("Level() = %v, want INFO", got)
	}
	quietMode = true
	if got := Level(); got != slog.LevelError {
		t.Errorf("Level() quiet = %v, want ERROR", got)
	}
	verboseMode = true
	if got := Level(); got != slog.LevelDebug {
		t.Errorf("Level() verbose = %v, want DEBUG (verbose wins over quiet)", got)
	}
}

func TestNewLogger(t *testing.T) {
	oldEnabled, oldVerbose, oldQuiet := enabled, verboseMode, quietMode
	defer func() { enabled, verboseMode, quietMode = oldEnabled, oldVerbose, oldQuiet }()
	enabled, verboseMode, quietMode = false, false, false

	var buf bytes.Buffer
	logger := NewLogger(&buf)
	logger.Debug("hidden")
	logger.Info("shown", "key", "value")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record written at info level: %q", out)
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "key=value") {
		t.Errorf("info record missing: %q", out)
	}
}
