package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestLevelSlog(t *testing.T) {
	tests := []struct {
		level Level
		want  slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{Level("verbose"), slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			if got := tt.level.Slog(); got != tt.want {
				t.Errorf("Slog() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFinalize(t *testing.T) {
	t.Setenv("SKYSHOW_LOG_LEVEL", "")
	t.Setenv("SKYSHOW_LOG_FORMAT", "")

	var c Config
	if err := c.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if c.Level != LevelInfo || c.Format != FormatText {
		t.Errorf("unexpected defaults %+v", c)
	}

	t.Setenv("SKYSHOW_LOG_LEVEL", "DEBUG")
	t.Setenv("SKYSHOW_LOG_FORMAT", "json")
	if err := c.Finalize(); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if c.Level != LevelDebug || c.Format != FormatJSON {
		t.Errorf("env overrides not applied: %+v", c)
	}

	t.Setenv("SKYSHOW_LOG_FORMAT", "xml")
	if err := c.Finalize(); err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelWarn, Format: FormatJSON}, &buf)

	log.Info("dropped")
	log.Warn("kept", "agent", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if rec["msg"] != "kept" || rec["agent"] != 3.0 {
		t.Errorf("unexpected record %v", rec)
	}
}
