package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitWriter_Level(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "info")
	defer Init("info")

	Debug("hidden", "frame", 1)
	if strings.Contains(buf.String(), "hidden") {
		t.Fatal("debug message logged at info level")
	}

	InitWriter(&buf, "debug")
	With("session", "abc").Debug("shown", "frame", 2)
	out := buf.String()
	if !strings.Contains(out, "shown") || !strings.Contains(out, "frame=2") || !strings.Contains(out, "session=abc") {
		t.Errorf("debug message missing after re-init, got %q", out)
	}
}
