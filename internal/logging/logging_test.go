package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"error":   slog.LevelError,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"info":    slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"":        slog.LevelDebug,
	}
	for in, want := range cases {
		if got := levelFromString(in); got != want {
			t.Fatalf("levelFromString(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewWithWriterFormats(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewWithWriter(&buf, "info", "json").Info("file staged", "file", "blog_a.wav")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("json output expected: %v (%s)", err, buf.String())
	}
	if entry["msg"] != "file staged" || entry["file"] != "blog_a.wav" {
		t.Fatalf("unexpected entry %v", entry)
	}

	buf.Reset()
	logger := NewWithWriter(&buf, "warn", "text")
	logger.Info("hidden")
	logger.Warn("shown", "component", "watcher")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "msg=shown component=watcher") {
		t.Fatalf("unexpected text output %q", out)
	}
}
