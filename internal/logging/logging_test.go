package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSetupWriterFormats(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	log := SetupWriter(&buf, "info", "json")
	log.Debug("hidden")
	log.Info("sample accepted", "accuracy", 8)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("json output %q: %v", buf.String(), err)
	}
	if line["msg"] != "sample accepted" || line["accuracy"] != float64(8) {
		t.Fatalf("unexpected record %v", line)
	}

	buf.Reset()
	SetupWriter(&buf, "debug", "text")
	slog.Debug("session ended", "session", 3)
	if out := buf.String(); !strings.Contains(out, "msg=\"session ended\"") || !strings.Contains(out, "session=3") {
		t.Fatalf("text output %q", out)
	}
}
