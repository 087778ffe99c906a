package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestSetupText(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger, err := Setup("warn", "text", &buf)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "path", "log.csv")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info record should be filtered: %q", out)
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "path=log.csv") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestSetupJSON(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger, err := Setup("DEBUG", "json", &buf)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	logger.Debug("loaded", "records", 2)
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not json: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "loaded" || entry["records"] != float64(2) {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if slog.Default() != logger {
		t.Fatalf("Setup should install the default logger")
	}
}

func TestSetupRejectsUnknownValues(t *testing.T) {
	if _, err := Setup("loud", "text", &bytes.Buffer{}); err == nil {
		t.Fatalf("expected level error")
	}
	if _, err := Setup("info", "xml", &bytes.Buffer{}); err == nil {
		t.Fatalf("expected format error")
	}
}

func TestParseLevelWarningAlias(t *testing.T) {
	for _, name := range []string{"warn", "warning", "WARNING"} {
		lvl, err := ParseLevel(name)
		if err != nil || lvl != slog.LevelWarn {
			t.Fatalf("ParseLevel(%q) = %v, %v", name, lvl, err)
		}
	}
}
