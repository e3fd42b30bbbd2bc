package util

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("info", "json", &buf)
	log.Debug().Msg("hidden")
	log.Info().Str("metric", "memory").Msg("shown")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("json log line: %v (%q)", err, buf.String())
	}
	if entry["message"] != "shown" || entry["metric"] != "memory" || entry["level"] != "info" {
		t.Errorf("entry = %v", entry)
	}

	if got := NewLogger("nonsense", "console", &buf).GetLevel(); got != zerolog.WarnLevel {
		t.Errorf("bad level falls back to %v, want warn", got)
	}
	if got := NewLogger("disabled", "json", &buf).GetLevel(); got != zerolog.Disabled {
		t.Errorf("disabled level = %v", got)
	}
}
