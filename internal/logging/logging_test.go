package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/phuslu/log"
)

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New("warn", &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Str("path", "/tmp/log").Msg("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info entry written at warn level: %q", out)
	}
	if !strings.Contains(out, "visible") || !strings.Contains(out, "/tmp/log") {
		t.Fatalf("warn entry missing: %q", out)
	}
}

func TestNewUnknownLevelIsInfo(t *testing.T) {
	logger := New("chatty", &bytes.Buffer{})
	if logger.Level != log.InfoLevel {
		t.Fatalf("expected info level, got %v", logger.Level)
	}
}
