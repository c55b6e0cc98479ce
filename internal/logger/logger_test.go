package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLevel(t *testing.T) {
	if l := New("debug", false); l.GetLevel() != zerolog.DebugLevel {
		t.Fatalf("expected debug level, got %s", l.GetLevel())
	}
	if l := New("WARN", true); l.GetLevel() != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %s", l.GetLevel())
	}
	if l := New("invalid", false); l.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info fallback, got %s", l.GetLevel())
	}
	if l := New("", false); l.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info for empty level, got %s", l.GetLevel())
	}
}

func TestNewWithWriterFilters(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "warn")

	l.Info().Msg("hidden")
	l.Warn().Str("pair", "EUR/USD").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, `"pair":"EUR/USD"`) || !strings.Contains(out, "shown") {
		t.Errorf("expected structured warn line, got %q", out)
	}
}
