package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewHonoursLevel(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := New("scan", "warn", &buf)
	logger.Info("hidden")
	logger.Warn("visible", "tick", 3)
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered: %q", out)
	}
	if !strings.Contains(out, "visible") || !strings.Contains(out, "tick=3") {
		t.Fatalf("expected warn line with fields, got %q", out)
	}
}

func TestNewUnknownLevelFallsBackToInfo(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := New("media", "chatty", &buf)
	logger.Debug("debug-line")
	logger.Info("info-line")
	if strings.Contains(buf.String(), "debug-line") {
		t.Fatalf("debug should be filtered at info level")
	}
	if !strings.Contains(buf.String(), "info-line") {
		t.Fatalf("info should be written")
	}
}

func TestOrDiscardNil(t *testing.T) {
	t.Parallel()
	if OrDiscard(nil) == nil {
		t.Fatalf("expected a usable logger")
	}
}
