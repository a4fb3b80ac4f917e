package logger

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestParseLogLevelRecognizesNames(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   DEBUG,
		"DEBUG":   DEBUG,
		"info":    INFO,
		"warn":    WARN,
		"warning": WARN,
		"error":   ERROR,
		"bogus":   INFO,
		"":        INFO,
	}
	for in, want := range cases {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerGatesBelowConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New("warn", log.New(&buf, "", 0))

	l.Debug("hidden %s", "debug")
	l.Info("hidden %s", "info")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below WARN, got %q", buf.String())
	}

	l.Warn("shown %s", "warn")
	if !strings.Contains(buf.String(), "shown warn") {
		t.Errorf("expected WARN message to be logged, got %q", buf.String())
	}
}

func TestLoggerErrorAlwaysLogsAtDefaultLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New("info", log.New(&buf, "", 0))

	l.Error("boom %d", 42)
	if !strings.Contains(buf.String(), "[ERROR] boom 42") {
		t.Errorf("expected tagged ERROR message, got %q", buf.String())
	}
}

func TestSetLevelChangesGating(t *testing.T) {
	var buf bytes.Buffer
	l := New("error", log.New(&buf, "", 0))

	l.Info("should be hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output before SetLevel, got %q", buf.String())
	}

	l.SetLevel("info")
	l.Info("should now show")
	if !strings.Contains(buf.String(), "should now show") {
		t.Errorf("expected message after lowering level, got %q", buf.String())
	}
}
