package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestConsoleLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(LevelError, &buf)

	l.Debugf("debug %d", 1)
	l.Infof("info %d", 2)
	l.Errorf("error %d", 3)

	out := buf.String()
	if strings.Contains(out, "debug") || strings.Contains(out, "info") {
		t.Fatalf("expected debug/info suppressed at LevelError, got: %q", out)
	}
	if !strings.Contains(out, "error 3") {
		t.Fatalf("expected error message present, got: %q", out)
	}
}

func TestConsoleLoggerDebugLevelEmitsAll(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(LevelDebug, &buf)

	l.Debugf("d")
	l.Infof("i")
	l.Warnf("w")
	l.Errorf("e")

	out := buf.String()
	for _, want := range []string{"d", "i", "w", "e"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got: %q", want, out)
		}
	}
}

func TestNopLoggerNeverPanics(t *testing.T) {
	l := NopLogger()
	l.Debugf("x")
	l.Infof("x")
	l.Warnf("x")
	l.Errorf("x")
}

func TestOrNopHandlesNil(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatalf("expected non-nil logger")
	}
}
