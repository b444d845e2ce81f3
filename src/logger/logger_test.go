package logger

import (
	"bytes"
	"strings"
	"testing"
)

type fakeConfig struct{ level string }

func (f fakeConfig) GetLogLevel() string { return f.level }

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"DEBUG", LevelDebug},
		{"debug", LevelDebug},
		{"warn", LevelWarning},
		{"ERROR", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(fakeConfig{level: "WARNING"}, "test")
	l.SetOutput(&buf)

	l.Debug("hidden %d", 1)
	l.Info("hidden %d", 2)
	l.Warning("shown %d", 3)
	l.Error("shown %d", 4)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("output contains filtered lines: %q", out)
	}
	if !strings.Contains(out, "[test] WARNING: shown 3") || !strings.Contains(out, "[test] ERROR: shown 4") {
		t.Errorf("output missing expected lines: %q", out)
	}
}

func TestNamedSharesLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(fakeConfig{level: "ERROR"}, "root")
	l.SetOutput(&buf)
	child := l.Named("child")
	child.Warning("dropped")
	child.Error("kept")
	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "[child] ERROR: kept") {
		t.Errorf("unexpected output %q", buf.String())
	}
}
