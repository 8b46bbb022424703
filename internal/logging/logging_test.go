package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	logger, err := New(Config{Level: "debug"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if logger == nil {
		t.Fatal("nil logger")
	}

	child := logger.With(String("component", "test"))
	if child == nil {
		t.Fatal("With returned nil")
	}
	child.Debug("debug message", Int("n", 1))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
		{"WARN", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"nonsense", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNopLogger(t *testing.T) {
	logger := NewNop()
	logger.Info("ignored")
	logger.Warn("ignored")
	logger.Error("ignored")

	if logger.With(String("k", "v")) == nil {
		t.Error("With should return a usable logger")
	}
	if err := logger.Sync(); err != nil {
		t.Errorf("Sync: %v", err)
	}
}
