package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Modes(t *testing.T) {
	for _, mode := range []string{"development", "production", "PROD", ""} {
		l, err := New(mode, "")
		if err != nil {
			t.Fatalf("New(%q) error = %v", mode, err)
		}
		if l.SugaredLogger == nil {
			t.Errorf("New(%q) returned nil SugaredLogger", mode)
		}
	}
}

func TestNew_Level(t *testing.T) {
	tests := []struct {
		mode, level string
		debug, info bool
	}{
		{"development", "", true, true},
		{"production", "", false, true},
		{"development", "warn", false, false},
		{"production", "debug", true, true},
	}
	for _, tt := range tests {
		l, err := New(tt.mode, tt.level)
		if err != nil {
			t.Fatalf("New(%q, %q) error = %v", tt.mode, tt.level, err)
		}
		if got := l.Enabled(zapcore.DebugLevel); got != tt.debug {
			t.Errorf("New(%q, %q) debug enabled = %v, want %v", tt.mode, tt.level, got, tt.debug)
		}
		if got := l.Enabled(zapcore.InfoLevel); got != tt.info {
			t.Errorf("New(%q, %q) info enabled = %v, want %v", tt.mode, tt.level, got, tt.info)
		}
	}

	if _, err := New("development", "loud"); err == nil {
		t.Error("New(development, loud) expected error")
	}
}

func TestLogger_WithCarriesFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("context", "dlj").Info("opening report", "url", "http://example.org/dlj_editor.xlsx")
	l.Debug("dropped below level")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["context"] != "dlj" {
		t.Errorf("context field = %v, want dlj", fields["context"])
	}
	if fields["url"] != "http://example.org/dlj_editor.xlsx" {
		t.Errorf("url field = %v", fields["url"])
	}
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Info("nothing")
	l.Sync()
}
