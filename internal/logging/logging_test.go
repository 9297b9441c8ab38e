package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestOptionsFromEnvDefaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")

	opts := OptionsFromEnv()
	if opts.Level != "info" || opts.Format != FormatConsole {
		t.Fatalf("unexpected defaults: %+v", opts)
	}
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", " DEBUG ")
	t.Setenv("LOG_FORMAT", "JSON")

	opts := OptionsFromEnv()
	if opts.Level != "debug" || opts.Format != FormatJSON {
		t.Fatalf("unexpected options: %+v", opts)
	}
}

func TestNewAppliesLevel(t *testing.T) {
	for _, format := range []string{FormatJSON, FormatConsole} {
		logger, err := New(Options{Level: "warn", Format: format})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", format, err)
		}
		if logger.Core().Enabled(zapcore.InfoLevel) {
			t.Fatalf("%s: info should be disabled at warn level", format)
		}
		if !logger.Core().Enabled(zapcore.WarnLevel) {
			t.Fatalf("%s: warn should be enabled", format)
		}
	}
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	if _, err := New(Options{Level: "loud", Format: FormatJSON}); err == nil {
		t.Fatal("expected error for invalid level")
	}
	if _, err := New(Options{Level: "info", Format: "xml"}); err == nil {
		t.Fatal("expected error for invalid format")
	}
}
