package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerWritesStructuredField(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapLogger(zap.New(core))

	log.InfoObj("batch decoded", "batch_meta", map[string]any{"vins": 3})
	log.DebugObj("debug", "k", 1)

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	meta, ok := ctx["batch_meta"].(map[string]any)
	if !ok || meta["vins"] != 3 {
		t.Fatalf("unexpected field %#v", ctx["batch_meta"])
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestPackageHelpersAreSafeBeforeInit(t *testing.T) {
	S = nil
	InfoObj("noop", "k", "v")
	if err := Close(); err != nil {
		t.Fatalf("Close before Init: %v", err)
	}
}
