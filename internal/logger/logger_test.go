package logger

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWrapWritesStructuredFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := Wrap(zap.New(core)).With(String("store", "/tmp/h.db"))

	log.Info("opened", Int("schema_version", 2), Int64("id", 42))
	log.Debugf("bumped %d", 7)
	log.Error("failed", Error(errors.New("boom")))

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx["store"] != "/tmp/h.db" {
		t.Errorf("expected store field from With, got %v", ctx["store"])
	}
	if ctx["schema_version"] != int64(2) {
		t.Errorf("expected schema_version=2, got %v", ctx["schema_version"])
	}
	if entries[1].Message != "bumped 7" {
		t.Errorf("unexpected message %q", entries[1].Message)
	}
	if entries[2].ContextMap()["error"] != "boom" {
		t.Errorf("expected error field, got %v", entries[2].ContextMap()["error"])
	}
}

func TestNew(t *testing.T) {
	for _, pretty := range []bool{true, false} {
		log, err := New("warn", pretty)
		if err != nil {
			t.Fatalf("New(pretty=%t) error = %v", pretty, err)
		}
		log.Info("dropped")
		_ = log.Sync()
	}
}

func TestValidLevel(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "error"} {
		if !ValidLevel(lvl) {
			t.Errorf("expected %q to be valid", lvl)
		}
	}
	if ValidLevel("loud") {
		t.Error("expected unknown level to be invalid")
	}
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Warn("nothing")
	log.With(Int("k", 1)).Errorf("still %s", "nothing")
}
