package logutil

import (
	"testing"

	"go.uber.org/zap"
)

func TestLoggerDefaultsToNonNil(t *testing.T) {
	if Logger() == nil {
		t.Fatal("expected a non-nil default logger")
	}
}

func TestInitLoggerToFileThenWith(t *testing.T) {
	dir := t.TempDir()
	if err := InitLogger(Config{File: dir + "/engine.log"}); err != nil {
		t.Fatalf("InitLogger: %v", err)
	}
	defer InitLogger(Config{})

	l := With(zap.String("run_id", "abc"))
	if l == nil {
		t.Fatal("expected With to return a non-nil logger")
	}
	l.Info("hello")
}

func TestMaxOrDefault(t *testing.T) {
	if got := maxOrDefault(0, 300); got != 300 {
		t.Fatalf("expected default 300 for a non-positive value, got %d", got)
	}
	if got := maxOrDefault(42, 300); got != 42 {
		t.Fatalf("expected the explicit value 42 to win, got %d", got)
	}
}
