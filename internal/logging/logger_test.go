// Package logging includes tests for the zap logger helpers.
package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// TestNewDevelopmentLogger confirms the development logger builds and logs.
func TestNewDevelopmentLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(true)
	if err != nil {
		t.Fatalf("New(true) error = %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger to be non-nil")
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logger.Info("development logger ready")
}

// TestNewProductionLogger ensures the production logger configuration succeeds.
func TestNewProductionLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(false)
	if err != nil {
		t.Fatalf("New(false) error = %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger to be non-nil")
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logger.Info("production logger ready")
}

// TestForJobAttachesRunID checks the job name and run id travel with entries.
func TestForJobAttachesRunID(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	ForJob(zap.New(core), "parse", "run-1").Info("hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	if entries[0].LoggerName != "parse" {
		t.Fatalf("expected logger name parse, got %q", entries[0].LoggerName)
	}
	if got := entries[0].ContextMap()["run_id"]; got != "run-1" {
		t.Fatalf("expected run_id run-1, got %v", got)
	}
}

// TestForJobNilLogger ensures a nil base logger is tolerated.
func TestForJobNilLogger(t *testing.T) {
	t.Parallel()

	if ForJob(nil, "download", "run-2") == nil {
		t.Fatal("expected a logger")
	}
}
