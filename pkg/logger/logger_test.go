package logger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func resetLogger(t *testing.T) {
	t.Helper()
	log = zap.NewNop()
	once = sync.Once{}
	t.Cleanup(func() {
		log = zap.NewNop()
		once = sync.Once{}
	})
}

func TestHelpersBeforeInitDoNotPanic(t *testing.T) {
	resetLogger(t)
	Info(context.Background(), "info")
	Warn(context.Background(), "warn")
	Error(context.Background(), "error")
	Debug(context.Background(), "debug")
	if GetLogger() == nil {
		t.Fatal("expected no-op logger before init")
	}
}

func TestInitAndContextLogging(t *testing.T) {
	resetLogger(t)
	Init("development")
	if GetLogger() == nil {
		t.Fatal("expected logger initialized")
	}

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	if WithContext(ctx) == nil {
		t.Fatal("expected contextual logger")
	}
}

func TestWithContextNil(t *testing.T) {
	resetLogger(t)
	//nolint:staticcheck // nil context is handled explicitly
	if WithContext(nil) == nil {
		t.Fatal("expected base logger for nil context")
	}
}

func TestWithContextAddsCorrelationID(t *testing.T) {
	resetLogger(t)
	core, logs := observer.New(zap.DebugLevel)
	SetLogger(zap.New(core))

	ctx := WithCorrelationID(context.Background(), "corr-1")
	ctx = context.WithValue(ctx, RequestIDKey, "req-2")
	Warn(ctx, "something happened")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["correlation_id"] != "corr-1" || fields["request_id"] != "req-2" {
		t.Fatalf("unexpected fields: %v", fields)
	}
}

func TestSetLoggerNilFallsBackToNop(t *testing.T) {
	resetLogger(t)
	SetLogger(nil)
	if GetLogger() == nil {
		t.Fatal("expected nop logger")
	}
}

func TestInit_Production(t *testing.T) {
	resetLogger(t)
	Init("production")
	if GetLogger() == nil {
		t.Fatal("expected production logger initialized")
	}
}

func TestInit_PanicWhenLoggerBuildFails(t *testing.T) {
	resetLogger(t)
	origBuild := buildLogger
	t.Cleanup(func() { buildLogger = origBuild })

	buildLogger = func(zap.Config) (*zap.Logger, error) {
		return nil, errors.New("build failed")
	}

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic when logger builder fails")
		}
	}()
	Init("production")
}
