package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"crates/internal/services"
)

func TestNewConsoleWritesAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("classified file", String("bucket", "Kicks"), Float64("confidence", 0.91))

	out := buf.String()
	if !strings.Contains(out, "classified file") {
		t.Fatalf("missing message: %q", out)
	}
	if !strings.Contains(out, "bucket=Kicks") {
		t.Fatalf("missing attr: %q", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("quiet")
	logger.Warn("loud")
	if strings.Contains(buf.String(), "quiet") {
		t.Fatalf("info leaked past warn level: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "loud") {
		t.Fatalf("warn suppressed: %q", buf.String())
	}
}

func TestWithContextAddsRunFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := services.WithRunID(context.Background(), "run-42")
	ctx = services.WithPack(ctx, "TrapKit")
	WithContext(ctx, logger).Info("routing")

	out := buf.String()
	if !strings.Contains(out, "run_id=run-42") || !strings.Contains(out, "pack=TrapKit") {
		t.Fatalf("context fields missing: %q", out)
	}
}
