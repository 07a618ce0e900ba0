package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"crates/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp inbox/hub directories
// per test. It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.Inbox = filepath.Join(base, "inbox")
	cfg.Paths.Hub = filepath.Join(base, "hub")

	for _, opt := range opts {
		opt(&cfg)
	}

	for _, dir := range []string{cfg.Paths.Inbox, cfg.Paths.Hub} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithWorkerCount pins the decode/classify worker count.
func WithWorkerCount(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workers.Count = n
	}
}

// WithConfidenceFloor overrides the low-confidence threshold.
func WithConfidenceFloor(floor float64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Scoring.ConfidenceFloor = floor
	}
}
