package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"crates/internal/services"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	cat, err := cfg.Catalog()
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if cat.Len() != 14 {
		t.Fatalf("stock catalog has %d buckets, want 14", cat.Len())
	}
}

func TestNormalizeResolvesWorkerDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := runtime.NumCPU()
	if want > 8 {
		want = 8
	}
	if cfg.Workers.Count != want {
		t.Fatalf("workers = %d, want min(NumCPU, 8) = %d", cfg.Workers.Count, want)
	}

	pinned := Default()
	pinned.Workers.Count = 3
	if err := pinned.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if pinned.Workers.Count != 3 {
		t.Fatalf("explicit worker count overwritten: %d", pinned.Workers.Count)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
inbox = "` + filepath.Join(dir, "inbox") + `"
hub = "` + filepath.Join(dir, "hub") + `"

[scoring]
confidence_floor = 0.6

[renames]
Kicks = "Kick Drums"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	if cfg.Scoring.ConfidenceFloor != 0.6 {
		t.Fatalf("confidence_floor = %v, want 0.6", cfg.Scoring.ConfidenceFloor)
	}
	// Untouched sections keep defaults.
	if cfg.Scoring.FolderWeight != defaultFolderWeight {
		t.Fatalf("folder_weight = %v, want default", cfg.Scoring.FolderWeight)
	}
	cat, err := cfg.Catalog()
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	bucket, _ := cat.Bucket("Kicks")
	if bucket.DisplayName != "Kick Drums" {
		t.Fatalf("rename not applied: %q", bucket.DisplayName)
	}
}

func TestLoadRejectsBadWeights(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[scoring]
folder_weight = -1.0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := Load(path); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoadRejectsInvertedFloors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[scoring]
confidence_floor = 0.2
unsorted_floor = 0.5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := Load(path); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNormalizeExtensions(t *testing.T) {
	got := normalizeExtensions([]string{"WAV", ".Mp3", "", ".wav"})
	want := []string{".wav", ".mp3"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestHubDerivedPaths(t *testing.T) {
	cfg := Default()
	cfg.Paths.Hub = "/srv/hub"
	if cfg.CachePath() != filepath.Join("/srv/hub", "logs", "feature_cache.json") {
		t.Fatalf("cache path = %q", cfg.CachePath())
	}
	if cfg.RunStorePath() != filepath.Join("/srv/hub", "logs", "runs.db") {
		t.Fatalf("run store path = %q", cfg.RunStorePath())
	}
	if cfg.LockPath() != filepath.Join("/srv/hub", "logs", "crates.lock") {
		t.Fatalf("lock path = %q", cfg.LockPath())
	}
}
