package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"crates/internal/config"
)

func TestRunAllPasses(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.Inbox = t.TempDir()
	cfg.Paths.Hub = t.TempDir()

	results := RunAll(&cfg, true, true)
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}

func TestReadOnlyRunSkipsHubAndCreatesNothing(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.Inbox = t.TempDir()
	hub := filepath.Join(t.TempDir(), "hub")
	cfg.Paths.Hub = hub

	results := RunAll(&cfg, false, false)
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("read-only preflight over missing hub failed: %+v", failed)
	}
	if _, err := os.Stat(hub); !os.IsNotExist(err) {
		t.Fatal("read-only preflight created the hub directory")
	}
}

func TestMissingInboxFails(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.Inbox = filepath.Join(t.TempDir(), "nope")
	cfg.Paths.Hub = t.TempDir()

	failed := Failed(RunAll(&cfg, true, false))
	if len(failed) != 1 {
		t.Fatalf("got %d failures, want 1: %+v", len(failed), failed)
	}
	if failed[0].Name != "Inbox" {
		t.Fatalf("failed check = %q, want Inbox", failed[0].Name)
	}
}

func TestWritableCheckCreatesHub(t *testing.T) {
	hub := filepath.Join(t.TempDir(), "hub")
	res := CheckWritableDir("Hub", hub)
	if !res.Passed {
		t.Fatalf("check failed: %s", res.Detail)
	}
	if _, err := os.Stat(hub); err != nil {
		t.Fatalf("hub not created: %v", err)
	}
}

func TestInboxFileNotDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "inbox")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	res := CheckReadableDir("Inbox", file)
	if res.Passed {
		t.Fatal("file passed directory check")
	}
}

func TestFreeSpace(t *testing.T) {
	inbox := t.TempDir()
	if err := os.WriteFile(filepath.Join(inbox, "a.wav"), make([]byte, 4096), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	res := CheckFreeSpace(inbox, t.TempDir())
	if !res.Passed {
		t.Fatalf("free space check failed on temp volume: %s", res.Detail)
	}
}
