package featcache

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"crates/internal/logging"
	"crates/internal/wavform"
)

func testIdentity(path string) wavform.Identity {
	return wavform.Identity{Path: path, Size: 64, ModTime: 12345}
}

func TestGetOrComputeCaches(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(filepath.Join(dir, "cache.json"), logging.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	var calls int32
	compute := func() (wavform.Descriptor, error) {
		atomic.AddInt32(&calls, 1)
		return wavform.Descriptor{DurationSec: 1.5}, nil
	}

	id := testIdentity(filepath.Join(dir, "kick.wav"))
	desc, cached, err := store.GetOrCompute(id, compute)
	if err != nil || cached {
		t.Fatalf("first call: cached=%v err=%v", cached, err)
	}
	if desc.DurationSec != 1.5 {
		t.Fatalf("descriptor = %+v", desc)
	}
	if _, cached, _ := store.GetOrCompute(id, compute); !cached {
		t.Fatal("second call should hit cache")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("compute ran %d times, want 1", calls)
	}
}

func TestGetOrComputeOncePerKeyUnderConcurrency(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(filepath.Join(dir, "cache.json"), logging.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	var calls int32
	id := testIdentity("shared.wav")
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = store.GetOrCompute(id, func() (wavform.Descriptor, error) {
				atomic.AddInt32(&calls, 1)
				return wavform.Descriptor{CrestFactor: 3}, nil
			})
		}()
	}
	wg.Wait()
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("compute ran %d times, want at-most-once", got)
	}
}

func TestFlushAppendsIncrementally(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feature_cache.json")
	store, err := Open(path, logging.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	first := testIdentity("a.wav")
	_, _, _ = store.GetOrCompute(first, func() (wavform.Descriptor, error) {
		return wavform.Descriptor{DurationSec: 1}, nil
	})
	if err := store.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	sizeAfterFirst := fileSize(t, path)

	// No new entries: flushing must not rewrite the journal.
	if err := store.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := fileSize(t, path); got != sizeAfterFirst {
		t.Fatalf("idle flush changed file size %d -> %d", sizeAfterFirst, got)
	}

	second := testIdentity("b.wav")
	_, _, _ = store.GetOrCompute(second, func() (wavform.Descriptor, error) {
		return wavform.Descriptor{DurationSec: 2}, nil
	})
	if err := store.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := fileSize(t, path); got <= sizeAfterFirst {
		t.Fatal("second flush should append")
	}

	reopened, err := Open(path, logging.NewNop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Len() != 2 {
		t.Fatalf("reopened cache has %d entries, want 2", reopened.Len())
	}
	if _, ok := reopened.Get(first); !ok {
		t.Fatal("first entry lost across reopen")
	}
}

func TestOpenCorruptDiscardsWithoutTouchingDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feature_cache.json")
	garbage := []byte("{not json")
	if err := os.WriteFile(path, garbage, 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := Open(path, logging.NewNop())
	if err != nil {
		t.Fatalf("corrupt cache should rebuild, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("rebuilt cache should be empty, has %d", store.Len())
	}
	// Opening alone mutates nothing; read-only runs reach this path.
	onDisk, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("corrupt journal disappeared at open: %v", err)
	}
	if string(onDisk) != string(garbage) {
		t.Fatalf("open rewrote the journal: %q", onDisk)
	}
}

func TestFlushRewritesCorruptJournal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feature_cache.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := Open(path, logging.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id := testIdentity("fresh.wav")
	_, _, _ = store.GetOrCompute(id, func() (wavform.Descriptor, error) {
		return wavform.Descriptor{DurationSec: 2}, nil
	})
	if err := store.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	reopened, err := Open(path, logging.NewNop())
	if err != nil {
		t.Fatalf("reopen after rebuild: %v", err)
	}
	if reopened.Len() != 1 {
		t.Fatalf("rebuilt journal has %d entries, want 1", reopened.Len())
	}
	if _, ok := reopened.Get(id); !ok {
		t.Fatal("rebuilt journal lost the fresh entry")
	}
}

func TestComputeErrorNotCached(t *testing.T) {
	dir := t.TempDir()
	store, _ := Open(filepath.Join(dir, "cache.json"), logging.NewNop())

	id := testIdentity("broken.wav")
	var calls int32
	fail := func() (wavform.Descriptor, error) {
		atomic.AddInt32(&calls, 1)
		return wavform.Descriptor{}, os.ErrPermission
	}
	if _, _, err := store.GetOrCompute(id, fail); err == nil {
		t.Fatal("expected error")
	}
	if _, _, err := store.GetOrCompute(id, fail); err == nil {
		t.Fatal("expected error on retry")
	}
	if calls != 2 {
		t.Fatalf("failures should not be cached; compute ran %d times", calls)
	}
}

func fileSize(t *testing.T, path string) int64 {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	return info.Size()
}
