package styles

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"crates/internal/catalog"
	"crates/internal/config"
	"crates/internal/logging"
	"crates/internal/router"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cfg := config.Default()
	cat, err := cfg.Catalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return cat
}

func captureEngine(t *testing.T) (*Engine, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewEngine(testCatalog(t), logger), &buf
}

func TestRenderLayout(t *testing.T) {
	got := string(Render(catalog.Style{Color: "$ff8042", IconIndex: 12, SortGroup: 3}))
	want := "Color=$ff8042\nIconIndex=12\nHeightOfs=7\nSortGroup=3\nTip=*Sorted by crates"
	if got != want {
		t.Fatalf("sidecar bytes = %q, want %q", got, want)
	}
}

func TestResolveExactBucket(t *testing.T) {
	e := NewEngine(testCatalog(t), logging.NewNop())
	style := e.ResolveBucket("Kicks", "Samples")
	if style == DefaultStyle {
		t.Fatal("exact bucket lookup fell through to default")
	}
}

func TestResolveCaseInsensitiveBucket(t *testing.T) {
	e := NewEngine(testCatalog(t), logging.NewNop())
	exact := e.ResolveBucket("Kicks", "Samples")
	folded := e.ResolveBucket("kicks", "Samples")
	if folded != exact {
		t.Fatalf("case-insensitive lookup = %+v, want %+v", folded, exact)
	}
}

func TestResolveFallsBackToCategoryThenDefault(t *testing.T) {
	e := NewEngine(testCatalog(t), logging.NewNop())
	cat, _ := e.cat.Category("Samples")
	if cat.Style == nil {
		t.Fatal("fixture expects Samples to carry a style")
	}
	got := e.ResolveBucket("NotABucket", "Samples")
	if got != *cat.Style {
		t.Fatalf("unknown bucket style = %+v, want category style %+v", got, *cat.Style)
	}

	got = e.ResolveBucket("NotABucket", "NotACategory")
	if got != DefaultStyle {
		t.Fatalf("fully unknown style = %+v, want default", got)
	}
}

func TestMissingStyleWarnsOnce(t *testing.T) {
	e, buf := captureEngine(t)
	e.ResolveBucket("Ghost", "NoSuchCategory")
	e.ResolveBucket("Ghost", "NoSuchCategory")
	e.ResolveBucket("Ghost", "NoSuchCategory")

	warnings := 0
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if strings.Contains(line, "no style defined") {
			warnings++
		}
	}
	if warnings != 1 {
		t.Fatalf("missing style warned %d times, want 1", warnings)
	}
}

func TestWriteSidecarIdempotent(t *testing.T) {
	e := NewEngine(testCatalog(t), logging.NewNop())
	dir := t.TempDir()

	wrote, err := e.WriteSidecar(dir, "Kicks", DefaultStyle)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if !wrote {
		t.Fatal("first write reported no-op")
	}
	wrote, err = e.WriteSidecar(dir, "Kicks", DefaultStyle)
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if wrote {
		t.Fatal("identical rewrite reported a write")
	}
}

func TestEnsureRouteWritesAllLevels(t *testing.T) {
	e := NewEngine(testCatalog(t), logging.NewNop())
	hub := t.TempDir()
	route := router.Route{
		CategoryKey:    "Samples",
		BucketKey:      "Kicks",
		CategoryFolder: "Samples",
		BucketFolder:   "Kicks",
		PackFolder:     "Trap Kit",
	}
	if err := os.MkdirAll(filepath.Join(hub, "Samples", "Kicks", "Trap Kit"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := e.EnsureRoute(hub, route); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	for _, rel := range []string{
		"Samples.nfo",
		filepath.Join("Samples", "Kicks.nfo"),
		filepath.Join("Samples", "Kicks", "Trap Kit.nfo"),
	} {
		if _, err := os.Stat(filepath.Join(hub, rel)); err != nil {
			t.Fatalf("missing sidecar %s: %v", rel, err)
		}
	}
}

func TestEnsureRouteDiverted(t *testing.T) {
	e := NewEngine(testCatalog(t), logging.NewNop())
	hub := t.TempDir()
	route := router.Route{PackFolder: "Kit", Diverted: router.DivertUnsorted}
	if err := os.MkdirAll(filepath.Join(hub, "UNSORTED", "Kit"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := e.EnsureRoute(hub, route); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(hub, "UNSORTED.nfo"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(data, Render(DefaultStyle)) {
		t.Fatalf("UNSORTED sidecar = %q, want default style", data)
	}
}

func TestRepairCreatesAndRemoves(t *testing.T) {
	e := NewEngine(testCatalog(t), logging.NewNop())
	hub := t.TempDir()
	if err := os.MkdirAll(filepath.Join(hub, "Samples", "Kicks", "Trap Kit"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// Orphan sidecar for a folder that no longer exists.
	if err := os.WriteFile(filepath.Join(hub, "Samples", "Ghost.nfo"), Render(DefaultStyle), 0o644); err != nil {
		t.Fatalf("seed orphan: %v", err)
	}

	summary, err := e.Repair(hub)
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	if summary.Created != 3 {
		t.Fatalf("created = %d, want 3", summary.Created)
	}
	if summary.Removed != 1 {
		t.Fatalf("removed = %d, want 1", summary.Removed)
	}
	if _, err := os.Stat(filepath.Join(hub, "Samples", "Ghost.nfo")); !os.IsNotExist(err) {
		t.Fatal("orphan sidecar survived repair")
	}
}

func TestRepairIdempotent(t *testing.T) {
	e := NewEngine(testCatalog(t), logging.NewNop())
	hub := t.TempDir()
	if err := os.MkdirAll(filepath.Join(hub, "Samples", "808s", "Kit"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(hub, "UNSORTED", "Other Kit"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	first, err := e.Repair(hub)
	if err != nil {
		t.Fatalf("first repair: %v", err)
	}
	if first.Total() == 0 {
		t.Fatal("first repair performed no writes")
	}
	second, err := e.Repair(hub)
	if err != nil {
		t.Fatalf("second repair: %v", err)
	}
	if second.Total() != 0 {
		t.Fatalf("second repair performed %d writes, want 0", second.Total())
	}
}

func TestRepairNeverTouchesAudio(t *testing.T) {
	e := NewEngine(testCatalog(t), logging.NewNop())
	hub := t.TempDir()
	packDir := filepath.Join(hub, "Samples", "Kicks", "Kit")
	if err := os.MkdirAll(packDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	audio := filepath.Join(packDir, "kick.wav")
	if err := os.WriteFile(audio, []byte("not really audio"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	before, err := os.Stat(audio)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}

	if _, err := e.Repair(hub); err != nil {
		t.Fatalf("repair: %v", err)
	}
	after, err := os.Stat(audio)
	if err != nil {
		t.Fatalf("stat after: %v", err)
	}
	if before.Size() != after.Size() || !before.ModTime().Equal(after.ModTime()) {
		t.Fatal("repair modified an audio file")
	}
}
