package styles

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"crates/internal/catalog"
	"crates/internal/logging"
	"crates/internal/router"
	"crates/internal/services"
	"crates/internal/textutil"
)

// DefaultStyle is the hard fallback when no bucket or category style matches.
// It also styles the reserved UNSORTED and Quarantine trees.
var DefaultStyle = catalog.Style{Color: "$7f7f7f", IconIndex: 0, SortGroup: 0}

const sidecarTip = "*Sorted by crates"

// Render produces the sidecar bytes for a style. The layout is fixed: four
// key=value lines and a tip line without a trailing newline.
func Render(style catalog.Style) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Color=%s\n", style.Color)
	fmt.Fprintf(&buf, "IconIndex=%d\n", style.IconIndex)
	fmt.Fprintf(&buf, "HeightOfs=7\n")
	fmt.Fprintf(&buf, "SortGroup=%d\n", style.SortGroup)
	fmt.Fprintf(&buf, "Tip=%s", sidecarTip)
	return buf.Bytes()
}

// Engine resolves styles through the fallback chain and writes sidecars.
// Writes are serialized per parent folder. A missing style is warned about
// once per key per engine lifetime.
type Engine struct {
	cat    *catalog.Catalog
	logger *slog.Logger

	mu      sync.Mutex
	warned  map[string]struct{}
	folders map[string]*sync.Mutex
}

// NewEngine builds a style engine over the catalog.
func NewEngine(cat *catalog.Catalog, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		cat:     cat,
		logger:  logger,
		warned:  make(map[string]struct{}),
		folders: make(map[string]*sync.Mutex),
	}
}

// ResolveBucket resolves the style for a bucket name through the chain:
// exact bucket key, case-insensitive bucket key, category default, global
// default. The name may be a display name seen on disk rather than a key.
func (e *Engine) ResolveBucket(name, categoryKey string) catalog.Style {
	if bucket, ok := e.cat.Bucket(name); ok {
		if bucket.Style != nil {
			return *bucket.Style
		}
		return e.categoryFallback(bucket.Key, bucket.Category)
	}
	folded := textutil.Fold(name)
	for _, bucket := range e.cat.Buckets() {
		if textutil.Fold(bucket.Key) == folded || textutil.Fold(bucket.DisplayName) == folded {
			if bucket.Style != nil {
				return *bucket.Style
			}
			return e.categoryFallback(bucket.Key, bucket.Category)
		}
	}
	return e.categoryFallback(name, categoryKey)
}

// ResolveCategory resolves a category style, falling back to the global
// default with a single warning per missing key.
func (e *Engine) ResolveCategory(name string) catalog.Style {
	if cat, ok := e.cat.Category(name); ok && cat.Style != nil {
		return *cat.Style
	}
	folded := textutil.Fold(name)
	for _, cat := range e.cat.Categories() {
		if textutil.Fold(cat.Key) == folded || textutil.Fold(cat.DisplayName) == folded {
			if cat.Style != nil {
				return *cat.Style
			}
			break
		}
	}
	if name == catalog.UnsortedKey || name == catalog.QuarantineKey {
		return DefaultStyle
	}
	e.warnMissing("category:" + name)
	return DefaultStyle
}

func (e *Engine) categoryFallback(bucketName, categoryKey string) catalog.Style {
	if cat, ok := e.cat.Category(categoryKey); ok && cat.Style != nil {
		return *cat.Style
	}
	e.warnMissing("bucket:" + bucketName)
	return DefaultStyle
}

func (e *Engine) warnMissing(key string) {
	e.mu.Lock()
	_, seen := e.warned[key]
	if !seen {
		e.warned[key] = struct{}{}
	}
	e.mu.Unlock()
	if !seen {
		e.logger.Warn("no style defined, using default", "key", key)
	}
}

// WriteSidecar writes parentDir/name.nfo when missing or different. It
// reports whether a write happened.
func (e *Engine) WriteSidecar(parentDir, name string, style catalog.Style) (bool, error) {
	lock := e.folderLock(parentDir)
	lock.Lock()
	defer lock.Unlock()

	path := filepath.Join(parentDir, name+".nfo")
	contents := Render(style)
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(bytes.TrimSpace(existing), bytes.TrimSpace(contents)) {
		return false, nil
	}
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		return false, services.Wrap(services.ErrFileSystem, "styles", "write", fmt.Sprintf("write sidecar %q", path), err)
	}
	return true, nil
}

func (e *Engine) folderLock(dir string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.folders[dir]
	if !ok {
		lock = &sync.Mutex{}
		e.folders[dir] = lock
	}
	return lock
}

// EnsureRoute writes the sidecars for every folder level of a confirmed
// destination: category, bucket, and pack for placed files, or the reserved
// tree and pack for diverted ones. The pack folder reuses the bucket style.
func (e *Engine) EnsureRoute(hub string, route router.Route) error {
	if route.Diverted != router.DivertNone {
		tree := string(route.Diverted)
		if _, err := e.WriteSidecar(hub, tree, DefaultStyle); err != nil {
			return err
		}
		_, err := e.WriteSidecar(filepath.Join(hub, tree), route.PackFolder, DefaultStyle)
		return err
	}

	categoryStyle := e.ResolveCategory(route.CategoryKey)
	if _, err := e.WriteSidecar(hub, route.CategoryFolder, categoryStyle); err != nil {
		return err
	}
	bucketStyle := e.ResolveBucket(route.BucketKey, route.CategoryKey)
	categoryDir := filepath.Join(hub, route.CategoryFolder)
	if _, err := e.WriteSidecar(categoryDir, route.BucketFolder, bucketStyle); err != nil {
		return err
	}
	bucketDir := filepath.Join(categoryDir, route.BucketFolder)
	_, err := e.WriteSidecar(bucketDir, route.PackFolder, bucketStyle)
	return err
}
