package styles

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"crates/internal/catalog"
	"crates/internal/services"
	"crates/internal/textutil"
)

// RepairSummary counts the sidecar mutations a repair pass performed.
type RepairSummary struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
}

// Total returns the number of writes and deletes performed.
func (s RepairSummary) Total() int {
	return s.Created + s.Updated + s.Removed
}

// Repair reconciles the hub's sidecars against the live catalog. It walks the
// category, bucket, and pack folder levels, writes any missing or stale
// sidecar, and deletes sidecars that no longer correspond to an expected
// folder. Audio files are never inspected or touched. A second consecutive
// pass over unchanged state performs zero writes.
func (e *Engine) Repair(hub string) (RepairSummary, error) {
	var summary RepairSummary

	topEntries, err := os.ReadDir(hub)
	if err != nil {
		return summary, services.Wrap(services.ErrFileSystem, "styles", "repair", fmt.Sprintf("read hub root %q", hub), err)
	}

	categoryNames := make(map[string]catalog.Category)
	for _, cat := range e.cat.Categories() {
		categoryNames[textutil.Fold(cat.Key)] = cat
		categoryNames[textutil.Fold(cat.DisplayName)] = cat
	}

	desired := make(map[string]catalog.Style)
	for _, top := range topEntries {
		if !top.IsDir() {
			continue
		}
		name := top.Name()
		topDir := filepath.Join(hub, name)
		if name == catalog.UnsortedKey || name == catalog.QuarantineKey {
			desired[filepath.Join(hub, name+".nfo")] = DefaultStyle
			packs, err := subdirs(topDir)
			if err != nil {
				return summary, err
			}
			for _, pack := range packs {
				desired[filepath.Join(topDir, pack+".nfo")] = DefaultStyle
			}
			continue
		}
		cat, known := categoryNames[textutil.Fold(name)]
		if !known {
			continue
		}
		desired[filepath.Join(hub, name+".nfo")] = e.ResolveCategory(name)

		buckets, err := subdirs(topDir)
		if err != nil {
			return summary, err
		}
		for _, bucketName := range buckets {
			style := e.ResolveBucket(bucketName, cat.Key)
			bucketDir := filepath.Join(topDir, bucketName)
			desired[filepath.Join(topDir, bucketName+".nfo")] = style

			packs, err := subdirs(bucketDir)
			if err != nil {
				return summary, err
			}
			for _, pack := range packs {
				desired[filepath.Join(bucketDir, pack+".nfo")] = style
			}
		}
	}

	paths := make([]string, 0, len(desired))
	for path := range desired {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		_, statErr := os.Stat(path)
		existed := statErr == nil
		wrote, err := e.WriteSidecar(filepath.Dir(path), strings.TrimSuffix(filepath.Base(path), ".nfo"), desired[path])
		if err != nil {
			return summary, err
		}
		if wrote {
			if existed {
				summary.Updated++
			} else {
				summary.Created++
			}
		}
	}

	orphans, err := sidecarPaths(hub)
	if err != nil {
		return summary, err
	}
	for _, path := range orphans {
		if _, keep := desired[path]; keep {
			continue
		}
		if err := os.Remove(path); err != nil {
			return summary, services.Wrap(services.ErrFileSystem, "styles", "repair", fmt.Sprintf("remove orphan sidecar %q", path), err)
		}
		summary.Removed++
	}
	return summary, nil
}

func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrFileSystem, "styles", "repair", fmt.Sprintf("read directory %q", dir), err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// sidecarPaths lists .nfo files at the category, bucket, and pack levels.
// Sidecars nested deeper inside pack folders are outside repair's scope.
func sidecarPaths(hub string) ([]string, error) {
	var out []string
	patterns := []string{
		filepath.Join(hub, "*.nfo"),
		filepath.Join(hub, "*", "*.nfo"),
		filepath.Join(hub, "*", "*", "*.nfo"),
	}
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, services.Wrap(services.ErrFileSystem, "styles", "repair", fmt.Sprintf("glob %q", pattern), err)
		}
		out = append(out, matches...)
	}
	sort.Strings(out)
	return out, nil
}
