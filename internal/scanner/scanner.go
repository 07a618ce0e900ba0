package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"crates/internal/config"
)

// Eligibility says how far a file travels through the pipeline.
type Eligibility int

const (
	// EligibilityAnalyze files are decoded for audio features.
	EligibilityAnalyze Eligibility = iota
	// EligibilityRouteOnly files are classified by name signals alone.
	EligibilityRouteOnly
)

// SampleFile is one eligible file inside a pack.
type SampleFile struct {
	// Path is absolute.
	Path string
	// RelPath is the path relative to the pack root, preserved under the
	// destination pack folder.
	RelPath string
	// Ext is the lowercased extension including the dot.
	Ext  string
	Size int64
	// ModTime feeds the identity key together with Path and Size.
	ModTime     time.Time
	Eligibility Eligibility
}

// SamplePack is an inferred grouping of related files. Immutable for the
// lifetime of a run.
type SamplePack struct {
	// Root is the pack directory, or the inbox root for the synthetic
	// loose-file pack.
	Root string
	Name string
	// Files is ordered by RelPath for deterministic processing.
	Files []SampleFile
}

// Scanner walks an inbox and enumerates packs.
type Scanner struct {
	ignore     []string
	analyzeExt map[string]struct{}
	routeExt   map[string]struct{}
}

// New builds a scanner from the configured eligibility rules.
func New(cfg *config.Config) *Scanner {
	s := &Scanner{
		ignore:     append([]string{}, cfg.Scanner.Ignore...),
		analyzeExt: make(map[string]struct{}, len(cfg.Scanner.AnalyzeExtensions)),
		routeExt:   make(map[string]struct{}, len(cfg.Scanner.RouteExtensions)),
	}
	for _, ext := range cfg.Scanner.AnalyzeExtensions {
		s.analyzeExt[ext] = struct{}{}
	}
	for _, ext := range cfg.Scanner.RouteExtensions {
		s.routeExt[ext] = struct{}{}
	}
	return s
}

// Scan enumerates packs under the inbox root in deterministic name order.
func (s *Scanner) Scan(inbox string) ([]SamplePack, error) {
	entries, err := os.ReadDir(inbox)
	if err != nil {
		return nil, err
	}

	var packs []SamplePack
	var loose []SampleFile

	for _, entry := range entries {
		name := entry.Name()
		if s.shouldIgnore(name) {
			continue
		}
		if entry.IsDir() {
			pack, err := s.scanPack(filepath.Join(inbox, name), name)
			if err != nil {
				return nil, err
			}
			if len(pack.Files) > 0 {
				packs = append(packs, pack)
			}
			continue
		}
		file, ok, err := s.fileFor(inbox, filepath.Join(inbox, name))
		if err != nil {
			return nil, err
		}
		if ok {
			loose = append(loose, file)
		}
	}

	if len(loose) > 0 {
		sort.Slice(loose, func(i, j int) bool { return loose[i].RelPath < loose[j].RelPath })
		packs = append(packs, SamplePack{
			Root:  inbox,
			Name:  loosePackName(inbox, loose),
			Files: loose,
		})
	}

	sort.Slice(packs, func(i, j int) bool { return packs[i].Name < packs[j].Name })
	return packs, nil
}

func (s *Scanner) scanPack(root, name string) (SamplePack, error) {
	pack := SamplePack{Root: root, Name: name}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if s.shouldIgnore(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		file, ok, fileErr := s.fileFor(root, path)
		if fileErr != nil {
			return fileErr
		}
		if ok {
			pack.Files = append(pack.Files, file)
		}
		return nil
	})
	if err != nil {
		return SamplePack{}, err
	}
	sort.Slice(pack.Files, func(i, j int) bool { return pack.Files[i].RelPath < pack.Files[j].RelPath })
	return pack, nil
}

func (s *Scanner) fileFor(root, path string) (SampleFile, bool, error) {
	ext := strings.ToLower(filepath.Ext(path))
	eligibility, eligible := s.eligibilityFor(ext)
	if !eligible {
		return SampleFile{}, false, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return SampleFile{}, false, err
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return SampleFile{}, false, err
	}
	return SampleFile{
		Path:        path,
		RelPath:     rel,
		Ext:         ext,
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		Eligibility: eligibility,
	}, true, nil
}

func (s *Scanner) eligibilityFor(ext string) (Eligibility, bool) {
	if _, ok := s.analyzeExt[ext]; ok {
		return EligibilityAnalyze, true
	}
	if _, ok := s.routeExt[ext]; ok {
		return EligibilityRouteOnly, true
	}
	return 0, false
}

func (s *Scanner) shouldIgnore(name string) bool {
	for _, rule := range s.ignore {
		if name == rule || strings.HasPrefix(name, rule) {
			return true
		}
	}
	return false
}

// loosePackName derives a display name for the synthetic loose-file pack: the
// longest common filename prefix when it is meaningful, otherwise the inbox
// folder name.
func loosePackName(inbox string, files []SampleFile) string {
	prefix := commonPrefix(files)
	prefix = strings.Trim(prefix, " _-.")
	if len(prefix) >= 3 {
		return prefix
	}
	return filepath.Base(inbox)
}

func commonPrefix(files []SampleFile) string {
	if len(files) == 0 {
		return ""
	}
	prefix := baseName(files[0])
	for _, file := range files[1:] {
		name := baseName(file)
		max := len(prefix)
		if len(name) < max {
			max = len(name)
		}
		i := 0
		for i < max && prefix[i] == name[i] {
			i++
		}
		prefix = prefix[:i]
		if prefix == "" {
			break
		}
	}
	return prefix
}

func baseName(file SampleFile) string {
	base := filepath.Base(file.Path)
	return strings.TrimSuffix(base, file.Ext)
}
