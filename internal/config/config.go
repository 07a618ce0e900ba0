package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"crates/internal/catalog"
	"crates/internal/wavform"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the inbox and hub roots. Run artifacts, the feature cache,
// the run store, and the run lock all live under <hub>/logs.
type Paths struct {
	Inbox string `toml:"inbox"`
	Hub   string `toml:"hub"`
}

// Scoring contains the classifier weights and confidence policy.
type Scoring struct {
	// FolderWeight, FilenameWeight, and AudioWeight combine the three
	// signal scores; they must be non-negative and sum to a positive value.
	FolderWeight   float64 `toml:"folder_weight"`
	FilenameWeight float64 `toml:"filename_weight"`
	AudioWeight    float64 `toml:"audio_weight"`
	// ConfidenceFloor flags results below it as low confidence.
	ConfidenceFloor float64 `toml:"confidence_floor"`
	// UnsortedFloor diverts results below it to the UNSORTED tree.
	UnsortedFloor float64 `toml:"unsorted_floor"`
	// MidiExtensionBoost is the filename-signal bonus a literal .mid
	// extension contributes to the MIDI bucket.
	MidiExtensionBoost float64 `toml:"midi_extension_boost"`
}

// Scanner contains pack discovery settings.
type Scanner struct {
	// Ignore lists names (or name prefixes ending the entry with no
	// separator, e.g. "._") skipped during discovery and repair.
	Ignore []string `toml:"ignore"`
	// AnalyzeExtensions are decoded for audio features.
	AnalyzeExtensions []string `toml:"analyze_extensions"`
	// RouteExtensions are organized by name signals only.
	RouteExtensions []string `toml:"route_extensions"`
}

// Workers contains parallelism limits.
type Workers struct {
	// Count bounds concurrent decode/classify workers; 0 selects
	// min(NumCPU, 8).
	Count int `toml:"count"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// StyleDef mirrors catalog.Style for TOML decoding.
type StyleDef struct {
	Color     string `toml:"color"`
	IconIndex int    `toml:"icon_index"`
	SortGroup int    `toml:"sort_group"`
}

// ProfileDef is an optional bucket audio reference profile.
type ProfileDef struct {
	DurationSec      float64 `toml:"duration_sec"`
	SpectralCentroid float64 `toml:"spectral_centroid"`
	SpectralFlatness float64 `toml:"spectral_flatness"`
	CrestFactor      float64 `toml:"crest_factor"`
	ZeroCrossRate    float64 `toml:"zero_cross_rate"`
	PitchStability   float64 `toml:"pitch_stability"`
	GlideRate        float64 `toml:"glide_rate"`
}

// BucketDef defines one classification bucket.
type BucketDef struct {
	Key      string      `toml:"key"`
	Category string      `toml:"category"`
	Keywords []string    `toml:"keywords"`
	Priority int         `toml:"priority"`
	Style    *StyleDef   `toml:"style"`
	Profile  *ProfileDef `toml:"profile"`
}

// CategoryDef defines one parent category.
type CategoryDef struct {
	Key         string    `toml:"key"`
	DisplayName string    `toml:"display_name"`
	Style       *StyleDef `toml:"style"`
}

// Config encapsulates all configuration values for crates.
//
// Sections by subsystem:
//   - Paths: inbox and hub roots
//   - Scoring: classifier weights and confidence floors
//   - Scanner: ignore rules and extension eligibility
//   - Workers: decode/classify parallelism
//   - Logging: log format and level
//   - Renames: internal bucket key -> hub display folder name
//   - Buckets/Categories: the classification catalog
type Config struct {
	Paths      Paths             `toml:"paths"`
	Scoring    Scoring           `toml:"scoring"`
	Scanner    Scanner           `toml:"scanner"`
	Workers    Workers           `toml:"workers"`
	Logging    Logging           `toml:"logging"`
	Renames    map[string]string `toml:"renames"`
	Buckets    []BucketDef       `toml:"buckets"`
	Categories []CategoryDef     `toml:"categories"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/crates/config.toml")
}

// SampleConfig returns the embedded annotated sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The second return is the
// resolved path, the third whether a file was actually found there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("crates.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// LogDir returns the hub-relative directory holding run artifacts, the run
// store, the feature cache, and the run lock.
func (c *Config) LogDir() string {
	return filepath.Join(c.Paths.Hub, "logs")
}

// CachePath returns the feature cache location.
func (c *Config) CachePath() string {
	return filepath.Join(c.LogDir(), "feature_cache.json")
}

// RunStorePath returns the run manifest/audit database location.
func (c *Config) RunStorePath() string {
	return filepath.Join(c.LogDir(), "runs.db")
}

// LockPath returns the exclusive run lock location.
func (c *Config) LockPath() string {
	return filepath.Join(c.LogDir(), "crates.lock")
}

// EnsureDirectories creates the hub log directory.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.LogDir(), 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.LogDir(), err)
	}
	return nil
}

// Catalog builds the validated classification catalog from the configured
// definitions and rename mapping.
func (c *Config) Catalog() (*catalog.Catalog, error) {
	buckets := make([]catalog.Bucket, 0, len(c.Buckets))
	for _, def := range c.Buckets {
		bucket := catalog.Bucket{
			Key:      def.Key,
			Category: def.Category,
			Keywords: append([]string{}, def.Keywords...),
			Priority: def.Priority,
		}
		if def.Style != nil {
			bucket.Style = &catalog.Style{Color: def.Style.Color, IconIndex: def.Style.IconIndex, SortGroup: def.Style.SortGroup}
		}
		if def.Profile != nil {
			bucket.Profile = &wavform.Descriptor{
				DurationSec:      def.Profile.DurationSec,
				SpectralCentroid: def.Profile.SpectralCentroid,
				SpectralFlatness: def.Profile.SpectralFlatness,
				CrestFactor:      def.Profile.CrestFactor,
				ZeroCrossRate:    def.Profile.ZeroCrossRate,
				PitchStability:   def.Profile.PitchStability,
				GlideRate:        def.Profile.GlideRate,
			}
		}
		buckets = append(buckets, bucket)
	}

	categories := make([]catalog.Category, 0, len(c.Categories))
	for _, def := range c.Categories {
		cat := catalog.Category{Key: def.Key, DisplayName: def.DisplayName}
		if def.Style != nil {
			cat.Style = &catalog.Style{Color: def.Style.Color, IconIndex: def.Style.IconIndex, SortGroup: def.Style.SortGroup}
		}
		categories = append(categories, cat)
	}

	built, err := catalog.New(buckets, categories)
	if err != nil {
		return nil, err
	}
	if err := built.ApplyRenames(c.Renames); err != nil {
		return nil, err
	}
	return built, nil
}

// ExpandPath resolves ~ and returns a cleaned absolute path.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if pathValue[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
