package config

const (
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultFolderWeight    = 0.45
	defaultFilenameWeight  = 0.35
	defaultAudioWeight     = 0.20
	defaultConfidenceFloor = 0.40
	defaultUnsortedFloor   = 0.20
	defaultMidiBoost       = 3.0
)

// Default returns a Config populated with repository defaults, including the
// stock bucket catalog.
func Default() Config {
	return Config{
		Scoring: Scoring{
			FolderWeight:       defaultFolderWeight,
			FilenameWeight:     defaultFilenameWeight,
			AudioWeight:        defaultAudioWeight,
			ConfidenceFloor:    defaultConfidenceFloor,
			UnsortedFloor:      defaultUnsortedFloor,
			MidiExtensionBoost: defaultMidiBoost,
		},
		Scanner: Scanner{
			Ignore:            []string{"__MACOSX", ".DS_Store", "._"},
			AnalyzeExtensions: []string{".wav"},
			RouteExtensions:   []string{".mp3", ".flac", ".aif", ".aiff", ".ogg", ".mid"},
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Categories: defaultCategories(),
		Buckets:    defaultBuckets(),
	}
}

func defaultCategories() []CategoryDef {
	return []CategoryDef{
		{Key: "Samples", Style: &StyleDef{Color: "$4a90d9", IconIndex: 10, SortGroup: 0}},
		{Key: "Loops", Style: &StyleDef{Color: "$50b878", IconIndex: 11, SortGroup: 1}},
		{Key: "MIDI", Style: &StyleDef{Color: "$c678dd", IconIndex: 12, SortGroup: 2}},
	}
}

func defaultBuckets() []BucketDef {
	return []BucketDef{
		{
			Key: "808s", Category: "Samples", Priority: 10,
			Keywords: []string{"808", "808s"},
			Style:    &StyleDef{Color: "$d64541", IconIndex: 20, SortGroup: 1},
			Profile:  &ProfileDef{DurationSec: 1.5, SpectralCentroid: 0.03, SpectralFlatness: 0.02, CrestFactor: 2.2, ZeroCrossRate: 0.01, PitchStability: 0.9, GlideRate: 0.6},
		},
		{
			Key: "Kicks", Category: "Samples", Priority: 11,
			Keywords: []string{"kick", "kicks"},
			Style:    &StyleDef{Color: "$e67e22", IconIndex: 21, SortGroup: 1},
			Profile:  &ProfileDef{DurationSec: 0.4, SpectralCentroid: 0.05, SpectralFlatness: 0.05, CrestFactor: 3.5, ZeroCrossRate: 0.02, PitchStability: 0.6, GlideRate: 1.5},
		},
		{
			Key: "Snares", Category: "Samples", Priority: 12,
			Keywords: []string{"snare", "snares"},
			Style:    &StyleDef{Color: "$f1c40f", IconIndex: 22, SortGroup: 1},
			Profile:  &ProfileDef{DurationSec: 0.3, SpectralCentroid: 0.25, SpectralFlatness: 0.35, CrestFactor: 4.0, ZeroCrossRate: 0.2, PitchStability: 0.2, GlideRate: 0.5},
		},
		{
			Key: "Claps", Category: "Samples", Priority: 13,
			Keywords: []string{"clap", "claps"},
			Style:    &StyleDef{Color: "$e8a33d", IconIndex: 23, SortGroup: 1},
		},
		{
			Key: "HiHats", Category: "Samples", Priority: 14,
			Keywords: []string{"hihat", "hi-hat", "hat", "hats"},
			Style:    &StyleDef{Color: "$2ecc71", IconIndex: 24, SortGroup: 1},
			Profile:  &ProfileDef{DurationSec: 0.2, SpectralCentroid: 0.55, SpectralFlatness: 0.6, CrestFactor: 5.0, ZeroCrossRate: 0.45, PitchStability: 0.1, GlideRate: 0.2},
		},
		{
			Key: "Percs", Category: "Samples", Priority: 15,
			Keywords: []string{"perc", "percs", "percussion"},
			Style:    &StyleDef{Color: "$27ae60", IconIndex: 25, SortGroup: 1},
		},
		{
			Key: "Cymbals", Category: "Samples", Priority: 16,
			Keywords: []string{"cymbal", "cymbals", "crash", "ride", "bell"},
			Style:    &StyleDef{Color: "$16a085", IconIndex: 26, SortGroup: 1},
		},
		{
			Key: "Bass", Category: "Samples", Priority: 17,
			Keywords: []string{"bass"},
			Style:    &StyleDef{Color: "$8e44ad", IconIndex: 27, SortGroup: 2},
			Profile:  &ProfileDef{DurationSec: 1.2, SpectralCentroid: 0.06, SpectralFlatness: 0.04, CrestFactor: 2.5, ZeroCrossRate: 0.02, PitchStability: 0.85, GlideRate: 0.3},
		},
		{
			Key: "Leads", Category: "Samples", Priority: 18,
			Keywords: []string{"lead", "leads"},
			Style:    &StyleDef{Color: "$9b59b6", IconIndex: 28, SortGroup: 2},
		},
		{
			Key: "Vox", Category: "Samples", Priority: 19,
			Keywords: []string{"vox", "vocal", "vocals", "acapella"},
			Style:    &StyleDef{Color: "$e91e63", IconIndex: 29, SortGroup: 2},
		},
		{
			Key: "FX", Category: "Samples", Priority: 20,
			Keywords: []string{"fx", "effect", "effects", "sweep", "sweeps", "riser", "risers", "impact", "impacts"},
			Style:    &StyleDef{Color: "$95a5a6", IconIndex: 30, SortGroup: 3},
			Profile:  &ProfileDef{DurationSec: 2.0, SpectralCentroid: 0.3, SpectralFlatness: 0.4, CrestFactor: 3.0, ZeroCrossRate: 0.25, PitchStability: 0.3, GlideRate: 2.5},
		},
		{
			Key: "DrumLoop", Category: "Loops", Priority: 30,
			Keywords: []string{"drumloop", "drum_loop", "drum loop", "drum-loop", "loop drum", "loop_drums"},
			Style:    &StyleDef{Color: "$3498db", IconIndex: 31, SortGroup: 0},
			Profile:  &ProfileDef{DurationSec: 8.0, SpectralCentroid: 0.3, SpectralFlatness: 0.3, CrestFactor: 4.5, ZeroCrossRate: 0.2, PitchStability: 0.2, GlideRate: 0.3},
		},
		{
			Key: "MelodyLoop", Category: "Loops", Priority: 31,
			Keywords: []string{"melodic loop", "melodyloop", "melody_loop", "melody loop", "loop melody", "melod", "chord", "chords", "guitar loop", "piano loop"},
			Style:    &StyleDef{Color: "$2980b9", IconIndex: 32, SortGroup: 0},
			Profile:  &ProfileDef{DurationSec: 8.0, SpectralCentroid: 0.15, SpectralFlatness: 0.1, CrestFactor: 3.0, ZeroCrossRate: 0.08, PitchStability: 0.8, GlideRate: 0.2},
		},
		{
			Key: "MIDI", Category: "MIDI", Priority: 40,
			Keywords: []string{"midi"},
			Style:    &StyleDef{Color: "$c678dd", IconIndex: 33, SortGroup: 0},
		},
	}
}
