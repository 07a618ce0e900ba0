package classify_test

import (
	"reflect"
	"strings"
	"testing"

	"crates/internal/classify"
	"crates/internal/config"
	"crates/internal/scanner"
	"crates/internal/wavform"
)

func newClassifier(t *testing.T) *classify.Classifier {
	t.Helper()
	cfg := config.Default()
	cat, err := cfg.Catalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return classify.New(cat, cfg.Scoring)
}

func wavInput(folder, name string) classify.Input {
	return classify.Input{
		File:       scanner.SampleFile{RelPath: name, Ext: ".wav"},
		FolderName: folder,
	}
}

func TestFolderAndFilenameAgreeHighConfidence(t *testing.T) {
	c := newClassifier(t)
	for _, name := range []string{"kick_01.wav", "kick_02.wav", "kick_03.wav", "kick_04.wav", "kick_05.wav"} {
		result := c.Classify(wavInput("Kicks", name))
		if result.Bucket != "Kicks" {
			t.Fatalf("%s: bucket = %q, want Kicks", name, result.Bucket)
		}
		if result.LowConfidence {
			t.Fatalf("%s: agreeing signals should not be low confidence (%.2f)", name, result.Confidence)
		}
		if result.Confidence < 0 || result.Confidence > 1 {
			t.Fatalf("%s: confidence %v outside [0,1]", name, result.Confidence)
		}
	}
}

func TestUninformativeNameIsLowConfidenceWithThreeCandidates(t *testing.T) {
	c := newClassifier(t)
	result := c.Classify(wavInput("stuff", "loop.wav"))
	if !result.LowConfidence {
		t.Fatalf("expected low confidence, got %.2f", result.Confidence)
	}
	if result.Bucket == "" {
		t.Fatal("a best bucket must still be assigned")
	}
	if len(result.Candidates) != 3 {
		t.Fatalf("top candidates = %d, want exactly 3", len(result.Candidates))
	}
}

func TestDecodeFailureWithoutSignalsQuarantines(t *testing.T) {
	c := newClassifier(t)
	in := classify.Input{
		File:         scanner.SampleFile{RelPath: "a7f3.wav", Ext: ".wav"},
		FolderName:   "0001",
		DecodeFailed: true,
	}
	result := c.Classify(in)
	if !result.Quarantine {
		t.Fatal("decode failure with no name signal should quarantine")
	}
	if !containsReason(result.Reasons, "decode_error") {
		t.Fatalf("reasons missing decode_error: %v", result.Reasons)
	}
}

func TestDecodeFailureWithNameSignalStillClassifies(t *testing.T) {
	c := newClassifier(t)
	in := classify.Input{
		File:         scanner.SampleFile{RelPath: "snare_tight.wav", Ext: ".wav"},
		FolderName:   "Snares",
		DecodeFailed: true,
	}
	result := c.Classify(in)
	if result.Quarantine {
		t.Fatal("name signal should prevent quarantine")
	}
	if result.Bucket != "Snares" {
		t.Fatalf("bucket = %q, want Snares", result.Bucket)
	}
}

func TestMidiExtensionBoost(t *testing.T) {
	c := newClassifier(t)
	in := classify.Input{
		File:       scanner.SampleFile{RelPath: "melody.mid", Ext: ".mid"},
		FolderName: "Downloads",
	}
	result := c.Classify(in)
	if result.Bucket != "MIDI" {
		t.Fatalf("bucket = %q, want MIDI", result.Bucket)
	}
	if !containsReason(result.Reasons, "midi_extension") {
		t.Fatalf("reasons missing midi_extension: %v", result.Reasons)
	}
}

func TestAudioSignalSeparatesSustainedFromNoise(t *testing.T) {
	c := newClassifier(t)
	sustained := &wavform.Descriptor{
		DurationSec: 1.4, SpectralCentroid: 0.04, SpectralFlatness: 0.02,
		CrestFactor: 2.1, ZeroCrossRate: 0.01, PitchStability: 0.92, GlideRate: 0.5,
	}
	in := classify.Input{
		File:       scanner.SampleFile{RelPath: "deep_sub.wav", Ext: ".wav"},
		FolderName: "misc",
		Descriptor: sustained,
	}
	result := c.Classify(in)
	if result.Bucket != "808s" {
		t.Fatalf("sustained sub should favor 808s, got %q (%v)", result.Bucket, result.Candidates)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	c := newClassifier(t)
	in := wavInput("Percussion", "shaker_loop_03.wav")
	first := c.Classify(in)
	for i := 0; i < 5; i++ {
		again := c.Classify(in)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("classification not deterministic:\nfirst %+v\nagain %+v", first, again)
		}
	}
}

func TestFilenameSignalIgnoresParentDirectories(t *testing.T) {
	c := newClassifier(t)
	// The snare keyword lives in an intermediate directory, not the base
	// name. Only the folder signal may see directory names.
	in := classify.Input{
		File:       scanner.SampleFile{RelPath: "Snares/pluck_warm.wav", Ext: ".wav"},
		FolderName: "Leads",
	}
	result := c.Classify(in)
	for _, r := range result.Reasons {
		if strings.HasPrefix(r, "filename_hit:Snares:") {
			t.Fatalf("directory name leaked into filename signal: %v", result.Reasons)
		}
	}
	if result.Bucket != "Leads" {
		t.Fatalf("bucket = %q, want Leads", result.Bucket)
	}
}

func TestTieBreakUsesPriorityThenKey(t *testing.T) {
	c := newClassifier(t)
	// A name with no hits scores every bucket 0; the winner must be the
	// lowest-priority-value bucket, which is 808s in the stock catalog.
	result := c.Classify(wavInput("", "zzz.wav"))
	if result.Bucket != "808s" {
		t.Fatalf("zero-score tie should break by priority order, got %q", result.Bucket)
	}
}

func containsReason(reasons []string, want string) bool {
	for _, r := range reasons {
		if r == want {
			return true
		}
	}
	return false
}
