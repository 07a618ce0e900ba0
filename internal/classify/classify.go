package classify

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"crates/internal/catalog"
	"crates/internal/config"
	"crates/internal/scanner"
	"crates/internal/textutil"
	"crates/internal/wavform"
)

// midiBucketKey receives the extension boost for literal .mid files.
const midiBucketKey = "MIDI"

// Candidate is one scored bucket.
type Candidate struct {
	Bucket string  `json:"bucket"`
	Score  float64 `json:"score"`
}

// Result is the immutable classification outcome for one file in one run.
type Result struct {
	// Bucket is the winning internal bucket key.
	Bucket string `json:"bucket"`
	// Confidence is the winning combined score in [0,1].
	Confidence float64 `json:"confidence"`
	// Candidates holds exactly the top three buckets by score.
	Candidates []Candidate `json:"top_3_candidates"`
	// Reasons lists which signals contributed, for the run report.
	Reasons []string `json:"reasons"`
	// LowConfidence marks winners below the configured floor. The file is
	// still assigned; routing policy decides whether to divert it.
	LowConfidence bool `json:"low_confidence"`
	// Quarantine marks files that failed decoding and carry no name
	// signal at all.
	Quarantine bool `json:"quarantine"`
}

// Input carries one file's signals into classification.
type Input struct {
	File scanner.SampleFile
	// FolderName is the immediate containing folder name.
	FolderName string
	// Descriptor is nil when extraction failed or was not attempted.
	Descriptor *wavform.Descriptor
	// DecodeFailed records an extraction failure for quarantine policy.
	DecodeFailed bool
}

// Classifier scores files against a catalog. Classification is a pure
// function of the input; the classifier holds no mutable state.
type Classifier struct {
	cat     *catalog.Catalog
	scoring config.Scoring
}

// New builds a classifier over the catalog with the configured weights.
func New(cat *catalog.Catalog, scoring config.Scoring) *Classifier {
	return &Classifier{cat: cat, scoring: scoring}
}

// Classify scores the file against every bucket and returns the winner with
// its top-3 candidates and reasoning tokens.
func (c *Classifier) Classify(in Input) Result {
	buckets := c.cat.Buckets()
	// Only the base name feeds the filename signal; parent directories belong
	// to the folder signal.
	fileName := strings.TrimSuffix(filepath.Base(in.File.RelPath), in.File.Ext)
	fileTokens := textutil.Tokenize(fileName)
	folderTokens := textutil.Tokenize(in.FolderName)

	folderRaw := make([]float64, len(buckets))
	nameRaw := make([]float64, len(buckets))
	audio := make([]float64, len(buckets))
	var reasons []string

	var folderTotal, nameTotal float64
	for i, bucket := range buckets {
		for _, keyword := range bucket.Keywords {
			if hits := textutil.CountKeyword(folderTokens, keyword); hits > 0 {
				folderRaw[i] += float64(hits)
				reasons = append(reasons, fmt.Sprintf("folder_hit:%s:%s", bucket.Key, keyword))
			}
			if hits := textutil.CountKeyword(fileTokens, keyword); hits > 0 {
				nameRaw[i] += float64(hits)
				reasons = append(reasons, fmt.Sprintf("filename_hit:%s:%s", bucket.Key, keyword))
			}
		}
		if bucket.Key == midiBucketKey && in.File.Ext == ".mid" {
			nameRaw[i] += c.scoring.MidiExtensionBoost
			reasons = append(reasons, "midi_extension")
		}
		folderTotal += folderRaw[i]
		nameTotal += nameRaw[i]
	}

	haveAudio := in.Descriptor != nil
	if haveAudio {
		for i, bucket := range buckets {
			if bucket.Profile == nil {
				continue
			}
			audio[i] = in.Descriptor.Similarity(*bucket.Profile)
		}
	}
	if in.DecodeFailed {
		reasons = append(reasons, "decode_error")
	}

	// Name signals are normalized to shares so each signal lands in [0,1];
	// the audio similarity already does. When no descriptor exists the
	// audio weight drops out of the denominator so name-only files are not
	// penalized for a signal they cannot have.
	weightSum := c.scoring.FolderWeight + c.scoring.FilenameWeight
	if haveAudio {
		weightSum += c.scoring.AudioWeight
	}

	combined := make([]float64, len(buckets))
	for i := range buckets {
		var score float64
		if folderTotal > 0 {
			score += c.scoring.FolderWeight * (folderRaw[i] / folderTotal)
		}
		if nameTotal > 0 {
			score += c.scoring.FilenameWeight * (nameRaw[i] / nameTotal)
		}
		if haveAudio {
			score += c.scoring.AudioWeight * audio[i]
		}
		if weightSum > 0 {
			score /= weightSum
		}
		combined[i] = clamp01(score)
	}

	order := make([]int, len(buckets))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if combined[order[a]] != combined[order[b]] {
			return combined[order[a]] > combined[order[b]]
		}
		return c.cat.Less(buckets[order[a]].Key, buckets[order[b]].Key)
	})

	candidates := make([]Candidate, 0, 3)
	for _, idx := range order {
		if len(candidates) == 3 {
			break
		}
		candidates = append(candidates, Candidate{Bucket: buckets[idx].Key, Score: round4(combined[idx])})
	}

	result := Result{
		Bucket:     buckets[order[0]].Key,
		Confidence: round4(combined[order[0]]),
		Candidates: candidates,
		Reasons:    reasons,
	}
	result.LowConfidence = result.Confidence < c.scoring.ConfidenceFloor
	if in.DecodeFailed && folderTotal == 0 && nameTotal == 0 {
		result.Quarantine = true
		result.Reasons = append(result.Reasons, "no_name_signal")
	}
	return result
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round4(v float64) float64 {
	return float64(int(v*10000+0.5)) / 10000
}
