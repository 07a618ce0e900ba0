package testsupport

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Signal describes a synthetic test tone.
type Signal struct {
	// Kind selects the generator: "sine", "kick", "glide", "noise", or
	// "silence".
	Kind string
	// Freq is the base frequency in Hz (sine, kick, glide start).
	Freq float64
	// FreqEnd is the glide target frequency in Hz.
	FreqEnd float64
	// DurationSec is the signal length; defaults to 0.5s.
	DurationSec float64
}

const testSampleRate = 22050

// WriteWAV synthesizes the described signal and writes it as a 16-bit mono
// PCM WAV file at path, creating parent directories as needed.
func WriteWAV(t testing.TB, path string, sig Signal) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, testSampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: testSampleRate},
		SourceBitDepth: 16,
		Data:           quantize16(synthesize(sig)),
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("finalize %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close %s: %v", path, err)
	}
}

// WriteCorruptWAV writes a file with a RIFF prefix but garbage payload, for
// decode-failure paths.
func WriteCorruptWAV(t testing.TB, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte("RIFFxxxxWAVEoops"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func synthesize(sig Signal) []float64 {
	duration := sig.DurationSec
	if duration <= 0 {
		duration = 0.5
	}
	n := int(duration * testSampleRate)
	if n < 1 {
		n = 1
	}
	samples := make([]float64, n)

	switch sig.Kind {
	case "kick":
		freq := defaultFreq(sig.Freq, 60)
		for i := range samples {
			tt := float64(i) / testSampleRate
			samples[i] = math.Exp(-tt*10) * math.Sin(2*math.Pi*freq*tt)
		}
	case "glide":
		start := defaultFreq(sig.Freq, 60)
		end := defaultFreq(sig.FreqEnd, 50)
		ratio := end / start
		phase := 0.0
		for i := range samples {
			tt := float64(i) / testSampleRate
			inst := start * math.Pow(ratio, tt/duration)
			phase += 2 * math.Pi * inst / testSampleRate
			samples[i] = math.Sin(phase) * math.Exp(-tt)
		}
	case "noise":
		rng := rand.New(rand.NewSource(0))
		for i := range samples {
			env := math.Exp(-6 * float64(i) / float64(n))
			samples[i] = rng.NormFloat64() * 0.3 * env
		}
	case "silence":
		// all zeros
	default: // sine
		freq := defaultFreq(sig.Freq, 440)
		for i := range samples {
			tt := float64(i) / testSampleRate
			samples[i] = math.Sin(2 * math.Pi * freq * tt)
		}
	}
	return samples
}

func defaultFreq(v, fallback float64) float64 {
	if v <= 0 {
		return fallback
	}
	return v
}

func quantize16(samples []float64) []int {
	out := make([]int, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		out[i] = int(s * math.MaxInt16)
	}
	return out
}
