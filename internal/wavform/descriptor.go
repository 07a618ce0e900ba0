package wavform

import "math"

// Descriptor is the fixed feature vector computed per eligible file. All
// spectral fields are normalized so distances between files and bucket
// reference profiles stay comparable across sample rates.
type Descriptor struct {
	// DurationSec is the decoded length in seconds.
	DurationSec float64 `json:"duration_sec"`
	// SpectralCentroid is the energy-weighted mean frequency as a fraction
	// of Nyquist (0..1).
	SpectralCentroid float64 `json:"spectral_centroid"`
	// SpectralFlatness is the geometric/arithmetic mean ratio of the power
	// spectrum (0 tonal .. 1 noisy).
	SpectralFlatness float64 `json:"spectral_flatness"`
	// CrestFactor is the peak-to-RMS amplitude ratio (linear).
	CrestFactor float64 `json:"crest_factor"`
	// ZeroCrossRate is the fraction of adjacent sample pairs that change
	// sign (0..1).
	ZeroCrossRate float64 `json:"zero_cross_rate"`
	// PitchStability is 1 for a steady sustained pitch and approaches 0 as
	// the pitch track wanders (0..1).
	PitchStability float64 `json:"pitch_stability"`
	// GlideRate is the magnitude of the pitch track slope in octaves per
	// second; sweeps and risers score high, one-shots near zero.
	GlideRate float64 `json:"glide_rate"`
}

// descriptorDims is the ordering used by Vector and DistanceTo.
const descriptorDims = 7

// Vector returns the descriptor as an ordered slice.
func (d Descriptor) Vector() [descriptorDims]float64 {
	return [descriptorDims]float64{
		d.DurationSec,
		d.SpectralCentroid,
		d.SpectralFlatness,
		d.CrestFactor,
		d.ZeroCrossRate,
		d.PitchStability,
		d.GlideRate,
	}
}

// defaultScales damp dimensions with unbounded ranges so no single field
// dominates the distance. Duration is compressed because loops run minutes
// while hits run milliseconds.
var defaultScales = [descriptorDims]float64{0.2, 1, 1, 0.25, 1, 1, 0.5}

// DistanceTo computes the scaled Euclidean distance between two descriptors.
func (d Descriptor) DistanceTo(other Descriptor) float64 {
	a := d.Vector()
	b := other.Vector()
	var sum float64
	for i := 0; i < descriptorDims; i++ {
		delta := (a[i] - b[i]) * defaultScales[i]
		sum += delta * delta
	}
	return math.Sqrt(sum)
}

// Similarity converts a descriptor distance into a similarity score in (0,1].
func (d Descriptor) Similarity(other Descriptor) float64 {
	return 1.0 / (1.0 + d.DistanceTo(other))
}
