package wavform

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	frameSize = 2048
	hopSize   = 1024
	// pitchFloorHz discards rumble below musical range when tracking pitch.
	pitchFloorHz = 30.0
)

// Extract decodes the file and computes its descriptor vector.
func Extract(path string) (Descriptor, error) {
	samples, rate, err := Decode(path)
	if err != nil {
		return Descriptor{}, err
	}
	return Analyze(samples, rate), nil
}

// Analyze computes the descriptor for already-decoded mono samples.
func Analyze(samples []float64, rate int) Descriptor {
	desc := Descriptor{
		DurationSec:   float64(len(samples)) / float64(rate),
		CrestFactor:   crestFactor(samples),
		ZeroCrossRate: zeroCrossRate(samples),
	}

	centroids, flatness, pitches := spectralFrames(samples, rate)
	desc.SpectralCentroid = mean(centroids)
	desc.SpectralFlatness = mean(flatness)
	desc.PitchStability, desc.GlideRate = pitchTrackSummary(pitches, rate)
	return desc
}

func crestFactor(samples []float64) float64 {
	var peak, sumSq float64
	for _, s := range samples {
		abs := math.Abs(s)
		if abs > peak {
			peak = abs
		}
		sumSq += s * s
	}
	if len(samples) == 0 {
		return 0
	}
	rms := math.Sqrt(sumSq / float64(len(samples)))
	if rms == 0 {
		return 0
	}
	return peak / rms
}

func zeroCrossRate(samples []float64) float64 {
	if len(samples) < 2 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(samples); i++ {
		if (samples[i-1] >= 0) != (samples[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(samples)-1)
}

// spectralFrames windows the signal and returns per-frame centroid (fraction
// of Nyquist), flatness, and dominant pitch in Hz (0 for silent frames).
func spectralFrames(samples []float64, rate int) (centroids, flatness, pitches []float64) {
	size := frameSize
	if len(samples) < size {
		size = len(samples)
	}
	if size < 64 {
		return nil, nil, nil
	}

	fft := fourier.NewFFT(size)
	window := hannWindow(size)
	frame := make([]float64, size)
	nyquist := float64(rate) / 2
	minBin := int(math.Ceil(pitchFloorHz * float64(size) / float64(rate)))
	if minBin < 1 {
		minBin = 1
	}

	for start := 0; start+size <= len(samples); start += hopSize {
		var energy float64
		for i := 0; i < size; i++ {
			frame[i] = samples[start+i] * window[i]
			energy += frame[i] * frame[i]
		}
		if energy < 1e-9 {
			continue
		}

		coeffs := fft.Coefficients(nil, frame)
		var weighted, total, logSum float64
		peakBin, peakMag := 0, 0.0
		bins := 0
		for bin := 1; bin < len(coeffs); bin++ {
			mag := cmplxAbs(coeffs[bin])
			power := mag * mag
			freq := float64(bin) * float64(rate) / float64(size)
			weighted += freq * power
			total += power
			logSum += math.Log(power + 1e-12)
			bins++
			if bin >= minBin && mag > peakMag {
				peakMag = mag
				peakBin = bin
			}
		}
		if total <= 0 || bins == 0 {
			continue
		}
		centroids = append(centroids, (weighted/total)/nyquist)
		geo := math.Exp(logSum / float64(bins))
		flatness = append(flatness, geo/(total/float64(bins)))
		if peakBin > 0 {
			pitches = append(pitches, float64(peakBin)*float64(rate)/float64(size))
		} else {
			pitches = append(pitches, 0)
		}
	}
	return centroids, flatness, pitches
}

// pitchTrackSummary reduces the per-frame pitch track to a stability score and
// a glide rate. Stability compares the spread of the log2 pitch track against
// a half-octave reference; glide fits a least-squares slope in octaves/sec.
func pitchTrackSummary(pitches []float64, rate int) (stability, glideRate float64) {
	logs := make([]float64, 0, len(pitches))
	times := make([]float64, 0, len(pitches))
	hopSec := float64(hopSize) / float64(rate)
	for i, p := range pitches {
		if p <= 0 {
			continue
		}
		logs = append(logs, math.Log2(p))
		times = append(times, float64(i)*hopSec)
	}
	if len(logs) < 2 {
		return 0, 0
	}

	meanLog := mean(logs)
	var variance float64
	for _, l := range logs {
		variance += (l - meanLog) * (l - meanLog)
	}
	variance /= float64(len(logs))
	stddev := math.Sqrt(variance)
	stability = 1.0 / (1.0 + stddev/0.5)

	meanTime := mean(times)
	var num, den float64
	for i := range logs {
		num += (times[i] - meanTime) * (logs[i] - meanLog)
		den += (times[i] - meanTime) * (times[i] - meanTime)
	}
	if den > 0 {
		glideRate = math.Abs(num / den)
	}
	return stability, glideRate
}

func hannWindow(size int) []float64 {
	window := make([]float64, size)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size-1)))
	}
	return window
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}
