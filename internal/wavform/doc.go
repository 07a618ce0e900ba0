// Package wavform decodes WAV audio and reduces it to a fixed descriptor
// vector used by audio-signal scoring: duration, spectral centroid and
// flatness, crest factor, zero-crossing rate, and a pitch track summary that
// separates sustained pitch from sweeping glides.
package wavform
