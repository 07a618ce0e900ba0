package wavform

import (
	"errors"
	"os"

	"github.com/go-audio/wav"

	"crates/internal/services"
)

// Decode reads a WAV file into normalized mono samples in [-1, 1].
// Multi-channel audio is downmixed by averaging channels. Failures are tagged
// services.ErrDecode so callers can quarantine the file without aborting.
func Decode(path string) ([]float64, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, services.Wrap(services.ErrDecode, "wavform", "open", path, err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, 0, services.Wrap(services.ErrDecode, "wavform", "validate", "not a valid RIFF/WAVE file", nil)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, services.Wrap(services.ErrDecode, "wavform", "read pcm", path, err)
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return nil, 0, services.Wrap(services.ErrDecode, "wavform", "read pcm", "empty audio payload", nil)
	}

	channels := buf.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}
	rate := buf.Format.SampleRate
	if rate <= 0 {
		return nil, 0, services.Wrap(services.ErrDecode, "wavform", "read pcm", "missing sample rate", nil)
	}

	bitDepth := int(decoder.BitDepth)
	if bitDepth <= 0 {
		bitDepth = buf.SourceBitDepth
	}
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	frames := len(buf.Data) / channels
	if frames == 0 {
		return nil, 0, services.Wrap(services.ErrDecode, "wavform", "read pcm", "no complete frames", nil)
	}

	mono := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c]) / scale
		}
		mono[i] = sum / float64(channels)
	}
	return mono, rate, nil
}

// IsDecodeError reports whether the error came from audio decoding.
func IsDecodeError(err error) bool {
	return errors.Is(err, services.ErrDecode)
}
