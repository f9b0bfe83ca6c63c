package audio

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Resample converts buf to targetRate, preserving the channel layout.
func Resample(buf Buffer, targetRate int) (Buffer, error) {
	if targetRate <= 0 {
		return Buffer{}, fmt.Errorf("%w: target rate %d", ErrInvalidFormat, targetRate)
	}
	if buf.sampleRate == targetRate || buf.Len() == 0 {
		return wrap(buf.Samples(), targetRate, buf.channels), nil
	}

	r, err := resampling.New(&resampling.Config{
		InputRate:  float64(buf.sampleRate),
		OutputRate: float64(targetRate),
		Channels:   buf.channels,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return Buffer{}, fmt.Errorf("create resampler %d->%d: %w", buf.sampleRate, targetRate, err)
	}

	in := make([]float64, len(buf.samples))
	for i, s := range buf.samples {
		in[i] = float64(s)
	}
	out, err := r.Process(in)
	if err != nil {
		return Buffer{}, fmt.Errorf("resample %d->%d: %w", buf.sampleRate, targetRate, err)
	}

	samples := make([]float32, len(out)-len(out)%buf.channels)
	for i := range samples {
		samples[i] = float32(out[i])
	}
	return wrap(samples, targetRate, buf.channels), nil
}
