// Package audio captures microphone input and transforms PCM sample buffers.
package audio

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidFormat is returned when a buffer's rate, channel count, or sample count is inconsistent.
var ErrInvalidFormat = errors.New("invalid audio format")

// Buffer is an immutable block of interleaved float32 samples.
type Buffer struct {
	samples    []float32
	sampleRate int
	channels   int
}

// NewBuffer copies samples into a new Buffer.
func NewBuffer(samples []float32, sampleRate int, channels int) (Buffer, error) {
	if sampleRate <= 0 {
		return Buffer{}, fmt.Errorf("%w: sample rate %d", ErrInvalidFormat, sampleRate)
	}
	if channels <= 0 {
		return Buffer{}, fmt.Errorf("%w: channels %d", ErrInvalidFormat, channels)
	}
	if len(samples)%channels != 0 {
		return Buffer{}, fmt.Errorf("%w: %d samples not divisible by %d channels", ErrInvalidFormat, len(samples), channels)
	}
	return Buffer{
		samples:    append([]float32(nil), samples...),
		sampleRate: sampleRate,
		channels:   channels,
	}, nil
}

// Empty returns a zero-length buffer in the given format.
func Empty(sampleRate int, channels int) Buffer {
	return Buffer{sampleRate: sampleRate, channels: channels}
}

// wrap adopts samples without copying; callers must not retain them.
func wrap(samples []float32, sampleRate int, channels int) Buffer {
	return Buffer{samples: samples, sampleRate: sampleRate, channels: channels}
}

// Samples returns a copy of the interleaved samples.
func (b Buffer) Samples() []float32 {
	return append([]float32(nil), b.samples...)
}

func (b Buffer) SampleRate() int {
	return b.sampleRate
}

func (b Buffer) Channels() int {
	return b.channels
}

// Len is the number of samples across all channels.
func (b Buffer) Len() int {
	return len(b.samples)
}

// Frames is the number of samples per channel.
func (b Buffer) Frames() int {
	if b.channels <= 0 {
		return 0
	}
	return len(b.samples) / b.channels
}

// Duration is frames divided by sample rate, in seconds.
func (b Buffer) Duration() float64 {
	if b.sampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.sampleRate)
}

// RMS is sqrt(mean(x²)) over every sample.
func (b Buffer) RMS() float64 {
	return rms(b.samples)
}

// Peak is the largest absolute sample value.
func (b Buffer) Peak() float64 {
	var peak float64
	for _, s := range b.samples {
		if v := math.Abs(float64(s)); v > peak {
			peak = v
		}
	}
	return peak
}

func rms(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}
