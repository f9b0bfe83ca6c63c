package audio

import "fmt"

const gateWindowSeconds = 0.01

// ProcessingConfig carries the tunables for the post-capture transforms.
type ProcessingConfig struct {
	NormalizeTarget    float64
	TrimThreshold      float64
	TrimMinSilence     float64
	GateThreshold      float64
	GateAttackSeconds  float64
	GateReleaseSeconds float64
}

// DefaultProcessingConfig returns the stock transform settings.
func DefaultProcessingConfig() ProcessingConfig {
	return ProcessingConfig{
		NormalizeTarget:    0.9,
		TrimThreshold:      0.001,
		TrimMinSilence:     0.1,
		GateThreshold:      0.001,
		GateAttackSeconds:  0.01,
		GateReleaseSeconds: 0.1,
	}
}

// Steps selects which transforms Process applies.
type Steps struct {
	TrimSilence bool
	Normalize   bool
	NoiseGate   bool
}

// Processor applies the configured transforms in a fixed order.
type Processor struct {
	cfg ProcessingConfig
}

// NewProcessor builds a Processor; zero fields fall back to defaults.
func NewProcessor(cfg ProcessingConfig) Processor {
	def := DefaultProcessingConfig()
	if cfg.NormalizeTarget == 0 {
		cfg.NormalizeTarget = def.NormalizeTarget
	}
	if cfg.TrimMinSilence == 0 {
		cfg.TrimMinSilence = def.TrimMinSilence
	}
	if cfg.GateReleaseSeconds == 0 {
		cfg.GateReleaseSeconds = def.GateReleaseSeconds
	}
	return Processor{cfg: cfg}
}

// Process runs trim, then normalize, then noise gate, each only when requested.
func (p Processor) Process(buf Buffer, steps Steps) (Buffer, error) {
	out := buf
	if steps.TrimSilence {
		out = TrimSilence(out, p.cfg.TrimThreshold, p.cfg.TrimMinSilence)
	}
	if steps.Normalize {
		normalized, err := Normalize(out, p.cfg.NormalizeTarget)
		if err != nil {
			return Buffer{}, err
		}
		out = normalized
	}
	if steps.NoiseGate {
		out = ApplyNoiseGate(out, p.cfg.GateThreshold, p.cfg.GateAttackSeconds, p.cfg.GateReleaseSeconds)
	}
	return out, nil
}

// Normalize scales buf so its peak equals target. Silent input is returned unchanged.
func Normalize(buf Buffer, target float64) (Buffer, error) {
	if target <= 0 || target > 1 {
		return Buffer{}, fmt.Errorf("normalize target must be in (0, 1], got %g", target)
	}
	peak := buf.Peak()
	if peak == 0 {
		return wrap(buf.Samples(), buf.sampleRate, buf.channels), nil
	}

	gain := target / peak
	out := make([]float32, len(buf.samples))
	for i, s := range buf.samples {
		out[i] = float32(float64(s) * gain)
	}
	return wrap(out, buf.sampleRate, buf.channels), nil
}

// TrimSilence drops leading and trailing windows whose RMS does not exceed threshold.
// Windows span minSilence seconds and advance by half a window.
func TrimSilence(buf Buffer, threshold float64, minSilence float64) Buffer {
	frames := buf.Frames()
	window := int(minSilence * float64(buf.sampleRate))
	stride := window / 2
	if window <= 0 || stride <= 0 || frames <= window {
		return wrap(buf.Samples(), buf.sampleRate, buf.channels)
	}

	start := 0
	for i := 0; i < frames-window; i += stride {
		if buf.frameRMS(i, i+window) > threshold {
			start = i
			break
		}
	}

	end := frames
	for i := frames - window; i > 0; i -= stride {
		if buf.frameRMS(i, i+window) > threshold {
			end = i + window
			break
		}
	}

	if start >= end {
		return wrap(buf.Samples(), buf.sampleRate, buf.channels)
	}
	return buf.sliceFrames(start, end)
}

// ApplyNoiseGate silences 10ms windows whose RMS is below threshold, fading
// out over the release time before zeroing the remainder of the window.
// attack is accepted for symmetry with release and does not affect the output.
func ApplyNoiseGate(buf Buffer, threshold float64, attack float64, release float64) Buffer {
	out := buf.Samples()
	frames := buf.Frames()
	window := int(gateWindowSeconds * float64(buf.sampleRate))
	if window <= 0 {
		return wrap(out, buf.sampleRate, buf.channels)
	}

	fadeLen := min(int(release*float64(buf.sampleRate)), window)
	fade := linspace(1, 0, fadeLen)
	ch := buf.channels

	for i := 0; i < frames-window; i += window {
		if buf.frameRMS(i, i+window) >= threshold {
			continue
		}
		for f := 0; f < window; f++ {
			gain := float32(0)
			if f < len(fade) {
				gain = float32(fade[f])
			}
			for c := 0; c < ch; c++ {
				out[(i+f)*ch+c] *= gain
			}
		}
	}
	return wrap(out, buf.sampleRate, buf.channels)
}

// ToMono averages channels into a single channel.
func ToMono(buf Buffer) Buffer {
	if buf.channels <= 1 {
		return wrap(buf.Samples(), buf.sampleRate, buf.channels)
	}

	frames := buf.Frames()
	out := make([]float32, frames)
	for f := 0; f < frames; f++ {
		var sum float64
		for c := 0; c < buf.channels; c++ {
			sum += float64(buf.samples[f*buf.channels+c])
		}
		out[f] = float32(sum / float64(buf.channels))
	}
	return wrap(out, buf.sampleRate, 1)
}

func (b Buffer) frameRMS(startFrame int, endFrame int) float64 {
	return rms(b.samples[startFrame*b.channels : endFrame*b.channels])
}

func (b Buffer) sliceFrames(startFrame int, endFrame int) Buffer {
	out := append([]float32(nil), b.samples[startFrame*b.channels:endFrame*b.channels]...)
	return wrap(out, b.sampleRate, b.channels)
}

// linspace returns n evenly spaced values from start to stop inclusive.
func linspace(start float64, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{start}
	}
	out := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}
