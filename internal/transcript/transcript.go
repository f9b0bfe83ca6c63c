// Package transcript holds transcription results and text shaping helpers.
package transcript

import (
	"math"
	"time"
)

// Transcription is one immutable recognition result.
type Transcription struct {
	Text          string
	Timestamp     time.Time
	AudioDuration float64
	ModelSize     string
	Confidence    *float64
	SourceRMS     *float64
}

// New stamps a Transcription with the current time.
func New(text string, audioDuration float64, modelSize string) Transcription {
	return Transcription{
		Text:          text,
		Timestamp:     time.Now(),
		AudioDuration: audioDuration,
		ModelSize:     modelSize,
	}
}

// WithConfidence returns a copy carrying confidence.
func (t Transcription) WithConfidence(confidence float64) Transcription {
	t.Confidence = &confidence
	return t
}

// WithSourceRMS returns a copy carrying the RMS of the audio it was decoded from.
func (t Transcription) WithSourceRMS(rms float64) Transcription {
	t.SourceRMS = &rms
	return t
}

// ConfidenceFromLogProbs maps mean segment log-probability through exp to [0, 1].
// It reports false when there is nothing to average.
func ConfidenceFromLogProbs(logProbs []float64) (float64, bool) {
	if len(logProbs) == 0 {
		return 0, false
	}
	var sum float64
	for _, lp := range logProbs {
		sum += lp
	}
	c := math.Exp(sum / float64(len(logProbs)))
	return math.Max(0, math.Min(1, c)), true
}
