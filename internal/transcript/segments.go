package transcript

import (
	"strings"

	"github.com/samber/lo"
)

// Whisper treats a segment as silence when both hold.
const (
	noSpeechThreshold = 0.6
	silentLogProb     = -1.0
)

// Segment is one decoded span of a verbose transcription response.
type Segment struct {
	Text         string  `json:"text"`
	AvgLogProb   float64 `json:"avg_logprob"`
	NoSpeechProb float64 `json:"no_speech_prob"`
}

func (s Segment) silent() bool {
	return s.NoSpeechProb > noSpeechThreshold && s.AvgLogProb < silentLogProb
}

// Segments is the segment list of one response.
type Segments []Segment

// Speech drops segments the decoder marked as probable silence.
func (s Segments) Speech() Segments {
	return Segments(lo.Reject(s, func(seg Segment, _ int) bool { return seg.silent() }))
}

// Text joins the speech segments. When the server sent no per-segment text,
// fallback (the response's top-level text) is used instead.
func (s Segments) Text(fallback string) string {
	if !lo.SomeBy(s, func(seg Segment) bool { return strings.TrimSpace(seg.Text) != "" }) {
		return Clean(fallback)
	}
	parts := lo.Map(s.Speech(), func(seg Segment, _ int) string { return seg.Text })
	return Clean(strings.Join(parts, " "))
}

// Confidence averages the speech segments' log-probabilities.
func (s Segments) Confidence() (float64, bool) {
	return ConfidenceFromLogProbs(lo.Map(s.Speech(), func(seg Segment, _ int) float64 { return seg.AvgLogProb }))
}

// Clean collapses runs of whitespace to one space and trims the ends.
func Clean(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
