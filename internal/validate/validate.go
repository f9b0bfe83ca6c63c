// Package validate gates audio before inference and text after it.
package validate

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rbright/whisperkey/internal/audio"
	"github.com/rbright/whisperkey/internal/transcript"
)

// Config holds the validation thresholds.
type Config struct {
	MinDuration        float64
	MaxDuration        float64
	SilenceThreshold   float64
	MinPeak            float64
	MinTextLength      int
	MinRMSForShortText float64
	ShortTextMaxLength int
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		MinDuration:        0.5,
		MaxDuration:        30,
		SilenceThreshold:   0.001,
		MinPeak:            0.01,
		MinTextLength:      1,
		MinRMSForShortText: 0.01,
		ShortTextMaxLength: 15,
	}
}

// Result is the outcome of one gate. Reason is empty when Accepted.
type Result struct {
	Accepted bool
	Reason   string
}

func accept() Result {
	return Result{Accepted: true}
}

func reject(format string, args ...any) Result {
	return Result{Reason: fmt.Sprintf(format, args...)}
}

// hallucinations are phrases speech models commonly emit for silence or noise.
var hallucinations = map[string]struct{}{
	"thank you": {}, "thanks": {}, "thank you.": {}, "thanks.": {},
	"thank you for watching": {}, "thanks for watching": {},
	"please subscribe": {}, "subscribe": {}, "bye": {}, "bye.": {},
	"you": {}, "you.": {}, "♪": {}, "[music]": {}, "[applause]": {},
	".": {}, "..": {}, "...": {}, "": {},
}

// IsHallucination reports whether text exactly matches a known filler phrase, ignoring case and outer whitespace.
func IsHallucination(text string) bool {
	_, ok := hallucinations[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

// Validator applies Config to audio buffers and transcriptions.
type Validator struct {
	cfg Config
}

// New builds a Validator.
func New(cfg Config) Validator {
	return Validator{cfg: cfg}
}

// Config returns the active thresholds.
func (v Validator) Config() Config {
	return v.cfg
}

// ValidateAudio rejects clips that are too short, too long, silent, or too faint.
func (v Validator) ValidateAudio(buf audio.Buffer) Result {
	duration := buf.Duration()
	if duration < v.cfg.MinDuration {
		return reject("Audio too short (%.1fs < %ss)", duration, formatSeconds(v.cfg.MinDuration))
	}
	if duration > v.cfg.MaxDuration {
		return reject("Audio too long (%.1fs > %ss)", duration, formatSeconds(v.cfg.MaxDuration))
	}
	if rms := buf.RMS(); rms < v.cfg.SilenceThreshold {
		return reject("Audio is too quiet (RMS: %.4f)", rms)
	}
	if peak := buf.Peak(); peak < v.cfg.MinPeak {
		return reject("Audio volume too low (peak: %.4f)", peak)
	}
	return accept()
}

// ValidateTranscription rejects empty text, known hallucinations, and short text from quiet audio.
// The phrase list is checked before the length/energy rule.
func (v Validator) ValidateTranscription(t transcript.Transcription) Result {
	trimmed := strings.TrimSpace(t.Text)
	if trimmed == "" {
		return reject("Empty transcription")
	}
	length := utf8.RuneCountInString(trimmed)
	if length < v.cfg.MinTextLength {
		return reject("Text too short (%d characters)", length)
	}
	if IsHallucination(trimmed) {
		return reject("Likely hallucination: '%s'", t.Text)
	}
	// Whitespace counts toward the short-text limit.
	if utf8.RuneCountInString(t.Text) <= v.cfg.ShortTextMaxLength && t.SourceRMS != nil && *t.SourceRMS < v.cfg.MinRMSForShortText {
		return reject("Short text with low audio energy (possible hallucination)")
	}
	return accept()
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
