package config

import "time"

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// MaxRecording is the watchdog limit.
func (a AudioConfig) MaxRecording() time.Duration { return seconds(a.MaxRecordingSeconds) }

// Timeout is the per-request transcription timeout. Zero disables it.
func (t TranscriptionConfig) Timeout() time.Duration { return millis(t.TimeoutMS) }

// Debounce is the release cooldown.
func (h HotkeyConfig) Debounce() time.Duration { return millis(h.DebounceMS) }

func (o OutputConfig) RestoreDelay() time.Duration { return millis(o.RestoreDelayMS) }

func (i IndicatorConfig) ErrorTimeout() time.Duration { return millis(i.ErrorTimeoutMS) }

func (i IndicatorConfig) Beep() time.Duration { return millis(i.BeepMS) }
