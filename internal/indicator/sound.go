package indicator

import (
	"fmt"
	"math"
	"time"

	"github.com/jfreymuth/pulse"
)

// Cue is one audible state change.
type Cue int

const (
	CueStart Cue = iota + 1
	CueStop
	CueError
	CueSuccess
)

const cueSampleRate = 16000

// Tones are the beep frequencies and shared length.
type Tones struct {
	StartHz   float64
	StopHz    float64
	ErrorHz   float64
	SuccessHz float64
	Duration  time.Duration
	Volume    float64
}

// DefaultTones: 800/600/400/1000 Hz, 100 ms each.
func DefaultTones() Tones {
	return Tones{
		StartHz:   800,
		StopHz:    600,
		ErrorHz:   400,
		SuccessHz: 1000,
		Duration:  100 * time.Millisecond,
		Volume:    0.2,
	}
}

func (t Tones) frequency(cue Cue) float64 {
	switch cue {
	case CueStart:
		return t.StartHz
	case CueStop:
		return t.StopHz
	case CueError:
		return t.ErrorHz
	case CueSuccess:
		return t.SuccessHz
	default:
		return 0
	}
}

func (t Tones) samples(cue Cue) []int16 {
	return synthesizeTone(t.frequency(cue), t.Duration, t.Volume)
}

// Player plays mono 16 kHz s16 samples to completion.
type Player interface {
	Play(samples []int16) error
}

type pulsePlayer struct{}

func (pulsePlayer) Play(samples []int16) error {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("whisperkey"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	cursor := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if cursor >= len(samples) {
			return 0, pulse.EndOfData
		}
		n := copy(buf, samples[cursor:])
		cursor += n
		if cursor >= len(samples) {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	stream, err := client.NewPlayback(
		reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(cueSampleRate),
		pulse.PlaybackLatency(0.02),
		pulse.PlaybackMediaName("whisperkey cue"),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play cue stream: %w", err)
	}
	return nil
}

// synthesizeTone renders a sine with a short linear attack and release to avoid clicks.
func synthesizeTone(frequencyHz float64, d time.Duration, volume float64) []int16 {
	n := samplesForDuration(d)
	if n <= 0 || frequencyHz <= 0 || volume <= 0 {
		return nil
	}

	ramp := min(n/10, cueSampleRate/200)
	ramp = max(ramp, 1)

	pcm := make([]int16, n)
	for i := range n {
		envelope := 1.0
		if i < ramp {
			envelope = float64(i) / float64(ramp)
		}
		if tail := n - i - 1; tail < ramp {
			envelope = math.Min(envelope, float64(tail)/float64(ramp))
		}
		t := float64(i) / cueSampleRate
		pcm[i] = int16(math.Round(math.Sin(2*math.Pi*frequencyHz*t) * volume * envelope * 32767))
	}
	return pcm
}

func samplesForDuration(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * cueSampleRate))
}
