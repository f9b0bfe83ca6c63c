package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrAlreadyRecording is returned by Arm while a stream is live.
	ErrAlreadyRecording = errors.New("already recording")
	// ErrNotRecording is returned by Disarm when nothing is armed.
	ErrNotRecording = errors.New("not recording")
	// ErrBackendUnavailable is returned when the requested capture backend is not compiled in.
	ErrBackendUnavailable = errors.New("audio backend unavailable")
)

// StreamConfig describes the stream a Capture asks its opener for.
type StreamConfig struct {
	DeviceID   string
	SampleRate int
	Channels   int
	BlockSize  int
}

// Stream is one live input stream.
type Stream interface {
	Start() error
	Stop() error
	Close() error
	// SampleRate is the rate blocks are delivered at, which may differ from the requested rate.
	SampleRate() int
}

// StreamOpener opens input streams that deliver interleaved float32 blocks to onBlock.
// onBlock may be called from any goroutine and must not be retained past the call.
type StreamOpener interface {
	OpenStream(ctx context.Context, cfg StreamConfig, onBlock func([]float32)) (Stream, error)
}

// Capture accumulates blocks from one stream while armed.
type Capture struct {
	opener StreamOpener
	cfg    StreamConfig
	now    func() time.Time

	// op serializes Arm and Disarm.
	op sync.Mutex

	mu      sync.Mutex
	armed   bool
	armedAt time.Time
	blocks  [][]float32
	stream  Stream
}

// NewCapture builds a Capture that opens streams via opener.
func NewCapture(opener StreamOpener, sampleRate int, channels int, blockSize int) *Capture {
	return &Capture{
		opener: opener,
		cfg: StreamConfig{
			SampleRate: sampleRate,
			Channels:   channels,
			BlockSize:  blockSize,
		},
		now: time.Now,
	}
}

// Arm opens a stream on deviceID and starts queueing its blocks.
func (c *Capture) Arm(ctx context.Context, deviceID string) error {
	c.op.Lock()
	defer c.op.Unlock()

	c.mu.Lock()
	if c.armed {
		c.mu.Unlock()
		return ErrAlreadyRecording
	}
	c.blocks = nil
	c.mu.Unlock()

	cfg := c.cfg
	cfg.DeviceID = deviceID
	stream, err := c.opener.OpenStream(ctx, cfg, c.onBlock)
	if err != nil {
		return fmt.Errorf("open input stream: %w", err)
	}

	c.mu.Lock()
	c.armed = true
	c.armedAt = c.now()
	c.stream = stream
	c.mu.Unlock()

	if err := stream.Start(); err != nil {
		c.mu.Lock()
		c.armed = false
		c.stream = nil
		c.blocks = nil
		c.mu.Unlock()
		return errors.Join(fmt.Errorf("start input stream: %w", err), stream.Close())
	}
	return nil
}

// Disarm stops queueing, closes the stream, and returns everything captured in arrival order.
// Blocks delivered after the armed flag flips are discarded.
func (c *Capture) Disarm() (Buffer, error) {
	c.op.Lock()
	defer c.op.Unlock()

	c.mu.Lock()
	if !c.armed {
		c.mu.Unlock()
		return Buffer{}, ErrNotRecording
	}
	c.armed = false
	blocks := c.blocks
	c.blocks = nil
	stream := c.stream
	c.stream = nil
	c.mu.Unlock()

	deliveredRate := c.cfg.SampleRate
	var closeErr error
	if stream != nil {
		if rate := stream.SampleRate(); rate > 0 {
			deliveredRate = rate
		}
		closeErr = errors.Join(stream.Stop(), stream.Close())
	}
	if closeErr != nil {
		return Buffer{}, fmt.Errorf("close input stream: %w", closeErr)
	}

	total := 0
	for _, b := range blocks {
		total += len(b)
	}
	samples := make([]float32, 0, total)
	for _, b := range blocks {
		samples = append(samples, b...)
	}
	// drop a trailing partial frame from a misbehaving backend
	samples = samples[:len(samples)-len(samples)%c.cfg.Channels]

	buf := wrap(samples, deliveredRate, c.cfg.Channels)
	if deliveredRate != c.cfg.SampleRate {
		return Resample(buf, c.cfg.SampleRate)
	}
	return buf, nil
}

// Armed reports whether blocks are currently being queued.
func (c *Capture) Armed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.armed
}

// ArmedFor is how long the current stream has been armed, or zero.
func (c *Capture) ArmedFor() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.armed {
		return 0
	}
	return c.now().Sub(c.armedAt)
}

func (c *Capture) onBlock(block []float32) {
	if len(block) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.armed {
		return
	}
	c.blocks = append(c.blocks, append([]float32(nil), block...))
}
