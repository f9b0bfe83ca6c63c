package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"
	"sync"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

const pulseAppName = "whisperkey"

// PulseOpener records from PulseAudio/PipeWire sources.
type PulseOpener struct{}

// OpenStream connects to the Pulse server and creates an s16le record stream.
// deviceID "" or "default" selects the server default source.
func (PulseOpener) OpenStream(_ context.Context, cfg StreamConfig, onBlock func([]float32)) (Stream, error) {
	if cfg.Channels != 1 && cfg.Channels != 2 {
		return nil, fmt.Errorf("pulse capture supports 1 or 2 channels, got %d", cfg.Channels)
	}

	client, err := newPulseClient()
	if err != nil {
		return nil, err
	}

	source, err := resolvePulseSource(client, cfg.DeviceID)
	if err != nil {
		client.Close()
		return nil, err
	}

	s := &pulseStream{client: client, rate: cfg.SampleRate, channels: cfg.Channels, onBlock: onBlock}
	layout := pulse.RecordMono
	if cfg.Channels == 2 {
		layout = pulse.RecordStereo
	}
	fragment := cfg.BlockSize * cfg.Channels * 2
	if fragment <= 0 {
		fragment = 1024
	}

	stream, err := client.NewRecord(
		pulse.NewWriter(writerFunc(s.onPCM), pulseproto.FormatInt16LE),
		pulse.RecordSource(source),
		layout,
		pulse.RecordSampleRate(cfg.SampleRate),
		pulse.RecordBufferFragmentSize(uint32(fragment)),
		pulse.RecordMediaName("whisperkey dictation"),
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("create pulse record stream: %w", err)
	}
	s.stream = stream
	return s, nil
}

func newPulseClient() (*pulse.Client, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName(pulseAppName),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}
	return client, nil
}

func resolvePulseSource(client *pulse.Client, deviceID string) (*pulse.Source, error) {
	id := strings.TrimSpace(deviceID)
	if id == "" || strings.EqualFold(id, "default") {
		source, err := client.DefaultSource()
		if err != nil {
			return nil, fmt.Errorf("read default source: %w", err)
		}
		return source, nil
	}
	source, err := client.SourceByID(id)
	if err != nil {
		return nil, fmt.Errorf("resolve source %q: %w", id, err)
	}
	return source, nil
}

// pulseStream converts s16le frames to float32 blocks.
type pulseStream struct {
	client   *pulse.Client
	stream   *pulse.RecordStream
	rate     int
	channels int
	onBlock  func([]float32)

	mu      sync.Mutex
	pending []byte
	closed  bool
}

func (s *pulseStream) Start() error {
	s.stream.Start()
	return nil
}

func (s *pulseStream) Stop() error {
	s.stream.Stop()
	return nil
}

func (s *pulseStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.stream.Close()
	s.client.Close()
	return nil
}

func (s *pulseStream) SampleRate() int {
	return s.rate
}

// onPCM buffers raw bytes until whole frames are available.
func (s *pulseStream) onPCM(buffer []byte) (int, error) {
	frameBytes := 2 * s.channels

	s.mu.Lock()
	s.pending = append(s.pending, buffer...)
	usable := len(s.pending) - len(s.pending)%frameBytes
	raw := s.pending[:usable]
	s.pending = append([]byte(nil), s.pending[usable:]...)
	s.mu.Unlock()

	if usable == 0 {
		return len(buffer), nil
	}
	s.onBlock(decodeInt16LE(raw))
	return len(buffer), nil
}

func decodeInt16LE(raw []byte) []float32 {
	out := make([]float32, len(raw)/2)
	for i := range out {
		out[i] = int16ToFloat(int16(binary.LittleEndian.Uint16(raw[i*2:])))
	}
	return out
}

// writerFunc adapts a function to io.Writer for pulse.NewWriter.
type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) {
	return f(b)
}

// ListPulseDevices returns Pulse input sources, excluding monitors of output sinks.
func ListPulseDevices(_ context.Context) ([]Device, error) {
	client, err := newPulseClient()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	defaultID := ""
	if source, err := client.DefaultSource(); err == nil {
		defaultID = source.ID()
	}

	var infos pulseproto.GetSourceInfoListReply
	if err := client.RawRequest(&pulseproto.GetSourceInfoList{}, &infos); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	devices := make([]Device, 0, len(infos))
	for _, info := range infos {
		if info == nil || strings.HasSuffix(info.SourceName, ".monitor") {
			continue
		}
		devices = append(devices, Device{
			ID:        info.SourceName,
			Name:      info.Device,
			State:     sourceStateString(info.State),
			Available: sourceAvailable(info),
			Muted:     info.Mute,
			Default:   info.SourceName == defaultID,
		})
	}
	return devices, nil
}

// sourceStateString maps Pulse source state constants to readable values.
func sourceStateString(state uint32) string {
	switch state {
	case 0:
		return "running"
	case 1:
		return "idle"
	case 2:
		return "suspended"
	default:
		return fmt.Sprintf("unknown(%d)", state)
	}
}

// sourceAvailable reports whether the active port is plugged in.
func sourceAvailable(source *pulseproto.GetSourceInfoReply) bool {
	if source == nil {
		return false
	}
	for _, port := range source.Ports {
		if port.Name != source.ActivePortName {
			continue
		}
		// unknown=0, no=1, yes=2
		return port.Available != 1
	}
	return true
}
