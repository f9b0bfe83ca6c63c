//go:build portaudio

package audio

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortAudioAvailable reports whether the portaudio backend is compiled in.
const PortAudioAvailable = true

var portaudioInit sync.Once

// initPortAudio initializes the library once per process; it is never terminated
// because streams may be reopened for every recording.
func initPortAudio() error {
	var err error
	portaudioInit.Do(func() {
		err = portaudio.Initialize()
	})
	return err
}

// PortAudioOpener records through PortAudio at the device's default rate.
type PortAudioOpener struct{}

func (PortAudioOpener) OpenStream(_ context.Context, cfg StreamConfig, onBlock func([]float32)) (Stream, error) {
	if err := initPortAudio(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}

	device, err := portaudioDevice(cfg.DeviceID)
	if err != nil {
		return nil, err
	}

	params := portaudio.HighLatencyParameters(device, nil)
	params.Input.Channels = cfg.Channels
	params.FramesPerBuffer = cfg.BlockSize
	params.SampleRate = float64(cfg.SampleRate)
	rate := cfg.SampleRate
	if err := portaudio.IsFormatSupported(params, func([]float32) {}); err != nil {
		rate = int(device.DefaultSampleRate)
		params.SampleRate = device.DefaultSampleRate
	}

	stream, err := portaudio.OpenStream(params, func(in []float32) {
		onBlock(in)
	})
	if err != nil {
		return nil, fmt.Errorf("open portaudio stream on %q: %w", device.Name, err)
	}
	return &portaudioStream{stream: stream, rate: rate}, nil
}

func portaudioDevice(id string) (*portaudio.DeviceInfo, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.EqualFold(id, "default") {
		device, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("default input device: %w", err)
		}
		return device, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list portaudio devices: %w", err)
	}
	for _, d := range devices {
		if d.MaxInputChannels > 0 && d.Name == id {
			return d, nil
		}
	}
	return nil, fmt.Errorf("portaudio input %q not found", id)
}

type portaudioStream struct {
	stream *portaudio.Stream
	rate   int
}

func (s *portaudioStream) Start() error    { return s.stream.Start() }
func (s *portaudioStream) Stop() error     { return s.stream.Stop() }
func (s *portaudioStream) Close() error    { return s.stream.Close() }
func (s *portaudioStream) SampleRate() int { return s.rate }

// ListPortAudioDevices returns input-capable PortAudio devices keyed by name.
func ListPortAudioDevices(_ context.Context) ([]Device, error) {
	if err := initPortAudio(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list portaudio devices: %w", err)
	}
	defaultName := ""
	if d, err := portaudio.DefaultInputDevice(); err == nil {
		defaultName = d.Name
	}

	out := make([]Device, 0, len(devices))
	for _, d := range devices {
		if d.MaxInputChannels <= 0 {
			continue
		}
		out = append(out, Device{
			ID:        d.Name,
			Name:      d.Name,
			Available: true,
			Default:   d.Name == defaultName,
		})
	}
	return out, nil
}
