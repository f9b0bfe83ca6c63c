package audio

import "fmt"

const (
	BackendPulse     = "pulse"
	BackendPortAudio = "portaudio"
)

// Backend resolves a configured backend name to its opener and device lister.
func Backend(name string) (StreamOpener, Lister, error) {
	switch name {
	case "", BackendPulse:
		return PulseOpener{}, ListPulseDevices, nil
	case BackendPortAudio:
		if !PortAudioAvailable {
			return nil, nil, fmt.Errorf("%w: %s (rebuild with -tags portaudio)", ErrBackendUnavailable, name)
		}
		return PortAudioOpener{}, ListPortAudioDevices, nil
	default:
		return nil, nil, fmt.Errorf("unknown audio backend %q", name)
	}
}
