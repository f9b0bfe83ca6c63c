//go:build !portaudio

package audio

import "context"

// PortAudioAvailable reports whether the portaudio backend is compiled in.
const PortAudioAvailable = false

// PortAudioOpener is unavailable without the portaudio build tag.
type PortAudioOpener struct{}

func (PortAudioOpener) OpenStream(context.Context, StreamConfig, func([]float32)) (Stream, error) {
	return nil, ErrBackendUnavailable
}

// ListPortAudioDevices is unavailable without the portaudio build tag.
func ListPortAudioDevices(context.Context) ([]Device, error) {
	return nil, ErrBackendUnavailable
}
