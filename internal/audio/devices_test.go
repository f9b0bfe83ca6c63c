package audio

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterDevicesDropsAliasesAndDuplicates(t *testing.T) {
	devices := []Device{
		{ID: "0", Name: "Microsoft Sound Mapper - Input"},
		{ID: "1", Name: "Primary Sound Capture Driver"},
		{ID: "2", Name: "USB Mic"},
		{ID: "3", Name: "USB Mic"},
		{ID: "4", Name: "Headset"},
		{ID: "alsa_input.raw"},
	}

	got := FilterDevices(devices)
	require.Equal(t, []string{"2", "4", "alsa_input.raw"}, ids(got))
}

func TestListDevicesPropagatesBackendError(t *testing.T) {
	_, err := ListDevices(context.Background(), func(context.Context) ([]Device, error) {
		return nil, errors.New("pulse down")
	})
	require.ErrorContains(t, err, "pulse down")
}

func TestSelectDeviceFromListPrimaryDefault(t *testing.T) {
	devices := []Device{
		{ID: "elgato", Name: "Elgato Wave 3 Mono", Available: true, Default: true},
		{ID: "sony", Name: "Sony WH-1000XM6", Available: true},
	}

	selection, err := selectDeviceFromList(devices, "default", "")
	require.NoError(t, err)
	require.Equal(t, "elgato", selection.Device.ID)
	require.Empty(t, selection.Warning)
}

func TestSelectDeviceFromListMutedPrimaryUsesFallback(t *testing.T) {
	devices := []Device{
		{ID: "elgato", Name: "Elgato Wave 3 Mono", Available: true, Muted: true, Default: true},
		{ID: "sony", Name: "Sony WH-1000XM6", Available: true},
	}

	selection, err := selectDeviceFromList(devices, "elgato", "sony")
	require.NoError(t, err)
	require.Equal(t, "sony", selection.Device.ID)
	require.Contains(t, selection.Warning, "muted")
	require.True(t, selection.Fallback)
}

func TestSelectDeviceFromListFailsWhenNothingUsable(t *testing.T) {
	devices := []Device{
		{ID: "elgato", Name: "Elgato Wave 3 Mono", Available: true, Muted: true, Default: true},
	}

	_, err := selectDeviceFromList(devices, "", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "muted")
}

func TestSelectDeviceFromListUnknownInput(t *testing.T) {
	devices := []Device{{ID: "elgato", Name: "Elgato Wave 3 Mono", Available: true, Default: true}}

	_, err := selectDeviceFromList(devices, "missing", "")
	require.ErrorContains(t, err, "did not match")

	_, err = selectDeviceFromList(nil, "", "")
	require.ErrorContains(t, err, "no audio input devices")
}

func TestDeviceMatchesByIDAndName(t *testing.T) {
	dev := Device{ID: "alsa_input.usb-elgato", Name: "Elgato Wave 3 Mono"}
	require.True(t, deviceMatches(dev, "elgato"))
	require.True(t, deviceMatches(dev, "wave 3"))
	require.False(t, deviceMatches(dev, "missing"))
	require.Equal(t, "Elgato Wave 3 Mono", dev.Label())
	require.Equal(t, "x", Device{ID: "x"}.Label())
}

func TestBackendSelection(t *testing.T) {
	opener, lister, err := Backend("")
	require.NoError(t, err)
	require.IsType(t, PulseOpener{}, opener)
	require.NotNil(t, lister)

	_, _, err = Backend("jack")
	require.ErrorContains(t, err, "unknown audio backend")

	if !PortAudioAvailable {
		_, _, err = Backend(BackendPortAudio)
		require.ErrorIs(t, err, ErrBackendUnavailable)
	}
}

func ids(devices []Device) []string {
	out := make([]string, 0, len(devices))
	for _, d := range devices {
		out = append(out, d.ID)
	}
	return out
}
