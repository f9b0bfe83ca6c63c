package audio

import (
	"context"
	"reflect"
	"testing"

	pulseproto "github.com/jfreymuth/pulse/proto"
	"github.com/stretchr/testify/require"
)

func TestListPulseDevicesFailsWhenPulseUnavailable(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	_, err := ListPulseDevices(context.Background())
	require.Error(t, err)
}

func TestPulseOpenerRejectsUnsupportedChannels(t *testing.T) {
	_, err := PulseOpener{}.OpenStream(context.Background(), StreamConfig{SampleRate: 16000, Channels: 6}, func([]float32) {})
	require.ErrorContains(t, err, "1 or 2 channels")
}

func TestSourceStateString(t *testing.T) {
	require.Equal(t, "running", sourceStateString(0))
	require.Equal(t, "idle", sourceStateString(1))
	require.Equal(t, "suspended", sourceStateString(2))
	require.Equal(t, "unknown(99)", sourceStateString(99))
}

func TestSourceAvailable(t *testing.T) {
	require.False(t, sourceAvailable(nil))
	require.True(t, sourceAvailable(&pulseproto.GetSourceInfoReply{}))

	available := &pulseproto.GetSourceInfoReply{ActivePortName: "mic"}
	setSourcePorts(t, available, []sourcePort{{name: "mic", available: 2}})
	require.True(t, sourceAvailable(available))

	unplugged := &pulseproto.GetSourceInfoReply{ActivePortName: "mic"}
	setSourcePorts(t, unplugged, []sourcePort{{name: "mic", available: 1}})
	require.False(t, sourceAvailable(unplugged))
}

func TestPulseStreamOnPCMHoldsPartialFrames(t *testing.T) {
	var got [][]float32
	s := &pulseStream{channels: 1, onBlock: func(b []float32) { got = append(got, b) }}

	// 0x4000 = 16384 -> 0.5
	n, err := s.onPCM([]byte{0x00, 0x40, 0x00})
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Len(t, got, 1)
	require.InDeltaSlice(t, []float32{0.5}, got[0], 1e-6)

	_, err = s.onPCM([]byte{0xC0})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.InDeltaSlice(t, []float32{-0.5}, got[1], 1e-6)
}

func TestWriterFuncDelegatesWrite(t *testing.T) {
	called := false
	writer := writerFunc(func(b []byte) (int, error) {
		called = true
		require.Equal(t, []byte{1, 2, 3}, b)
		return len(b), nil
	})

	n, err := writer.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.True(t, called)
}

type sourcePort struct {
	name      string
	available uint32
}

func setSourcePorts(t *testing.T, reply *pulseproto.GetSourceInfoReply, ports []sourcePort) {
	t.Helper()

	sliceType := reflect.TypeOf(reply.Ports)
	sliceValue := reflect.MakeSlice(sliceType, len(ports), len(ports))

	for i, port := range ports {
		item := sliceValue.Index(i)
		item.FieldByName("Name").SetString(port.name)
		item.FieldByName("Available").SetUint(uint64(port.available))
	}

	reflect.ValueOf(reply).Elem().FieldByName("Ports").Set(sliceValue)
}
