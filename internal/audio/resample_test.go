package audio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResampleSameRateCopies(t *testing.T) {
	buf := mustBuffer(t, []float32{0.1, 0.2}, 16000, 1)
	out, err := Resample(buf, 16000)
	require.NoError(t, err)
	require.Equal(t, buf.Samples(), out.Samples())
}

func TestResampleRejectsBadRate(t *testing.T) {
	buf := mustBuffer(t, []float32{0.1}, 16000, 1)
	_, err := Resample(buf, 0)
	require.ErrorIs(t, err, ErrInvalidFormat)
}

func TestResampleEmptyBufferTakesTargetRate(t *testing.T) {
	out, err := Resample(Empty(48000, 1), 16000)
	require.NoError(t, err)
	require.Equal(t, 16000, out.SampleRate())
	require.Zero(t, out.Len())
}
