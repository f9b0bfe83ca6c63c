package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavBitDepth  = 16
	wavPCMFormat = 1
)

// EncodeWAV writes buf as 16-bit PCM WAV.
func EncodeWAV(w io.WriteSeeker, buf Buffer) error {
	enc := wav.NewEncoder(w, buf.sampleRate, wavBitDepth, buf.channels, wavPCMFormat)

	data := make([]int, len(buf.samples))
	for i, s := range buf.samples {
		data[i] = int(floatToInt16(s))
	}
	pcm := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: buf.channels, SampleRate: buf.sampleRate},
		Data:           data,
		SourceBitDepth: wavBitDepth,
	}
	if err := enc.Write(pcm); err != nil {
		_ = enc.Close()
		return fmt.Errorf("write wav samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}

// WriteWAVFile encodes buf to path, removing the file if encoding fails.
func WriteWAVFile(path string, buf Buffer) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav %q: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	return EncodeWAV(f, buf)
}

// ReadWAVFile decodes a PCM WAV file into a Buffer.
func ReadWAVFile(path string) (Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return Buffer{}, fmt.Errorf("open wav %q: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return Buffer{}, fmt.Errorf("%q is not a valid wav file", path)
	}
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return Buffer{}, fmt.Errorf("decode wav %q: %w", path, err)
	}
	if pcm.Format == nil {
		return Buffer{}, fmt.Errorf("decode wav %q: missing format", path)
	}

	bitDepth := pcm.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = int(dec.BitDepth)
	}
	scale := math.Pow(2, float64(bitDepth-1))
	samples := make([]float32, len(pcm.Data))
	for i, v := range pcm.Data {
		samples[i] = float32(float64(v) / scale)
	}
	return NewBuffer(samples, pcm.Format.SampleRate, pcm.Format.NumChannels)
}

func floatToInt16(s float32) int16 {
	v := float64(s)
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int16(math.Round(v * math.MaxInt16))
}

func int16ToFloat(v int16) float32 {
	return float32(v) / 32768
}
