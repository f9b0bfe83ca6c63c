package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/rbright/whisperkey/internal/audio"
	"github.com/rbright/whisperkey/internal/command"
	"github.com/rbright/whisperkey/internal/config"
	"github.com/rbright/whisperkey/internal/pipeline"
)

// fileRecorder replays a decoded WAV file as one recording.
type fileRecorder struct {
	buf   audio.Buffer
	armed bool
}

func (f *fileRecorder) Arm(context.Context, string) error {
	if f.armed {
		return audio.ErrAlreadyRecording
	}
	f.armed = true
	return nil
}

func (f *fileRecorder) Disarm() (audio.Buffer, error) {
	if !f.armed {
		return audio.Buffer{}, errors.New("file recorder is not armed")
	}
	f.armed = false
	return f.buf, nil
}

func (f *fileRecorder) ArmedFor() time.Duration {
	if !f.armed {
		return 0
	}
	return time.Duration(f.buf.Duration() * float64(time.Second))
}

// loadFileAudio decodes path and converts it to the capture format.
func loadFileAudio(path string, cfg config.AudioConfig) (audio.Buffer, error) {
	buf, err := audio.ReadWAVFile(path)
	if err != nil {
		return audio.Buffer{}, err
	}
	if buf.Channels() > 1 && cfg.Channels == 1 {
		buf = audio.ToMono(buf)
	}
	if cfg.SampleRate > 0 && buf.SampleRate() != cfg.SampleRate {
		buf, err = audio.Resample(buf, cfg.SampleRate)
		if err != nil {
			return audio.Buffer{}, fmt.Errorf("resample %q: %w", path, err)
		}
	}
	return buf, nil
}

// transcribeFile runs one full cycle over a WAV file.
func transcribeFile(ctx context.Context, cfg config.Config, path string, transcriber pipeline.Transcriber, logger *slog.Logger) (pipeline.Outcome, error) {
	buf, err := loadFileAudio(path, cfg.Audio)
	if err != nil {
		return pipeline.Outcome{}, err
	}

	orch := newOrchestrator(cfg, &fileRecorder{buf: buf}, transcriber, logger)
	sessionID, err := orch.Start(ctx, "file", filepath.Base(path))
	if err != nil {
		return pipeline.Outcome{}, err
	}
	return orch.ExecuteRecordingCycle(ctx, sessionID, cycleOptions(cfg)), nil
}

func (r Runner) commandTranscribe(ctx context.Context, cfg config.Config, path string, logger *slog.Logger) int {
	transcriber, err := newTranscriber(ctx, cfg.Transcription, logger)
	if err != nil {
		return r.fail(err)
	}

	outcome, err := transcribeFile(ctx, cfg, path, transcriber, logger)
	if err != nil {
		return r.fail(err)
	}
	if !outcome.Success {
		fmt.Fprintf(r.Stderr, "error: %s: %s\n", outcome.Stage, outcome.Reason)
		return 1
	}

	cmd := outcome.Command
	if cmd.Kind != command.KindText {
		fmt.Fprintf(r.Stderr, "command: %s\n", cmd.Kind)
	}
	fmt.Fprintln(r.Stdout, cmd.Text)
	return 0
}
