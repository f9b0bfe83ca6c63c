package pipeline

import (
	"context"
	"errors"
	"math"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rbright/whisperkey/internal/audio"
	"github.com/rbright/whisperkey/internal/command"
	"github.com/rbright/whisperkey/internal/fsm"
	"github.com/rbright/whisperkey/internal/transcript"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	armErr    error
	disarmErr error
	panicMsg  string
	buf       audio.Buffer
	armed     bool
	arms      atomic.Int32
	disarms   atomic.Int32
}

func (f *fakeRecorder) Arm(_ context.Context, _ string) error {
	f.arms.Add(1)
	if f.armErr != nil {
		return f.armErr
	}
	f.armed = true
	return nil
}

func (f *fakeRecorder) Disarm() (audio.Buffer, error) {
	f.disarms.Add(1)
	f.armed = false
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.disarmErr != nil {
		return audio.Buffer{}, f.disarmErr
	}
	return f.buf, nil
}

func (f *fakeRecorder) ArmedFor() time.Duration {
	if !f.armed {
		return 0
	}
	return time.Second
}

type fakeTranscriber struct {
	text     string
	err      error
	panicMsg string
	calls    atomic.Int32
	gotRMS   float64
	language string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, buf audio.Buffer, language string) (transcript.Transcription, error) {
	f.calls.Add(1)
	f.gotRMS = buf.RMS()
	f.language = language
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.err != nil {
		return transcript.Transcription{}, f.err
	}
	return transcript.New(f.text, buf.Duration(), "base").WithSourceRMS(buf.RMS()), nil
}

func tone(t *testing.T, amplitude float64, seconds float64) audio.Buffer {
	t.Helper()
	n := int(math.Round(16000 * seconds))
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(amplitude * math.Sin(2*math.Pi*440*float64(i)/16000))
	}
	buf, err := audio.NewBuffer(samples, 16000, 1)
	require.NoError(t, err)
	return buf
}

func newOrchestrator(rec *fakeRecorder, tr *fakeTranscriber, debug DebugConfig) *Orchestrator {
	return New(Deps{Recorder: rec, Transcriber: tr, Debug: debug})
}

func TestExecuteRecordingCycleSuccess(t *testing.T) {
	rec := &fakeRecorder{buf: tone(t, 0.3, 1)}
	tr := &fakeTranscriber{text: "execute mode python test.py"}
	o := newOrchestrator(rec, tr, DebugConfig{})

	id, err := o.Start(context.Background(), "mic", "Microphone")
	require.NoError(t, err)
	active, ok := o.Active()
	require.True(t, ok)
	require.Equal(t, fsm.StateRecording, active.State)

	out := o.ExecuteRecordingCycle(context.Background(), id, DefaultOptions())
	require.True(t, out.Success)
	require.Equal(t, StageCompleted, out.Stage)
	require.NoError(t, out.Err)
	require.Equal(t, command.KindExecute, out.Command.Kind)
	require.Equal(t, "python test.py", out.Command.Text)
	require.True(t, out.Command.Execute)
	require.InDelta(t, 1.0, out.AudioDuration, 1e-9)
	require.Equal(t, fsm.StateCompleted, out.Session.State)
	require.Equal(t, "en", tr.language)

	// normalize ran before inference, but the record keeps the captured level
	require.InDelta(t, 0.9/math.Sqrt2, tr.gotRMS, 0.01)
	require.NotNil(t, out.Transcription.SourceRMS)
	require.InDelta(t, 0.3/math.Sqrt2, *out.Transcription.SourceRMS, 0.01)

	_, ok = o.Active()
	require.False(t, ok)
	require.Equal(t, int32(1), rec.disarms.Load())
}

func TestStartRejectsSecondSession(t *testing.T) {
	rec := &fakeRecorder{buf: tone(t, 0.3, 1)}
	o := newOrchestrator(rec, &fakeTranscriber{text: "hello there"}, DebugConfig{})

	id, err := o.Start(context.Background(), "mic", "")
	require.NoError(t, err)

	_, err = o.Start(context.Background(), "mic", "")
	require.ErrorIs(t, err, ErrSessionActive)
	require.Equal(t, int32(1), rec.arms.Load())

	out := o.ExecuteRecordingCycle(context.Background(), id, DefaultOptions())
	require.True(t, out.Success)

	_, err = o.Start(context.Background(), "mic", "")
	require.NoError(t, err)
}

func TestStartArmFailureKeepsNoSession(t *testing.T) {
	rec := &fakeRecorder{armErr: errors.New("device busy")}
	o := newOrchestrator(rec, &fakeTranscriber{}, DebugConfig{})

	_, err := o.Start(context.Background(), "mic", "")
	require.ErrorContains(t, err, "device busy")

	_, ok := o.Last()
	require.False(t, ok)

	rec.armErr = nil
	_, err = o.Start(context.Background(), "mic", "")
	require.NoError(t, err)
}

func TestExecuteRecordingCycleFailures(t *testing.T) {
	tests := []struct {
		name        string
		recorder    *fakeRecorder
		transcriber *fakeTranscriber
		stage       Stage
		reason      string
		wantErr     bool
		transcribed bool
	}{
		{
			name:        "audio too short",
			recorder:    &fakeRecorder{buf: tone(t, 0.3, 0.3)},
			transcriber: &fakeTranscriber{text: "hello"},
			stage:       StageValidateAudio,
			reason:      "Audio too short (0.3s < 0.5s)",
		},
		{
			name:        "silent audio",
			recorder:    &fakeRecorder{buf: tone(t, 0, 1)},
			transcriber: &fakeTranscriber{text: "hello"},
			stage:       StageValidateAudio,
			reason:      "Audio is too quiet (RMS: 0.0000)",
		},
		{
			name:        "disarm failure",
			recorder:    &fakeRecorder{disarmErr: errors.New("stream closed")},
			transcriber: &fakeTranscriber{text: "hello"},
			stage:       StageCapture,
			reason:      "capture failed: stream closed",
			wantErr:     true,
		},
		{
			name:        "disarm panic",
			recorder:    &fakeRecorder{panicMsg: "device vanished"},
			transcriber: &fakeTranscriber{text: "hello"},
			stage:       StageCapture,
			reason:      "capture failed: panic: device vanished",
			wantErr:     true,
		},
		{
			name:        "transcription error",
			recorder:    &fakeRecorder{buf: tone(t, 0.3, 1)},
			transcriber: &fakeTranscriber{err: errors.New("server down")},
			stage:       StageTranscribe,
			reason:      "transcription failed: server down",
			wantErr:     true,
			transcribed: true,
		},
		{
			name:        "hallucination",
			recorder:    &fakeRecorder{buf: tone(t, 0.3, 1)},
			transcriber: &fakeTranscriber{text: "you"},
			stage:       StageValidateText,
			reason:      "Likely hallucination: 'you'",
			transcribed: true,
		},
		{
			name:        "short text from quiet capture",
			recorder:    &fakeRecorder{buf: tone(t, 0.012, 1)},
			transcriber: &fakeTranscriber{text: "ok"},
			stage:       StageValidateText,
			reason:      "Short text with low audio energy (possible hallucination)",
			transcribed: true,
		},
		{
			name:        "transcriber panic",
			recorder:    &fakeRecorder{buf: tone(t, 0.3, 1)},
			transcriber: &fakeTranscriber{panicMsg: "boom"},
			stage:       StageTranscribe,
			reason:      "panic: boom",
			wantErr:     true,
			transcribed: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := newOrchestrator(tc.recorder, tc.transcriber, DebugConfig{})
			id, err := o.Start(context.Background(), "mic", "")
			require.NoError(t, err)

			out := o.ExecuteRecordingCycle(context.Background(), id, DefaultOptions())
			require.False(t, out.Success)
			require.Equal(t, tc.stage, out.Stage)
			require.Equal(t, tc.reason, out.Reason)
			require.Equal(t, tc.wantErr, out.Err != nil)
			require.Equal(t, fsm.StateError, out.Session.State)
			require.Equal(t, tc.reason, out.Session.ErrorMessage)
			require.Equal(t, tc.transcribed, tc.transcriber.calls.Load() == 1)

			_, ok := o.Active()
			require.False(t, ok)

			tc.recorder.panicMsg = ""
			_, err = o.Start(context.Background(), "mic", "")
			require.NoError(t, err)
		})
	}
}

func TestExecuteRecordingCycleUnknownSessionLeavesCurrentAlone(t *testing.T) {
	rec := &fakeRecorder{buf: tone(t, 0.3, 1)}
	o := newOrchestrator(rec, &fakeTranscriber{text: "hello"}, DebugConfig{})

	_, err := o.Start(context.Background(), "mic", "")
	require.NoError(t, err)

	out := o.ExecuteRecordingCycle(context.Background(), "nope", DefaultOptions())
	require.False(t, out.Success)
	require.ErrorIs(t, out.Err, ErrUnknownSession)
	require.Equal(t, int32(0), rec.disarms.Load())

	active, ok := o.Active()
	require.True(t, ok)
	require.Equal(t, fsm.StateRecording, active.State)
}

func TestCancel(t *testing.T) {
	rec := &fakeRecorder{buf: tone(t, 0.3, 1)}
	tr := &fakeTranscriber{text: "hello"}
	o := newOrchestrator(rec, tr, DebugConfig{})

	require.ErrorIs(t, o.Cancel(), ErrNotRecording)

	id, err := o.Start(context.Background(), "mic", "")
	require.NoError(t, err)
	require.Equal(t, time.Second, o.RecordingFor())

	require.NoError(t, o.Cancel())
	last, ok := o.Last()
	require.True(t, ok)
	require.Equal(t, fsm.StateError, last.State)
	require.Equal(t, "cancelled", last.ErrorMessage)
	require.Equal(t, time.Duration(0), o.RecordingFor())

	out := o.ExecuteRecordingCycle(context.Background(), id, DefaultOptions())
	require.False(t, out.Success)
	require.ErrorIs(t, out.Err, ErrNotRecording)
	require.Equal(t, int32(0), tr.calls.Load())

	require.ErrorIs(t, o.Cancel(), ErrNotRecording)
}

func TestExecuteRecordingCycleWritesDebugAudio(t *testing.T) {
	dir := t.TempDir()
	rec := &fakeRecorder{buf: tone(t, 0.3, 1)}
	o := newOrchestrator(rec, &fakeTranscriber{text: "hello there"}, DebugConfig{AudioDump: true, Dir: dir})

	id, err := o.Start(context.Background(), "mic", "")
	require.NoError(t, err)
	out := o.ExecuteRecordingCycle(context.Background(), id, DefaultOptions())
	require.True(t, out.Success)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Contains(t, entries[0].Name(), "audio-"+id[:8])

	dumped, err := audio.ReadWAVFile(dir + "/" + entries[0].Name())
	require.NoError(t, err)
	require.Equal(t, 16000, dumped.SampleRate())
}

func TestResolveStateDir(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_STATE_HOME", xdg)
	dir, err := resolveStateDir()
	require.NoError(t, err)
	require.Equal(t, xdg, dir)

	home := t.TempDir()
	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("HOME", home)
	dir, err = resolveStateDir()
	require.NoError(t, err)
	require.Equal(t, home+"/.local/state", dir)
}

func TestAbandonRecordingOnlyTakesTheRecordingSession(t *testing.T) {
	rec := &fakeRecorder{panicMsg: "device vanished"}
	o := newOrchestrator(rec, &fakeTranscriber{text: "hello"}, DebugConfig{})
	id, err := o.Start(context.Background(), "mic", "")
	require.NoError(t, err)

	require.Nil(t, o.abandonRecording("some-other-session"))
	require.Equal(t, int32(0), rec.disarms.Load())

	s := o.abandonRecording(id)
	require.NotNil(t, s)
	require.Equal(t, id, s.ID())
	require.Equal(t, int32(1), rec.disarms.Load())
}
