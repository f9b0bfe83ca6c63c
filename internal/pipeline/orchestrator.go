// Package pipeline runs one capture -> validate -> process -> transcribe -> validate -> parse cycle.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rbright/whisperkey/internal/audio"
	"github.com/rbright/whisperkey/internal/command"
	"github.com/rbright/whisperkey/internal/fsm"
	"github.com/rbright/whisperkey/internal/session"
	"github.com/rbright/whisperkey/internal/transcript"
	"github.com/rbright/whisperkey/internal/validate"
)

var (
	// ErrSessionActive is returned by Start while another session is recording or processing.
	ErrSessionActive = errors.New("a recording session is already active")
	// ErrUnknownSession is reported when a cycle names a session the orchestrator does not own.
	ErrUnknownSession = errors.New("unknown session")
	// ErrNotRecording is reported when a cycle or cancel finds no recording session.
	ErrNotRecording = errors.New("session is not recording")
)

// Recorder is the capture side of a cycle.
type Recorder interface {
	Arm(ctx context.Context, deviceID string) error
	Disarm() (audio.Buffer, error)
	ArmedFor() time.Duration
}

// Transcriber turns audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, buf audio.Buffer, language string) (transcript.Transcription, error)
}

// Validator gates audio before inference and text after it.
type Validator interface {
	ValidateAudio(buf audio.Buffer) validate.Result
	ValidateTranscription(t transcript.Transcription) validate.Result
}

// Parser classifies accepted text into a command.
type Parser interface {
	Parse(text string) command.Command
}

// Stage names the step a cycle ended on.
type Stage string

const (
	StageCapture       Stage = "capture"
	StageValidateAudio Stage = "validate_audio"
	StageProcess       Stage = "process"
	StageTranscribe    Stage = "transcribe"
	StageValidateText  Stage = "validate_text"
	StageCompleted     Stage = "completed"
)

// Options selects per-cycle processing.
type Options struct {
	Language    string
	Normalize   bool
	TrimSilence bool
	NoiseGate   bool
}

// DefaultOptions returns english transcription with trim and normalize enabled.
func DefaultOptions() Options {
	return Options{Language: "en", Normalize: true, TrimSilence: true}
}

// Outcome is the structured result of one cycle. Err is set only for
// failures that are not validation rejections.
type Outcome struct {
	SessionID     string
	Success       bool
	Stage         Stage
	Reason        string
	Err           error
	Transcription transcript.Transcription
	Command       command.Command
	AudioDuration float64
	Session       session.Snapshot
}

// Deps are the orchestrator's collaborators.
type Deps struct {
	Recorder    Recorder
	Transcriber Transcriber
	Validator   Validator
	Parser      Parser
	Processor   audio.Processor
	Logger      *slog.Logger
	Clock       func() time.Time
	Debug       DebugConfig
}

// Orchestrator owns at most one live session and drives it through a cycle.
type Orchestrator struct {
	recorder    Recorder
	transcriber Transcriber
	validator   Validator
	parser      Parser
	processor   audio.Processor
	logger      *slog.Logger
	now         func() time.Time
	debug       DebugConfig

	mu      sync.Mutex
	current *session.Session
}

// New wires an orchestrator. Validator and Parser fall back to defaults when nil.
func New(deps Deps) *Orchestrator {
	o := &Orchestrator{
		recorder:    deps.Recorder,
		transcriber: deps.Transcriber,
		validator:   deps.Validator,
		parser:      deps.Parser,
		processor:   deps.Processor,
		logger:      deps.Logger,
		now:         deps.Clock,
		debug:       deps.Debug,
	}
	if o.validator == nil {
		o.validator = validate.New(validate.DefaultConfig())
	}
	if o.parser == nil {
		o.parser = command.Parser{}
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.processor == (audio.Processor{}) {
		o.processor = audio.NewProcessor(audio.DefaultProcessingConfig())
	}
	return o
}

// Start arms capture and begins a new session. No session is retained when arming fails.
func (o *Orchestrator) Start(ctx context.Context, deviceID string, deviceName string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current != nil && o.current.Active() {
		return "", ErrSessionActive
	}
	if err := o.recorder.Arm(ctx, deviceID); err != nil {
		return "", fmt.Errorf("arm capture: %w", err)
	}

	s := session.NewWithClock(deviceID, deviceName, o.now)
	if err := s.Start(); err != nil {
		_, _ = o.recorder.Disarm()
		return "", err
	}
	o.current = s
	o.logInfo("recording started", "session_id", s.ID(), "device", deviceID)
	return s.ID(), nil
}

// ExecuteRecordingCycle stops the named recording session and runs it to a
// terminal state. It never panics and never returns a bare error.
func (o *Orchestrator) ExecuteRecordingCycle(ctx context.Context, sessionID string, opts Options) (out Outcome) {
	out = Outcome{SessionID: sessionID, Stage: StageCapture}
	var s *session.Session

	defer func() {
		if r := recover(); r != nil {
			reason := fmt.Sprintf("panic: %v", r)
			if s == nil {
				s = o.abandonRecording(sessionID)
			}
			out = o.fail(s, out, out.Stage, reason, errors.New(reason))
		}
	}()

	var (
		raw audio.Buffer
		err error
	)
	s, raw, err = o.takeRecording(sessionID)
	if err != nil {
		if errors.Is(err, ErrUnknownSession) || errors.Is(err, ErrNotRecording) {
			out.Reason = err.Error()
			out.Err = err
			o.logWarn("recording cycle rejected", "session_id", sessionID, "error", err.Error())
			return out
		}
		return o.fail(s, out, StageCapture, fmt.Sprintf("capture failed: %v", err), err)
	}
	out.AudioDuration = raw.Duration()

	out.Stage = StageValidateAudio
	if res := o.validator.ValidateAudio(raw); !res.Accepted {
		return o.fail(s, out, StageValidateAudio, res.Reason, nil)
	}

	out.Stage = StageProcess
	processed, err := o.processor.Process(raw, audio.Steps{
		TrimSilence: opts.TrimSilence,
		Normalize:   opts.Normalize,
		NoiseGate:   opts.NoiseGate,
	})
	if err != nil {
		return o.fail(s, out, StageProcess, fmt.Sprintf("audio processing failed: %v", err), err)
	}
	o.dumpAudio(sessionID, processed)

	out.Stage = StageTranscribe
	language := opts.Language
	if language == "" {
		language = DefaultOptions().Language
	}
	started := o.now()
	result, err := o.transcriber.Transcribe(ctx, processed, language)
	if err != nil {
		return o.fail(s, out, StageTranscribe, fmt.Sprintf("transcription failed: %v", err), err)
	}
	// source RMS is measured before processing
	result = result.WithSourceRMS(raw.RMS())
	out.Transcription = result
	o.logDebug("transcription finished",
		"session_id", sessionID,
		"latency_ms", o.now().Sub(started).Milliseconds(),
		"chars", len(result.Text),
	)

	out.Stage = StageValidateText
	if res := o.validator.ValidateTranscription(result); !res.Accepted {
		return o.fail(s, out, StageValidateText, res.Reason, nil)
	}

	out.Command = o.parser.Parse(result.Text)

	if err := o.update(s, (*session.Session).Complete); err != nil {
		return o.fail(s, out, StageValidateText, err.Error(), err)
	}
	out.Stage = StageCompleted
	out.Success = true
	out.Session = o.snapshot(s)
	o.logInfo("recording cycle completed",
		"session_id", sessionID,
		"audio_ms", int64(out.AudioDuration*1000),
		"command", string(out.Command.Kind),
		"chars", len(out.Command.Text),
	)
	return out
}

// Cancel disarms capture and fails the recording session with "cancelled".
func (o *Orchestrator) Cancel() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := o.current
	if s == nil || s.State() != fsm.StateRecording {
		return ErrNotRecording
	}
	_, err := o.recorder.Disarm()
	s.Fail("cancelled")
	o.logInfo("recording cancelled", "session_id", s.ID())
	if err != nil {
		return fmt.Errorf("disarm capture: %w", err)
	}
	return nil
}

// Active reports the session currently recording or processing.
func (o *Orchestrator) Active() (session.Snapshot, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current == nil || !o.current.Active() {
		return session.Snapshot{}, false
	}
	return o.current.Snapshot(), true
}

// Last returns the most recent session, active or not.
func (o *Orchestrator) Last() (session.Snapshot, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current == nil {
		return session.Snapshot{}, false
	}
	return o.current.Snapshot(), true
}

// RecordingFor is the elapsed armed time, for the max-duration watchdog.
func (o *Orchestrator) RecordingFor() time.Duration {
	return o.recorder.ArmedFor()
}

// takeRecording checks the session is recording, drains capture, and moves it
// to processing under one lock so Cancel cannot interleave.
func (o *Orchestrator) takeRecording(sessionID string) (*session.Session, audio.Buffer, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := o.current
	if s == nil || s.ID() != sessionID {
		return nil, audio.Buffer{}, fmt.Errorf("%w %q", ErrUnknownSession, sessionID)
	}
	if s.State() != fsm.StateRecording {
		return nil, audio.Buffer{}, fmt.Errorf("%w: %s is %s", ErrNotRecording, sessionID, s.State())
	}

	buf, disarmErr := o.disarm()
	if err := s.Stop(); err != nil {
		return s, audio.Buffer{}, errors.Join(disarmErr, err)
	}
	if disarmErr != nil {
		return s, audio.Buffer{}, disarmErr
	}
	return s, buf, nil
}

// disarm stops capture, reporting a recorder panic as an error so the
// session still leaves the recording state.
func (o *Orchestrator) disarm() (buf audio.Buffer, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return o.recorder.Disarm()
}

// abandonRecording returns the current session when it is sessionID and still
// recording, after a best-effort disarm. Used when a panic escaped before the
// cycle took ownership of the session.
func (o *Orchestrator) abandonRecording(sessionID string) *session.Session {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := o.current
	if s == nil || s.ID() != sessionID || s.State() != fsm.StateRecording {
		return nil
	}
	_, _ = o.disarm()
	return s
}

func (o *Orchestrator) fail(s *session.Session, out Outcome, stage Stage, reason string, err error) Outcome {
	if s != nil {
		_ = o.update(s, func(s *session.Session) error {
			s.Fail(reason)
			return nil
		})
		out.Session = o.snapshot(s)
	}
	out.Success = false
	out.Stage = stage
	out.Reason = reason
	out.Err = err

	args := []any{"session_id", out.SessionID, "stage", string(stage), "reason", reason}
	if err != nil {
		o.logError("recording cycle failed", args...)
	} else {
		o.logInfo("recording cycle rejected", args...)
	}
	return out
}

func (o *Orchestrator) update(s *session.Session, fn func(*session.Session) error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return fn(s)
}

func (o *Orchestrator) snapshot(s *session.Session) session.Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return s.Snapshot()
}

func (o *Orchestrator) logInfo(msg string, args ...any) {
	if o.logger != nil {
		o.logger.Info(msg, args...)
	}
}

func (o *Orchestrator) logWarn(msg string, args ...any) {
	if o.logger != nil {
		o.logger.Warn(msg, args...)
	}
}

func (o *Orchestrator) logError(msg string, args ...any) {
	if o.logger != nil {
		o.logger.Error(msg, args...)
	}
}

func (o *Orchestrator) logDebug(msg string, args ...any) {
	if o.logger != nil {
		o.logger.Debug(msg, args...)
	}
}
