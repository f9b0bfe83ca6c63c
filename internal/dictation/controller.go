// Package dictation drives push-to-talk: hotkey edges start and stop
// recordings, a single worker runs each recording cycle, and the result is
// typed into the target window.
package dictation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/whisperkey/internal/audio"
	"github.com/rbright/whisperkey/internal/command"
	"github.com/rbright/whisperkey/internal/history"
	"github.com/rbright/whisperkey/internal/hotkey"
	"github.com/rbright/whisperkey/internal/indicator"
	"github.com/rbright/whisperkey/internal/ipc"
	"github.com/rbright/whisperkey/internal/output"
	"github.com/rbright/whisperkey/internal/pipeline"
)

var (
	// ErrDebounced is returned for hotkey edges inside the debounce window.
	ErrDebounced = errors.New("hotkey edge ignored inside debounce window")
	// ErrBusy is returned when a finished recording cannot be queued.
	ErrBusy = errors.New("previous recording is still processing")
)

// Status is the controller's coarse state.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusRecording  Status = "recording"
	StatusProcessing Status = "processing"
)

// Orchestrator is the recording-cycle contract the controller drives.
type Orchestrator interface {
	Start(ctx context.Context, deviceID string, deviceName string) (string, error)
	ExecuteRecordingCycle(ctx context.Context, sessionID string, opts pipeline.Options) pipeline.Outcome
	Cancel() error
	RecordingFor() time.Duration
}

// TextSender delivers parsed commands to a window.
type TextSender interface {
	Send(ctx context.Context, cmd command.Command, target output.WindowTarget) output.DispatchResult
}

// WindowFinder resolves spoken window names for window-target commands.
type WindowFinder interface {
	FindWindow(ctx context.Context, query string) (output.WindowTarget, error)
}

// HistoryStore persists completed transcriptions.
type HistoryStore interface {
	Record(ctx context.Context, e history.Entry) (int64, error)
	Prune(ctx context.Context, keep int) (int64, error)
}

// Config carries per-run settings.
type Config struct {
	DeviceID         string
	DeviceName       string
	Options          pipeline.Options
	MaxRecording     time.Duration
	WatchdogInterval time.Duration
	AutoExecute      bool
	Model            string
	HistoryKeep      int
}

// Deps are the controller's collaborators. Finder, History, Indicator,
// Debouncer, Logger, and Clock are optional.
type Deps struct {
	Orchestrator Orchestrator
	Sender       TextSender
	Finder       WindowFinder
	History      HistoryStore
	Indicator    indicator.Controller
	Debouncer    *hotkey.Debouncer
	Logger       *slog.Logger
	Clock        func() time.Time
}

// Result is one finished cycle as seen by the controller.
type Result struct {
	Outcome  pipeline.Outcome
	Dispatch output.DispatchResult
	Reason   string
}

// OK reports whether the cycle completed and its text was delivered.
func (r Result) OK() bool {
	return r.Outcome.Success && r.Dispatch.OK
}

type job struct {
	sessionID string
	trigger   string
}

// Controller reacts to hotkey edges. Hotkey callbacks never block on
// transcription; cycles run one at a time on the Run goroutine.
type Controller struct {
	cfg       Config
	orch      Orchestrator
	sender    TextSender
	finder    WindowFinder
	history   HistoryStore
	indicator indicator.Controller
	debouncer *hotkey.Debouncer
	logger    *slog.Logger
	now       func() time.Time

	jobs    chan job
	results chan Result

	mu           sync.Mutex
	sessionID    string
	recording    bool
	processing   int
	stopWatchdog context.CancelFunc
}

// New builds a Controller.
func New(cfg Config, deps Deps) *Controller {
	c := &Controller{
		cfg:       cfg,
		orch:      deps.Orchestrator,
		sender:    deps.Sender,
		finder:    deps.Finder,
		history:   deps.History,
		indicator: deps.Indicator,
		debouncer: deps.Debouncer,
		logger:    deps.Logger,
		now:       deps.Clock,
		jobs:      make(chan job, 1),
		results:   make(chan Result, 16),
	}
	if c.indicator == nil {
		c.indicator = indicator.Noop{}
	}
	if c.debouncer == nil {
		c.debouncer = hotkey.NewDebouncer(hotkey.DefaultCooldown)
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.cfg.WatchdogInterval <= 0 {
		c.cfg.WatchdogInterval = audio.DefaultWatchdogInterval
	}
	return c
}

// Results delivers finished cycles. Results are dropped when nobody drains the channel.
func (c *Controller) Results() <-chan Result {
	return c.results
}

// Run processes queued cycles until ctx is done. Cycle failures never end the loop.
func (c *Controller) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			_ = c.Cancel()
			return nil
		case j := <-c.jobs:
			c.publish(c.process(ctx, j))
		}
	}
}

// Press starts a recording. It is a hotkey.Callback.
func (c *Controller) Press(ctx context.Context) error {
	if !c.debouncer.AllowPress(c.now()) {
		return ErrDebounced
	}

	c.mu.Lock()
	if c.recording {
		c.mu.Unlock()
		return pipeline.ErrSessionActive
	}
	id, err := c.orch.Start(ctx, c.cfg.DeviceID, c.cfg.DeviceName)
	if err != nil {
		c.mu.Unlock()
		c.logWarn("recording start failed", "error", err.Error())
		if !errors.Is(err, pipeline.ErrSessionActive) {
			c.indicator.ShowError(ctx, err.Error())
		}
		return err
	}
	c.sessionID = id
	c.recording = true
	c.startWatchdog(id)
	c.mu.Unlock()

	c.indicator.ShowRecording(ctx)
	return nil
}

// Release stops the recording and queues it for processing. It is a hotkey.Callback.
func (c *Controller) Release(ctx context.Context) error {
	if !c.debouncer.AllowRelease(c.now()) {
		return ErrDebounced
	}
	return c.release(ctx, "", "hotkey")
}

// Cancel discards the active recording without transcribing it.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	if !c.recording {
		c.mu.Unlock()
		return pipeline.ErrNotRecording
	}
	c.recording = false
	c.haltWatchdog()
	c.mu.Unlock()

	err := c.orch.Cancel()
	c.indicator.Hide(context.Background())
	c.logInfo("recording cancelled")
	return err
}

// Status reports whether the controller is idle, recording, or processing.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.recording:
		return StatusRecording
	case c.processing > 0:
		return StatusProcessing
	default:
		return StatusIdle
	}
}

// Handle serves status and cancel requests; it is the hotkey socket's fallback handler.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		return ipc.Response{OK: true, State: string(c.Status())}
	case ipc.CommandCancel:
		if err := c.Cancel(); err != nil {
			return ipc.Failure(string(c.Status()), err)
		}
		return ipc.Response{OK: true, State: string(c.Status()), Message: "cancelled"}
	default:
		return ipc.Unknown(req.Command)
	}
}

// release is the single stop path shared by the hotkey and the watchdog.
// A non-empty sessionID must match the active recording.
func (c *Controller) release(ctx context.Context, sessionID string, trigger string) error {
	c.mu.Lock()
	if !c.recording || (sessionID != "" && sessionID != c.sessionID) {
		c.mu.Unlock()
		return pipeline.ErrNotRecording
	}
	id := c.sessionID
	c.recording = false
	c.processing++
	c.haltWatchdog()
	c.mu.Unlock()

	c.indicator.CueStop(ctx)
	c.indicator.ShowTranscribing(ctx)

	select {
	case c.jobs <- job{sessionID: id, trigger: trigger}:
		c.logDebug("recording queued", "session_id", id, "trigger", trigger)
		return nil
	default:
		c.mu.Lock()
		c.processing--
		c.mu.Unlock()
		_ = c.orch.Cancel()
		c.indicator.ShowError(ctx, ErrBusy.Error())
		return ErrBusy
	}
}

// startWatchdog must be called with c.mu held.
func (c *Controller) startWatchdog(sessionID string) {
	if c.cfg.MaxRecording <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.stopWatchdog = cancel

	wd := audio.Watchdog{
		Interval: c.cfg.WatchdogInterval,
		Max:      c.cfg.MaxRecording,
		Elapsed:  c.orch.RecordingFor,
		OnMax: func() {
			c.logInfo("max recording duration reached", "session_id", sessionID, "max_ms", c.cfg.MaxRecording.Milliseconds())
			_ = c.release(context.Background(), sessionID, "max_duration")
		},
	}
	go wd.Run(ctx)
}

// haltWatchdog must be called with c.mu held.
func (c *Controller) haltWatchdog() {
	if c.stopWatchdog != nil {
		c.stopWatchdog()
		c.stopWatchdog = nil
	}
}

func (c *Controller) process(ctx context.Context, j job) Result {
	defer func() {
		c.mu.Lock()
		c.processing--
		c.mu.Unlock()
	}()

	outcome := c.orch.ExecuteRecordingCycle(ctx, j.sessionID, c.cfg.Options)
	result := Result{Outcome: outcome}
	if !outcome.Success {
		result.Reason = outcome.Reason
		c.indicator.ShowError(ctx, outcome.Reason)
		c.logWarn("recording cycle failed",
			"session_id", j.sessionID,
			"trigger", j.trigger,
			"stage", string(outcome.Stage),
			"reason", outcome.Reason,
		)
		return result
	}

	cmd := outcome.Command
	if c.cfg.AutoExecute {
		cmd.Execute = true
	}
	target := output.CurrentFocus()
	if cmd.Kind == command.KindWindowTarget {
		var err error
		cmd, target, err = c.resolveTarget(ctx, cmd)
		if err != nil {
			result.Dispatch = output.DispatchResult{Err: err}
			result.Reason = err.Error()
			c.indicator.ShowError(ctx, result.Reason)
			c.logWarn("window target not resolved", "session_id", j.sessionID, "error", err.Error())
			return result
		}
	}

	result.Dispatch = c.sender.Send(ctx, cmd, target)
	if !result.Dispatch.OK {
		result.Reason = result.Dispatch.Message()
		c.indicator.ShowError(ctx, result.Reason)
		c.logWarn("dispatch failed", "session_id", j.sessionID, "reason", result.Reason)
		return result
	}

	c.indicator.ShowResult(ctx, strings.TrimSpace(result.Dispatch.Text))
	c.record(ctx, outcome, cmd, result.Dispatch)
	c.logInfo("dictation delivered",
		"session_id", j.sessionID,
		"trigger", j.trigger,
		"command", string(cmd.Kind),
		"execute", cmd.Execute,
		"target", result.Dispatch.Target.DisplayName(),
	)
	return result
}

// resolveTarget splits a window-target command into the window name (first
// word) and the text to send (the rest).
func (c *Controller) resolveTarget(ctx context.Context, cmd command.Command) (command.Command, output.WindowTarget, error) {
	fields := strings.Fields(cmd.TargetWindow)
	if len(fields) == 0 {
		return cmd, output.WindowTarget{}, errors.New("window target command did not name a window")
	}
	if c.finder == nil {
		return cmd, output.WindowTarget{}, errors.New("window targeting is not supported by this output backend")
	}
	target, err := c.finder.FindWindow(ctx, fields[0])
	if err != nil {
		return cmd, output.WindowTarget{}, fmt.Errorf("find window %q: %w", fields[0], err)
	}
	cmd.Text = strings.Join(fields[1:], " ")
	return cmd, target, nil
}

func (c *Controller) record(ctx context.Context, outcome pipeline.Outcome, cmd command.Command, dispatch output.DispatchResult) {
	if c.history == nil {
		return
	}
	entry := history.Entry{
		SessionID:    outcome.SessionID,
		Text:         strings.TrimSpace(dispatch.Text),
		Command:      string(cmd.Kind),
		Target:       dispatch.Target.DisplayName(),
		Model:        c.cfg.Model,
		AudioSeconds: outcome.AudioDuration,
		Confidence:   outcome.Transcription.Confidence,
		CreatedAt:    c.now(),
	}
	if _, err := c.history.Record(ctx, entry); err != nil {
		c.logWarn("history record failed", "session_id", outcome.SessionID, "error", err.Error())
		return
	}
	if c.cfg.HistoryKeep > 0 {
		if _, err := c.history.Prune(ctx, c.cfg.HistoryKeep); err != nil {
			c.logWarn("history prune failed", "error", err.Error())
		}
	}
}

func (c *Controller) publish(r Result) {
	select {
	case c.results <- r:
	default:
		c.logDebug("result dropped", "session_id", r.Outcome.SessionID)
	}
}

func (c *Controller) logInfo(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

func (c *Controller) logWarn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

func (c *Controller) logDebug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
