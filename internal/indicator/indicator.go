// Package indicator signals recording state to the user with audio cues and
// on-screen notifications.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/rbright/whisperkey/internal/hypr"
)

// Controller is the dictation-facing indicator contract.
type Controller interface {
	ShowRecording(context.Context)
	ShowTranscribing(context.Context)
	ShowResult(context.Context, string)
	ShowError(context.Context, string)
	CueStop(context.Context)
	Hide(context.Context)
}

// Backends for visual notifications.
const (
	BackendHypr    = "hypr"
	BackendDesktop = "desktop"
)

// Options configure visual and audio signalling.
type Options struct {
	Visual       bool
	Backend      string
	Sound        bool
	Tones        Tones
	ErrorTimeout time.Duration
	AppName      string
	Messages     Messages
}

// Messages are the notification texts.
type Messages struct {
	Recording  string
	Processing string
	Error      string
}

// DefaultMessages returns the stock English texts.
func DefaultMessages() Messages {
	return Messages{
		Recording:  "Recording…",
		Processing: "Transcribing…",
		Error:      "Speech recognition error",
	}
}

// Notifier implements Controller over hyprctl notify or desktop notifications,
// with cues played through PulseAudio.
type Notifier struct {
	opts   Options
	logger *slog.Logger
	player Player
	notify func(ctx context.Context, n notification) error
	clear  func(ctx context.Context) error

	soundMu sync.Mutex
	wg      sync.WaitGroup
}

type notification struct {
	icon    int
	timeout time.Duration
	color   string
	text    string
}

// New builds a Notifier from opts.
func New(opts Options, logger *slog.Logger) *Notifier {
	if opts.Messages == (Messages{}) {
		opts.Messages = DefaultMessages()
	}
	if opts.Tones == (Tones{}) {
		opts.Tones = DefaultTones()
	}
	if strings.TrimSpace(opts.AppName) == "" {
		opts.AppName = "whisperkey"
	}

	n := &Notifier{opts: opts, logger: logger, player: pulsePlayer{}}
	if strings.EqualFold(strings.TrimSpace(opts.Backend), BackendDesktop) {
		n.notify = n.notifyDesktop
		n.clear = func(context.Context) error { return nil }
	} else {
		n.notify = notifyHypr
		n.clear = hypr.DismissNotify
	}
	return n
}

// ShowRecording plays the start cue and shows the recording notification.
func (n *Notifier) ShowRecording(ctx context.Context) {
	n.playCue(CueStart)
	n.show(ctx, notification{icon: 1, timeout: 5 * time.Minute, color: "rgb(89b4fa)", text: n.opts.Messages.Recording})
}

// ShowTranscribing shows the post-capture state.
func (n *Notifier) ShowTranscribing(ctx context.Context) {
	n.show(ctx, notification{icon: 1, timeout: 5 * time.Minute, color: "rgb(cba6f7)", text: n.opts.Messages.Processing})
}

// ShowResult plays the success cue and briefly shows the typed text.
func (n *Notifier) ShowResult(ctx context.Context, text string) {
	n.playCue(CueSuccess)
	if strings.TrimSpace(text) == "" {
		n.Hide(ctx)
		return
	}
	n.show(ctx, notification{icon: 5, timeout: 1500 * time.Millisecond, color: "rgb(a6e3a1)", text: text})
}

// ShowError plays the error cue and shows text, or the default error text.
func (n *Notifier) ShowError(ctx context.Context, text string) {
	n.playCue(CueError)
	if text == "" {
		text = n.opts.Messages.Error
	}
	timeout := n.opts.ErrorTimeout
	if timeout <= 0 {
		timeout = 1200 * time.Millisecond
	}
	n.show(ctx, notification{icon: 3, timeout: timeout, color: "rgb(f38ba8)", text: text})
}

// CueStop plays the stop cue.
func (n *Notifier) CueStop(context.Context) {
	n.playCue(CueStop)
}

// Hide dismisses the active notification.
func (n *Notifier) Hide(ctx context.Context) {
	if !n.opts.Visual {
		return
	}
	n.run(ctx, n.clear)
}

// Wait blocks until queued cues finish playing.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) show(ctx context.Context, note notification) {
	if !n.opts.Visual {
		return
	}
	n.run(ctx, func(ctx context.Context) error {
		return n.notify(ctx, note)
	})
}

func notifyHypr(ctx context.Context, note notification) error {
	return hypr.Notify(ctx, hypr.Notification{
		Icon:    note.icon,
		Timeout: int(note.timeout.Milliseconds()),
		Color:   note.color,
		Text:    note.text,
	})
}

func (n *Notifier) notifyDesktop(_ context.Context, note notification) error {
	return beeep.Notify(n.opts.AppName, note.text, "")
}

// run executes an indicator operation with a bounded timeout.
func (n *Notifier) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()
	if err := fn(runCtx); err != nil {
		n.log("indicator dispatch failed", err)
	}
}

// playCue serializes playback and returns without waiting for it.
func (n *Notifier) playCue(cue Cue) {
	if !n.opts.Sound {
		return
	}
	samples := n.opts.Tones.samples(cue)
	if len(samples) == 0 {
		return
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.soundMu.Lock()
		defer n.soundMu.Unlock()
		if err := n.player.Play(samples); err != nil {
			n.log("indicator audio cue failed", err)
		}
	}()
}

func (n *Notifier) log(message string, err error) {
	if n.logger == nil || err == nil {
		return
	}
	n.logger.Debug(message, "error", err.Error())
}

// Noop is a Controller that does nothing.
type Noop struct{}

func (Noop) ShowRecording(context.Context) {}
func (Noop) ShowTranscribing(context.Context) {}
func (Noop) ShowResult(context.Context, string) {}
func (Noop) ShowError(context.Context, string) {}
func (Noop) CueStop(context.Context) {}
func (Noop) Hide(context.Context) {}
