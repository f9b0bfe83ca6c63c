package output

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rbright/whisperkey/internal/command"
	"github.com/rbright/whisperkey/internal/transcript"
)

var (
	// ErrWindowGone is returned when a specific target no longer exists.
	ErrWindowGone = errors.New("target window no longer exists")
	// ErrNoText is returned when there is nothing to send.
	ErrNoText = errors.New("no text to send")
)

// Dispatcher types text into windows.
type Dispatcher interface {
	SendText(ctx context.Context, text string, target WindowTarget, execute bool) error
	IsWindowValid(ctx context.Context, target WindowTarget) bool
}

// SenderOptions shape outgoing text.
type SenderOptions struct {
	AutoAddSpace bool
	Format       string
}

// DispatchResult reports one send. Text is what was typed.
type DispatchResult struct {
	OK     bool
	Text   string
	Target WindowTarget
	Err    error
}

// Sender formats command text and hands it to a Dispatcher. It never retries.
type Sender struct {
	dispatcher Dispatcher
	opts       SenderOptions
	logger     *slog.Logger
}

// NewSender builds a Sender.
func NewSender(dispatcher Dispatcher, opts SenderOptions, logger *slog.Logger) *Sender {
	return &Sender{dispatcher: dispatcher, opts: opts, logger: logger}
}

// Send types cmd's text into target, pressing Enter afterwards for execute commands.
func (s *Sender) Send(ctx context.Context, cmd command.Command, target WindowTarget) DispatchResult {
	result := DispatchResult{Target: target}

	text := transcript.Format(s.opts.Format, cmd.Text)
	if strings.TrimSpace(text) == "" {
		result.Err = ErrNoText
		return result
	}
	if s.opts.AutoAddSpace {
		text = " " + text
	}

	if !target.IsCurrentFocus() && !s.dispatcher.IsWindowValid(ctx, target) {
		result.Err = fmt.Errorf("%w: %s", ErrWindowGone, target.Title)
		s.logWarn("dispatch skipped", "target", target.DisplayName(), "error", result.Err.Error())
		return result
	}

	if err := s.dispatcher.SendText(ctx, text, target, cmd.Execute); err != nil {
		result.Err = fmt.Errorf("send text: %w", err)
		s.logWarn("dispatch failed", "target", target.DisplayName(), "error", err.Error())
		return result
	}

	result.OK = true
	result.Text = text
	return result
}

// Message renders a result for users; stale targets keep the historical wording.
func (r DispatchResult) Message() string {
	switch {
	case r.OK:
		return "sent to " + r.Target.DisplayName()
	case errors.Is(r.Err, ErrWindowGone):
		return "Target window no longer exists: " + r.Target.Title
	case r.Err != nil:
		return r.Err.Error()
	default:
		return "Failed to send text to target window"
	}
}

func (s *Sender) logWarn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
