package output

import (
	"context"
	"errors"
	"testing"

	"github.com/rbright/whisperkey/internal/command"
	"github.com/stretchr/testify/require"
)

type sentText struct {
	text    string
	target  WindowTarget
	execute bool
}

type fakeDispatcher struct {
	valid bool
	err   error
	sent  []sentText
}

func (f *fakeDispatcher) SendText(_ context.Context, text string, target WindowTarget, execute bool) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentText{text: text, target: target, execute: execute})
	return nil
}

func (f *fakeDispatcher) IsWindowValid(_ context.Context, _ WindowTarget) bool {
	return f.valid
}

func TestSenderAddsLeadingSpace(t *testing.T) {
	d := &fakeDispatcher{}
	s := NewSender(d, SenderOptions{AutoAddSpace: true}, nil)

	result := s.Send(context.Background(), command.Parse("hello world"), CurrentFocus())
	require.True(t, result.OK)
	require.NoError(t, result.Err)
	require.Equal(t, " hello world", result.Text)
	require.Equal(t, []sentText{{text: " hello world", target: CurrentFocus()}}, d.sent)
	require.Equal(t, "sent to Current Focus (Default)", result.Message())
}

func TestSenderExecuteCommandPressesEnter(t *testing.T) {
	d := &fakeDispatcher{}
	s := NewSender(d, SenderOptions{}, nil)

	result := s.Send(context.Background(), command.Parse("execute mode python test.py"), CurrentFocus())
	require.True(t, result.OK)
	require.Len(t, d.sent, 1)
	require.Equal(t, "python test.py", d.sent[0].text)
	require.True(t, d.sent[0].execute)
}

func TestSenderRejectsStaleTarget(t *testing.T) {
	d := &fakeDispatcher{valid: false}
	s := NewSender(d, SenderOptions{AutoAddSpace: true}, nil)
	target, err := NewWindowTarget(7, "Notes", "")
	require.NoError(t, err)

	result := s.Send(context.Background(), command.Parse("hello"), target)
	require.False(t, result.OK)
	require.ErrorIs(t, result.Err, ErrWindowGone)
	require.Equal(t, "Target window no longer exists: Notes", result.Message())
	require.Empty(t, d.sent)
}

func TestSenderDispatchFailureIsNotRetried(t *testing.T) {
	d := &fakeDispatcher{valid: true, err: errors.New("uinput closed")}
	s := NewSender(d, SenderOptions{}, nil)
	target, err := NewWindowTarget(7, "Notes", "")
	require.NoError(t, err)

	result := s.Send(context.Background(), command.Parse("hello"), target)
	require.False(t, result.OK)
	require.EqualError(t, result.Err, "send text: uinput closed")
	require.Equal(t, "send text: uinput closed", result.Message())
}

func TestSenderEmptyText(t *testing.T) {
	d := &fakeDispatcher{}
	s := NewSender(d, SenderOptions{AutoAddSpace: true}, nil)

	result := s.Send(context.Background(), command.Parse("execute"), CurrentFocus())
	require.False(t, result.OK)
	require.ErrorIs(t, result.Err, ErrNoText)
	require.Empty(t, d.sent)
	require.Equal(t, "Failed to send text to target window", DispatchResult{}.Message())
}

func TestSenderTagFormat(t *testing.T) {
	d := &fakeDispatcher{}
	s := NewSender(d, SenderOptions{Format: "tags"}, nil)

	result := s.Send(context.Background(), command.Parse("A castle on a hill."), CurrentFocus())
	require.True(t, result.OK)
	require.Equal(t, "a castle, a hill", result.Text)
}
