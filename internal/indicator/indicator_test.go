package indicator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakePlayer struct {
	mu     sync.Mutex
	played [][]int16
	err    error
}

func (f *fakePlayer) Play(samples []int16) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.played = append(f.played, samples)
	return f.err
}

func (f *fakePlayer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.played)
}

func TestNotifierHyprDispatch(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installHyprctlStub(t, `
printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"
`)

	n := New(Options{
		Visual:       true,
		Backend:      BackendHypr,
		ErrorTimeout: 1600 * time.Millisecond,
		Messages:     Messages{Recording: "Recording", Processing: "Transcribing", Error: "Speech error"},
	}, nil)
	n.ShowRecording(context.Background())
	n.ShowTranscribing(context.Background())
	n.ShowError(context.Background(), "")
	n.ShowResult(context.Background(), "hello")
	n.Hide(context.Background())

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Equal(t, []string{
		"--quiet dispatch notify 1 300000 rgb(89b4fa) Recording",
		"--quiet dispatch notify 1 300000 rgb(cba6f7) Transcribing",
		"--quiet dispatch notify 3 1600 rgb(f38ba8) Speech error",
		"--quiet dispatch notify 5 1500 rgb(a6e3a1) hello",
		"--quiet dispatch dismissnotify",
	}, lines)
}

func TestNotifierShowErrorDefaultTimeout(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installHyprctlStub(t, `
printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"
`)

	n := New(Options{Visual: true}, nil)
	n.ShowError(context.Background(), "custom error")

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	require.Equal(t, "--quiet dispatch notify 3 1200 rgb(f38ba8) custom error\n", string(data))
}

func TestNotifierDisabledSkipsEverything(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installHyprctlStub(t, `
printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"
`)

	n := New(Options{}, nil)
	player := &fakePlayer{}
	n.player = player
	n.ShowRecording(context.Background())
	n.ShowTranscribing(context.Background())
	n.ShowError(context.Background(), "ignored")
	n.CueStop(context.Background())
	n.Hide(context.Background())
	n.Wait()

	_, err := os.Stat(argsFile)
	require.True(t, os.IsNotExist(err))
	require.Zero(t, player.count())
}

func TestNotifierPlaysCues(t *testing.T) {
	n := New(Options{Sound: true}, nil)
	player := &fakePlayer{err: errors.New("no pulse server")}
	n.player = player

	n.ShowRecording(context.Background())
	n.CueStop(context.Background())
	n.ShowResult(context.Background(), "")
	n.ShowError(context.Background(), "x")
	n.Wait()

	require.Equal(t, 4, player.count())
	for _, samples := range player.played {
		require.Len(t, samples, 1600)
	}
}

func TestNotifierHyprFailureIsSwallowed(t *testing.T) {
	installHyprctlStub(t, `
exit 1
`)
	n := New(Options{Visual: true}, nil)
	n.ShowRecording(context.Background())
	n.Hide(context.Background())
}

func TestNoopController(t *testing.T) {
	var c Controller = Noop{}
	c.ShowRecording(context.Background())
	c.ShowTranscribing(context.Background())
	c.ShowResult(context.Background(), "x")
	c.ShowError(context.Background(), "x")
	c.CueStop(context.Background())
	c.Hide(context.Background())
}

func installHyprctlStub(t *testing.T, body string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "hyprctl")
	script := "#!/usr/bin/env bash\nset -euo pipefail\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))
}
