package main

import (
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// helperArgsEnv makes the test binary act as whisperkey with these
// newline-separated arguments.
const helperArgsEnv = "WHISPERKEY_TEST_MAIN_ARGS"

func TestMain(m *testing.M) {
	if raw, ok := os.LookupEnv(helperArgsEnv); ok {
		os.Exit(run(strings.Split(raw, "\n")))
	}
	os.Exit(m.Run())
}

func runWhisperkey(t *testing.T, args ...string) (string, int) {
	t.Helper()

	cmd := exec.Command(os.Args[0])
	cmd.Env = append(os.Environ(),
		helperArgsEnv+"="+strings.Join(args, "\n"),
		"XDG_STATE_HOME="+t.TempDir(),
		"XDG_CONFIG_HOME="+t.TempDir(),
	)
	out, err := cmd.CombinedOutput()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return string(out), exitErr.ExitCode()
	}
	require.NoError(t, err)
	return string(out), 0
}

func TestEntrypoint(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		want     []string
	}{
		{name: "help", args: []string{"--help"}, want: []string{"Usage:", "listen", "transcribe"}},
		{name: "version", args: []string{"--version"}, want: []string{"whisperkey "}},
		{name: "unknown command", args: []string{"not-a-command"}, wantCode: 2, want: []string{"unknown command"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, code := runWhisperkey(t, tc.args...)
			require.Equal(t, tc.wantCode, code, out)
			for _, want := range tc.want {
				require.Contains(t, out, want)
			}
		})
	}
}
