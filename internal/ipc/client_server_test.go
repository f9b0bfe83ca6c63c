package ipc

import (
	"bufio"
	"context"
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// serveTest runs Serve on a fresh socket until the test ends.
func serveTest(t *testing.T, h HandlerFunc) Client {
	t.Helper()

	path := filepath.Join(t.TempDir(), socketName)
	l, err := net.Listen("unix", path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, l, h) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	return Client{Path: path, Timeout: 500 * time.Millisecond}
}

// rawServer accepts one connection and hands it to fn.
func rawServer(t *testing.T, fn func(net.Conn)) Client {
	t.Helper()

	path := filepath.Join(t.TempDir(), socketName)
	l, err := net.Listen("unix", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	go func() {
		c, err := l.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		fn(c)
	}()
	return Client{Path: path, Timeout: 200 * time.Millisecond}
}

func TestClientRoundTrip(t *testing.T) {
	client := serveTest(t, func(_ context.Context, req Request) Response {
		if req.Command == CommandPress && req.Key == "right_ctrl" {
			return Response{OK: true, State: "recording", Message: "recording started"}
		}
		return Unknown(req.Command)
	})

	resp, err := client.Do(context.Background(), Request{Command: CommandPress, Key: "right_ctrl"})
	require.NoError(t, err)
	require.Equal(t, Response{OK: true, State: "recording", Message: "recording started"}, resp)

	resp, err = client.Do(context.Background(), Request{Command: "toggle"})
	require.NoError(t, err)
	require.False(t, resp.OK)
	require.Equal(t, `unknown command "toggle"`, resp.Error)
}

func TestClientReportsBadReplies(t *testing.T) {
	garbage := rawServer(t, func(c net.Conn) {
		_, _ = bufio.NewReader(c).ReadBytes('\n')
		_, _ = c.Write([]byte("<html>\n"))
	})
	_, err := garbage.Do(context.Background(), Request{Command: CommandStatus})
	require.ErrorContains(t, err, "decode response")

	hangup := rawServer(t, func(net.Conn) {})
	_, err = hangup.Do(context.Background(), Request{Command: CommandStatus})
	require.ErrorContains(t, err, "read response")
}

func TestClientHonorsContextCancel(t *testing.T) {
	release := make(chan struct{})
	client := rawServer(t, func(net.Conn) { <-release })
	client.Timeout = 5 * time.Second
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	started := time.Now()
	_, err := client.Do(ctx, Request{Command: CommandStatus})
	require.Error(t, err)
	require.Less(t, time.Since(started), 2*time.Second)
}

func TestServeAnswersMalformedRequest(t *testing.T) {
	client := serveTest(t, func(context.Context, Request) Response { return Response{OK: true} })

	conn, err := net.Dial("unix", client.Path)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("{oops\n"))
	require.NoError(t, err)

	var resp Response
	require.NoError(t, readMessage(bufio.NewReader(conn), "response", &resp))
	require.False(t, resp.OK)
	require.Contains(t, resp.Error, "decode request")
}

func TestServeRecoversHandlerPanic(t *testing.T) {
	client := serveTest(t, func(_ context.Context, req Request) Response {
		if req.Command == CommandRelease {
			panic("worker gone")
		}
		return Response{OK: true, State: "idle"}
	})

	resp, err := client.Do(context.Background(), Request{Command: CommandRelease})
	require.NoError(t, err)
	require.False(t, resp.OK)
	require.Equal(t, "handle release: panic: worker gone", resp.Error)

	resp, err = client.Do(context.Background(), Request{Command: CommandStatus})
	require.NoError(t, err)
	require.True(t, resp.OK)
}

func TestClientAlive(t *testing.T) {
	client := serveTest(t, func(context.Context, Request) Response { return Response{OK: true, State: "idle"} })
	alive, err := client.Alive(context.Background())
	require.NoError(t, err)
	require.True(t, alive)

	missing := Client{Path: filepath.Join(t.TempDir(), "missing.sock"), Timeout: 50 * time.Millisecond}
	alive, err = missing.Alive(context.Background())
	require.NoError(t, err)
	require.False(t, alive)
}

func TestNotListening(t *testing.T) {
	_, err := Client{Path: filepath.Join(t.TempDir(), "missing.sock")}.Do(context.Background(), Request{Command: CommandStatus})
	require.True(t, NotListening(err))
	require.False(t, NotListening(nil))
	require.False(t, NotListening(errors.New("other")))
}

func TestFailureResponse(t *testing.T) {
	resp := Failure("recording", errors.New("busy"))
	require.Equal(t, Response{OK: false, State: "recording", Error: "busy"}, resp)
}
