package ipc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"
)

// DefaultTimeout bounds one roundtrip when Client.Timeout is zero.
const DefaultTimeout = 2 * time.Second

// Client sends one request per connection to the listener at Path.
type Client struct {
	Path    string
	Timeout time.Duration
}

// Do dials, writes req, and waits for the reply. Cancelling ctx aborts the
// exchange.
func (c Client) Do(ctx context.Context, req Request) (Response, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", c.Path)
	if err != nil {
		return Response{}, fmt.Errorf("dial %s: %w", c.Path, err)
	}
	defer conn.Close()

	deadline, _ := ctx.Deadline()
	if err := conn.SetDeadline(deadline); err != nil {
		return Response{}, fmt.Errorf("set deadline: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	if err := writeMessage(conn, req); err != nil {
		return Response{}, fmt.Errorf("write request: %w", err)
	}
	var resp Response
	if err := readMessage(bufio.NewReader(conn), "response", &resp); err != nil {
		return Response{}, err
	}
	return resp, nil
}

// Alive asks the listener for its status. It reports false without error when
// nothing owns the socket, and an error when the owner does not answer in time.
func (c Client) Alive(ctx context.Context) (bool, error) {
	_, err := c.Do(ctx, Request{Command: CommandStatus})
	switch {
	case err == nil:
		return true, nil
	case NotListening(err):
		return false, nil
	default:
		return false, fmt.Errorf("check socket: %w", err)
	}
}

// NotListening reports dial errors meaning no process owns the socket.
func NotListening(err error) bool {
	return err != nil && (errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ECONNREFUSED))
}
