// Package ipc carries newline-delimited JSON requests between whisperkey
// processes over a unix socket.
package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// Commands understood by the listening process.
const (
	CommandPress   = "press"
	CommandRelease = "release"
	CommandCancel  = "cancel"
	CommandStatus  = "status"
)

// Request is one client message. Key names the hotkey for press/release.
type Request struct {
	Command string `json:"command"`
	Key     string `json:"key,omitempty"`
}

// Response is the listener's reply to one Request.
type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Failure builds a non-OK response carrying err.
func Failure(state string, err error) Response {
	return Response{OK: false, State: state, Error: err.Error()}
}

// Unknown builds the reply for an unsupported command.
func Unknown(command string) Response {
	return Response{OK: false, Error: fmt.Sprintf("unknown command %q", command)}
}

// writeMessage encodes v as one JSON line.
func writeMessage(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

// readMessage decodes one JSON line from r into v. what names the message in
// errors ("request" or "response").
func readMessage(r *bufio.Reader, what string, v any) error {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return fmt.Errorf("read %s: %w", what, err)
	}
	if err := json.Unmarshal(line, v); err != nil {
		return fmt.Errorf("decode %s: %w", what, err)
	}
	return nil
}
