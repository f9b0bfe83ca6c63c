// Package session models one recording attempt and its lifecycle state.
package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rbright/whisperkey/internal/fsm"
)

// ErrInvalidTransition is returned when a lifecycle method is called from a disallowed state.
var ErrInvalidTransition = fsm.ErrInvalidTransition

// Session is one recording attempt. It is never reused across attempts and
// expects a single writer; callers sharing it across goroutines must serialize access.
type Session struct {
	id           string
	state        fsm.State
	startedAt    time.Time
	endedAt      time.Time
	deviceID     string
	deviceName   string
	errorMessage string

	now func() time.Time
}

// Snapshot is a copy of session fields safe to hand to other goroutines.
type Snapshot struct {
	ID           string
	State        fsm.State
	StartedAt    time.Time
	EndedAt      time.Time
	DeviceID     string
	DeviceName   string
	ErrorMessage string
	Duration     time.Duration
}

// New returns an idle session with a fresh identifier.
func New(deviceID string, deviceName string) *Session {
	return NewWithClock(deviceID, deviceName, time.Now)
}

// NewWithClock returns an idle session that reads timestamps from now.
func NewWithClock(deviceID string, deviceName string, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	return &Session{
		id:         uuid.NewString(),
		state:      fsm.StateIdle,
		deviceID:   deviceID,
		deviceName: deviceName,
		now:        now,
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() fsm.State {
	return s.state
}

func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

func (s *Session) EndedAt() time.Time {
	return s.endedAt
}

func (s *Session) DeviceID() string {
	return s.deviceID
}

func (s *Session) DeviceName() string {
	return s.deviceName
}

func (s *Session) ErrorMessage() string {
	return s.errorMessage
}

func (s *Session) Active() bool {
	return fsm.Active(s.state)
}

func (s *Session) Terminal() bool {
	return fsm.Terminal(s.state)
}

// Start moves Idle to Recording and stamps the start time.
func (s *Session) Start() error {
	if err := s.apply(fsm.EventStart); err != nil {
		return err
	}
	s.startedAt = s.now()
	return nil
}

// Stop moves Recording to Processing and stamps the end time.
func (s *Session) Stop() error {
	if err := s.apply(fsm.EventStop); err != nil {
		return err
	}
	s.endedAt = s.now()
	return nil
}

// Complete moves Processing to Completed.
func (s *Session) Complete() error {
	return s.apply(fsm.EventComplete)
}

// Fail moves any state to Error and records reason.
func (s *Session) Fail(reason string) {
	leavingRecording := s.state == fsm.StateRecording
	s.state, _ = fsm.Transition(s.state, fsm.EventFail)
	s.errorMessage = reason
	if leavingRecording {
		s.endedAt = s.now()
	}
}

// Duration is end minus start when both are set, elapsed time while still
// recording, and zero otherwise.
func (s *Session) Duration() time.Duration {
	switch {
	case !s.startedAt.IsZero() && !s.endedAt.IsZero():
		return s.endedAt.Sub(s.startedAt)
	case !s.startedAt.IsZero() && s.state == fsm.StateRecording:
		return s.now().Sub(s.startedAt)
	default:
		return 0
	}
}

// Snapshot copies the current session fields.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		ID:           s.id,
		State:        s.state,
		StartedAt:    s.startedAt,
		EndedAt:      s.endedAt,
		DeviceID:     s.deviceID,
		DeviceName:   s.deviceName,
		ErrorMessage: s.errorMessage,
		Duration:     s.Duration(),
	}
}

func (s *Session) apply(event fsm.Event) error {
	next, err := fsm.Transition(s.state, event)
	if err != nil {
		return fmt.Errorf("session %s: %w", s.id, err)
	}
	s.state = next
	return nil
}
