package tracewire

import (
	"time"

	"github.com/zoobzio/clockz"
)

// SessionStatus is the terminal state of a release-health session.
type SessionStatus string

const (
	SessionOK       SessionStatus = "ok"
	SessionExited   SessionStatus = "exited"
	SessionCrashed  SessionStatus = "crashed"
	SessionAbnormal SessionStatus = "abnormal"
)

type sessionAttrs struct {
	Release     string `json:"release,omitempty"`
	Environment string `json:"environment,omitempty"`
}

// Session is a minimal release-health session payload.
type Session struct {
	SID       string        `json:"sid"`
	Init      bool          `json:"init"`
	Status    SessionStatus `json:"status"`
	Errors    int           `json:"errors"`
	StartedAt time.Time     `json:"started"`
	Timestamp time.Time     `json:"timestamp"`
	Attrs     sessionAttrs  `json:"attrs"`

	clock clockz.Clock
}

// NewSession starts a session. A nil clock means the real one.
func NewSession(release, environment string, clock clockz.Clock) *Session {
	if clock == nil {
		clock = clockz.RealClock
	}
	now := clock.Now()
	return &Session{
		SID:       string(newEventID()),
		Init:      true,
		Status:    SessionOK,
		StartedAt: now,
		Timestamp: now,
		Attrs: sessionAttrs{
			Release:     release,
			Environment: environment,
		},
		clock: clock,
	}
}

// RecordError bumps the session's error count.
func (s *Session) RecordError() {
	s.Errors++
	s.Timestamp = s.clock.Now()
}

// End moves the session to a terminal status and stamps it.
func (s *Session) End(status SessionStatus) {
	s.Status = status
	s.Init = false
	s.Timestamp = s.clock.Now()
}
