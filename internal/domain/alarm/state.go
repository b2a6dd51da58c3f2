package alarm

import "time"

// Phase is the state of the device alarm.
type Phase string

const (
	// PhaseIdle means no alarm is running.
	PhaseIdle Phase = "idle"
	// PhaseAlerting means an alarm is ringing and its deadline is armed.
	PhaseAlerting Phase = "alerting"
	// PhaseStopping is entered while the stop sequence releases resources.
	PhaseStopping Phase = "stopping"
)

// EndReason records why a session left the alerting phase.
type EndReason string

const (
	// EndDismissed means the user or the host application stopped the alarm.
	EndDismissed EndReason = "dismissed"
	// EndExpired means the deadline fired before anyone acknowledged the alarm.
	EndExpired EndReason = "expired"
	// EndSetupFailed means starting the alarm failed and it was torn down immediately.
	EndSetupFailed EndReason = "setup_failed"
	// EndShutdown means the hosting process stopped.
	EndShutdown EndReason = "shutdown"
)

// Session describes one alarm presentation.
type Session struct {
	// AlertID is the dispatcher-issued id the alarm presents.
	AlertID string
	// Subject is a human-readable name of the person concerned, if known.
	Subject string
	// StartedAt is when the alarm began.
	StartedAt time.Time
	// Deadline is when the alarm stops by itself.
	Deadline time.Time
	// EndedAt is set once the session is over.
	EndedAt time.Time
	// Reason is set once the session is over.
	Reason EndReason
}

// Clone returns a copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}

	cloned := *s

	return &cloned
}

// State is the alarm status at a point in time.
type State struct {
	// Phase is the current phase.
	Phase Phase
	// Current is the running session, nil unless alerting.
	Current *Session
	// Last is the most recently finished session, if any.
	Last *Session
}

// Clone returns a copy of the state to avoid leaking internal references.
func (s *State) Clone() *State {
	return &State{
		Phase:   s.Phase,
		Current: s.Current.Clone(),
		Last:    s.Last.Clone(),
	}
}

// History is what the device remembers about past alarms across restarts.
type History struct {
	// Recent holds the most recently presented alert ids, oldest first.
	Recent []string
	// Last is the most recently finished session, if any.
	Last *Session
}
