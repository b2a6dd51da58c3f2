package alarm

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestSessionClone verifies that Clone returns a copy and handles nil safely.
func TestSessionClone(t *testing.T) {
	t.Parallel()
	require.Nil(t, (*Session)(nil).Clone())

	started := time.Now().UTC()
	s := &Session{
		AlertID:   "alert-1",
		StartedAt: started,
		Deadline:  started.Add(time.Minute),
	}

	c := s.Clone()

	require.Equal(t, s, c)
	require.NotSame(t, s, c)
}

// TestStateClone verifies that State.Clone deep-copies both sessions.
func TestStateClone(t *testing.T) {
	t.Parallel()

	s := State{
		Phase:   PhaseAlerting,
		Current: &Session{AlertID: "alert-2"},
		Last:    &Session{AlertID: "alert-1", Reason: EndExpired},
	}

	c := s.Clone()
	require.Equal(t, s.Phase, c.Phase)
	require.Equal(t, s.Current, c.Current)
	require.Equal(t, s.Last, c.Last)
	require.NotSame(t, s.Current, c.Current)
	require.NotSame(t, s.Last, c.Last)
}

// TestAsControlError unwraps control errors from wrapped chains.
func TestAsControlError(t *testing.T) {
	t.Parallel()

	cause := errors.New("speaker busy")
	err := fmt.Errorf("start: %w", &ControlError{Code: CodeServiceError, Message: "Failed", Err: cause})

	controlErr, ok := AsControlError(err)
	require.True(t, ok)
	require.Equal(t, CodeServiceError, controlErr.Code)
	require.ErrorIs(t, err, cause)
	require.Equal(t, "SERVICE_ERROR: Failed", controlErr.Error())

	_, ok = AsControlError(cause)
	require.False(t, ok)
}
