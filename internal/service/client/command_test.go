package client

import (
	"context"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	api "github.com/oshokin/critical-alert/internal/api/grpc/device"
)

// fakeController answers with the queued errors, then succeeds.
type fakeController struct {
	// errs are returned in order by successive calls.
	errs    []error
	calls   int
	alertID string
}

func (f *fakeController) next() error {
	f.calls++

	if len(f.errs) == 0 {
		return nil
	}

	err := f.errs[0]
	f.errs = f.errs[1:]

	return err
}

func (f *fakeController) StartCriticalAlert(_ context.Context, alertID string) (string, error) {
	f.alertID = alertID

	if err := f.next(); err != nil {
		return "", err
	}

	return "started", nil
}

func (f *fakeController) StopCriticalAlert(context.Context) (string, error) {
	if err := f.next(); err != nil {
		return "", err
	}

	return "stopped", nil
}

// TestApply_RetriesUnavailable keeps trying while the agent is down.
func TestApply_RetriesUnavailable(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		unavailable := status.Error(codes.Unavailable, "connection refused")
		controller := &fakeController{errs: []error{unavailable, unavailable}}

		started := time.Now()

		message, err := Apply(context.Background(), controller, &Options{Enable: true, AlertID: "a-1"}, time.Second)

		require.NoError(t, err)
		require.Equal(t, "started", message)
		require.Equal(t, 3, controller.calls)
		require.Equal(t, "a-1", controller.alertID)
		require.Equal(t, 2*time.Second, time.Since(started))
	})
}

// TestApply_PermissionDeniedIsFinal stops at the first control error.
func TestApply_PermissionDeniedIsFinal(t *testing.T) {
	t.Parallel()

	st, err := status.New(codes.PermissionDenied, "grant access").WithDetails(&errdetails.ErrorInfo{
		Reason: "PERMISSION_DENIED",
		Domain: api.ErrorDomain,
	})
	require.NoError(t, err)

	controller := &fakeController{errs: []error{st.Err()}}

	_, err = Apply(context.Background(), controller, &Options{Enable: true}, time.Second)

	require.Error(t, err)
	require.Contains(t, err.Error(), "PERMISSION_DENIED: grant access")
	require.Equal(t, 1, controller.calls)
}

// TestApply_StopHonoursCancellation returns once the context ends.
func TestApply_StopHonoursCancellation(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		unavailable := status.Error(codes.Unavailable, "connection refused")
		controller := &fakeController{errs: []error{unavailable, unavailable, unavailable, unavailable}}

		ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
		defer cancel()

		_, err := Apply(ctx, controller, &Options{}, time.Second)

		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.Equal(t, 3, controller.calls)
	})
}
