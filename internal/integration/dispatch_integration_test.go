package integration

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oshokin/critical-alert/internal/repository/record"
	"github.com/oshokin/critical-alert/internal/service/common"
)

// seedRecords writes a target with three responders: two live devices and one without an address.
func seedRecords(t *testing.T, path string, deviceAddrs ...string) {
	t.Helper()

	ctx := context.Background()

	store, err := record.OpenSQLite(ctx, path)
	require.NoError(t, err)

	defer func() {
		_ = store.Close()
	}()

	docs := map[string]record.Document{
		"student-1": {
			"fullName":           "Jane Doe",
			"email":              "jane@example.com",
			"assignedResponders": []any{"warden-1", "warden-2", "warden-3", "warden-1"},
			"medicalInfo":        map[string]any{"allergies": "penicillin"},
		},
		"warden-1":  {"deliveryAddress": deviceAddrs[0]},
		"warden-2":  {"fcmToken": deviceAddrs[1]},
		"warden-3":  {"fullName": "No Device"},
		"student-2": {"fullName": "Lonely", "assignedResponders": []any{}},
	}

	for id, doc := range docs {
		require.NoError(t, store.Put(ctx, id, doc))
	}
}

// TestDispatch_EndToEnd triggers an alert that rings on every reachable responder device.
func TestDispatch_EndToEnd(t *testing.T) {
	t.Parallel()

	dispatcherAddr := reservePort(t)
	deviceA := reservePort(t)
	deviceB := reservePort(t)
	recordsPath := filepath.Join(t.TempDir(), "records.db")

	seedRecords(t, recordsPath, deviceA, deviceB)

	startDevice(t, dispatcherAddr, deviceA)
	startDevice(t, dispatcherAddr, deviceB)
	startDispatcher(t, dispatcherAddr, recordsPath)

	ctx := context.Background()

	c, err := common.Dial(ctx, dispatcherAddr, common.WithCallTimeout(5*time.Second))
	require.NoError(t, err)

	defer func() {
		_ = c.Close()
	}()

	resp, err := c.TriggerCriticalAlert(ctx, "nurse@clinic", "student-1")
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, 2, resp.SentCount)
	require.Zero(t, resp.FailedCount)
	require.NotEmpty(t, resp.AlertID)
	require.Equal(t, "Alert triggered successfully. Sent to 2 device(s).", resp.Message)

	for _, addr := range []string{deviceA, deviceB} {
		dc, dialErr := common.Dial(ctx, addr)
		require.NoError(t, dialErr)

		state, stateErr := dc.GetAlarmState(ctx)
		require.NoError(t, stateErr)
		require.Equal(t, "alerting", state.Phase)
		require.Equal(t, resp.AlertID, state.AlertID)
		require.Equal(t, "Jane Doe", state.Subject)

		_ = dc.Close()
	}

	// A second trigger gets a fresh id; devices ignore it while ringing.
	again, err := c.TriggerCriticalAlert(ctx, "", "student-1")
	require.NoError(t, err)
	require.NotEqual(t, resp.AlertID, again.AlertID)
	require.Equal(t, 2, again.SentCount)
}

// TestDispatch_Errors covers the precondition failures of a live dispatcher.
func TestDispatch_Errors(t *testing.T) {
	t.Parallel()

	dispatcherAddr := reservePort(t)
	recordsPath := filepath.Join(t.TempDir(), "records.db")

	// Neither device is running.
	seedRecords(t, recordsPath, reservePort(t), reservePort(t))
	startDispatcher(t, dispatcherAddr, recordsPath)

	ctx := context.Background()

	c, err := common.Dial(ctx, dispatcherAddr, common.WithCallTimeout(5*time.Second))
	require.NoError(t, err)

	defer func() {
		_ = c.Close()
	}()

	_, err = c.TriggerCriticalAlert(ctx, "", "nobody")
	require.Equal(t, codes.NotFound, status.Code(err))

	_, err = c.TriggerCriticalAlert(ctx, "", "student-2")
	require.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = c.TriggerCriticalAlert(ctx, "", "a/b")
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	// Every send fails: the trigger still answers, without success.
	resp, err := c.TriggerCriticalAlert(ctx, "", "student-1")
	require.NoError(t, err)
	require.False(t, resp.Success)
	require.Equal(t, 2, resp.FailedCount)
	require.Equal(t, "Alert could not be delivered. 2 device(s) failed.", resp.Message)
}
