package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/oshokin/critical-alert/internal/domain/alert"
	"github.com/oshokin/critical-alert/internal/logger"
	"github.com/oshokin/critical-alert/internal/repository/record"
	"github.com/oshokin/critical-alert/internal/transport/push"
)

var (
	errStoreUnavailable = errors.New("store unavailable")
	errGatewayDown      = errors.New("gateway down")
	errUnregistered     = errors.New("registration-token-not-registered")
)

// fakeStore serves records from memory, optionally failing or stalling per id.
type fakeStore struct {
	*record.MemoryStore

	// errs forces Get to fail for the listed ids.
	errs map[string]error
	// delay is slept before every lookup.
	delay time.Duration
}

// Get returns the configured error or the stored record.
func (s *fakeStore) Get(ctx context.Context, id string) (record.Document, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	if err, ok := s.errs[id]; ok {
		return nil, err
	}

	return s.MemoryStore.Get(ctx, id)
}

// fakeTransport records sent messages and answers through sendFn.
type fakeTransport struct {
	// sendFn overrides the default all-success behavior.
	sendFn func(ctx context.Context, msg *push.Message) ([]push.Outcome, error)

	// mu protects sent.
	mu sync.Mutex
	// sent holds every message passed to Send.
	sent []*push.Message
}

// Send records msg and delegates to sendFn when set.
func (f *fakeTransport) Send(ctx context.Context, msg *push.Message) ([]push.Outcome, error) {
	f.mu.Lock()
	f.sent = append(f.sent, msg)
	f.mu.Unlock()

	if f.sendFn != nil {
		return f.sendFn(ctx, msg)
	}

	outcomes := make([]push.Outcome, 0, len(msg.Addresses))
	for _, address := range msg.Addresses {
		outcomes = append(outcomes, push.Outcome{Address: address})
	}

	return outcomes, nil
}

// newStore builds a fake store around the given records.
func newStore(records map[string]record.Document) *fakeStore {
	return &fakeStore{MemoryStore: record.NewMemoryStore(records)}
}

// campusRecords returns a target with two responders, only the first of whom has a device.
func campusRecords() map[string]record.Document {
	return map[string]record.Document{
		"student-1": {
			"fullName":           "Asha Verma",
			"guardianContact":    "+91 98100 00002",
			"assignedResponders": []any{"warden-1", "warden-2"},
			"medicalInfo":        map[string]any{"bloodGroup": "O+"},
		},
		"warden-1": {"deliveryAddress": "tok-warden-1"},
		"warden-2": {"fullName": "No Device"},
		"lonely":   {"fullName": "Nobody Assigned"},
	}
}

// TestTrigger_ExcludesAbsentAddresses covers a responder without a device: it is excluded, not failed.
func TestTrigger_ExcludesAbsentAddresses(t *testing.T) {
	t.Parallel()

	transport := new(fakeTransport)
	d := New(newStore(campusRecords()), transport,
		WithIDGenerator(func() string { return "alert-1" }),
		WithNow(func() time.Time { return time.Unix(1000, 0) }),
	)

	result, err := d.Trigger(context.Background(), "student-1", "")
	require.NoError(t, err)

	require.Equal(t, "alert-1", result.AlertID)
	require.Equal(t, 1, result.SentCount)
	require.Equal(t, 0, result.FailedCount)
	require.Empty(t, result.Failures)
	require.Equal(t, []string{"warden-2"}, result.Unreachable)
	require.True(t, result.Success())

	require.Len(t, transport.sent, 1)

	msg := transport.sent[0]
	require.Equal(t, []string{"tok-warden-1"}, msg.Addresses)
	require.Equal(t, "alert-1", msg.AlertID)
	require.Equal(t, alert.AnonymousActor, msg.TriggeredBy)

	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(msg.StudentInfo), &info))
	require.Equal(t, "Asha Verma", info["fullName"])
	require.Equal(t, "student-1", info["uid"])
	require.Nil(t, info["hostelWingAndRoom"])
}

// TestTrigger_LogsResponderOnce checks a resolution miss names the responder exactly once.
func TestTrigger_LogsResponderOnce(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := logger.ToContext(context.Background(), zap.New(core).Sugar())

	d := New(newStore(campusRecords()), new(fakeTransport))

	_, err := d.Trigger(ctx, "student-1", "")
	require.NoError(t, err)

	entries := logs.FilterMessage("Responder has no delivery address").All()
	require.Len(t, entries, 1)

	var keys int

	for _, field := range entries[0].Context {
		if field.Key == "responder_id" {
			keys++
		}
	}

	require.Equal(t, 1, keys)
	require.Equal(t, "warden-2", entries[0].ContextMap()["responder_id"])
}

// TestTrigger_PartialFailure covers a two-address send where the transport rejects one address.
func TestTrigger_PartialFailure(t *testing.T) {
	t.Parallel()

	records := campusRecords()
	records["warden-2"] = record.Document{"fcmToken": "tok-warden-2"}

	transport := &fakeTransport{
		sendFn: func(_ context.Context, msg *push.Message) ([]push.Outcome, error) {
			return []push.Outcome{
				{Address: msg.Addresses[0]},
				{Address: msg.Addresses[1], Err: errUnregistered},
			}, nil
		},
	}

	result, err := New(newStore(records), transport).Trigger(context.Background(), "student-1", "warden-9")
	require.NoError(t, err)

	require.Equal(t, 1, result.SentCount)
	require.Equal(t, 1, result.FailedCount)
	require.Equal(t, map[string]string{"tok-warden-2": errUnregistered.Error()}, result.Failures)
	require.Empty(t, result.Unreachable)
	require.Equal(t, "warden-9", transport.sent[0].TriggeredBy)
}

// TestTrigger_AllSendsFailed ensures a fully rejected batch is still a result, just not a success.
func TestTrigger_AllSendsFailed(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{
		sendFn: func(_ context.Context, msg *push.Message) ([]push.Outcome, error) {
			return []push.Outcome{{Address: msg.Addresses[0], Err: errUnregistered}}, nil
		},
	}

	result, err := New(newStore(campusRecords()), transport).Trigger(context.Background(), "student-1", "")
	require.NoError(t, err)
	require.Equal(t, 0, result.SentCount)
	require.Equal(t, 1, result.FailedCount)
	require.False(t, result.Success())
}

// TestTrigger_Errors walks through the error taxonomy.
func TestTrigger_Errors(t *testing.T) {
	t.Parallel()

	allAbsent := campusRecords()
	allAbsent["warden-1"] = record.Document{}

	cases := []struct {
		name      string
		store     *fakeStore
		transport *fakeTransport
		targetID  string
		want      error
	}{
		{
			name:     "empty target id",
			store:    newStore(campusRecords()),
			targetID: "  ",
			want:     alert.ErrInvalidArgument,
		},
		{
			name:     "path-like target id",
			store:    newStore(campusRecords()),
			targetID: "users/student-1",
			want:     alert.ErrInvalidArgument,
		},
		{
			name:     "missing target",
			store:    newStore(campusRecords()),
			targetID: "ghost",
			want:     alert.ErrNotFound,
		},
		{
			name:     "no responders",
			store:    newStore(campusRecords()),
			targetID: "lonely",
			want:     alert.ErrFailedPrecondition,
		},
		{
			name:     "every responder absent",
			store:    newStore(allAbsent),
			targetID: "student-1",
			want:     alert.ErrFailedPrecondition,
		},
		{
			name: "target lookup failure",
			store: &fakeStore{
				MemoryStore: record.NewMemoryStore(campusRecords()),
				errs:        map[string]error{"student-1": errStoreUnavailable},
			},
			targetID: "student-1",
			want:     alert.ErrInternal,
		},
		{
			name:  "transport cannot be attempted",
			store: newStore(campusRecords()),
			transport: &fakeTransport{
				sendFn: func(context.Context, *push.Message) ([]push.Outcome, error) {
					return nil, errGatewayDown
				},
			},
			targetID: "student-1",
			want:     alert.ErrInternal,
		},
		{
			name:  "transport outcome count mismatch",
			store: newStore(campusRecords()),
			transport: &fakeTransport{
				sendFn: func(context.Context, *push.Message) ([]push.Outcome, error) {
					return nil, nil
				},
			},
			targetID: "student-1",
			want:     alert.ErrInternal,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			transport := tc.transport
			if transport == nil {
				transport = new(fakeTransport)
			}

			result, err := New(tc.store, transport).Trigger(context.Background(), tc.targetID, "")
			require.ErrorIs(t, err, tc.want)
			require.Nil(t, result)
		})
	}
}

// TestTrigger_ResponderLookupFailureDegrades ensures one broken responder record never aborts the dispatch.
func TestTrigger_ResponderLookupFailureDegrades(t *testing.T) {
	t.Parallel()

	records := campusRecords()
	records["warden-2"] = record.Document{"deliveryAddress": "tok-warden-2"}

	store := &fakeStore{
		MemoryStore: record.NewMemoryStore(records),
		errs:        map[string]error{"warden-1": errStoreUnavailable},
	}
	transport := new(fakeTransport)

	result, err := New(store, transport).Trigger(context.Background(), "student-1", "")
	require.NoError(t, err)
	require.Equal(t, 1, result.SentCount)
	require.Equal(t, []string{"warden-1"}, result.Unreachable)
	require.Equal(t, []string{"tok-warden-2"}, transport.sent[0].Addresses)
}

// TestTrigger_CollapsesSharedAddresses verifies that two responders on one device get a single send.
func TestTrigger_CollapsesSharedAddresses(t *testing.T) {
	t.Parallel()

	records := campusRecords()
	records["warden-2"] = record.Document{"deliveryAddress": "tok-warden-1"}

	transport := new(fakeTransport)

	result, err := New(newStore(records), transport).Trigger(context.Background(), "student-1", "")
	require.NoError(t, err)
	require.Equal(t, 1, result.SentCount)
	require.Equal(t, []string{"tok-warden-1"}, transport.sent[0].Addresses)
}

// TestTrigger_ResolvesAddressesConcurrently checks that lookups overlap instead of queueing.
func TestTrigger_ResolvesAddressesConcurrently(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		records := map[string]record.Document{
			"student-1": {"assignedResponders": []any{"r-1", "r-2", "r-3", "r-4"}},
			"r-1":       {"deliveryAddress": "tok-1"},
			"r-2":       {"deliveryAddress": "tok-2"},
			"r-3":       {"deliveryAddress": "tok-3"},
			"r-4":       {"deliveryAddress": "tok-4"},
		}

		store := &fakeStore{
			MemoryStore: record.NewMemoryStore(records),
			delay:       time.Second,
		}
		transport := new(fakeTransport)

		started := time.Now()

		result, err := New(store, transport).Trigger(context.Background(), "student-1", "")
		require.NoError(t, err)

		// One second for the target, one for all responders together.
		require.Equal(t, 2*time.Second, time.Since(started))
		require.Equal(t, 4, result.SentCount)
		require.Equal(t, []string{"tok-1", "tok-2", "tok-3", "tok-4"}, transport.sent[0].Addresses)
	})
}

// TestNewAlertID_Unique generates many ids and checks for collisions.
func TestNewAlertID_Unique(t *testing.T) {
	t.Parallel()

	const n = 10_000

	seen := make(map[string]struct{}, n)
	for range n {
		id := NewAlertID()
		require.NotEmpty(t, id)

		_, dup := seen[id]
		require.False(t, dup, "duplicate alert id %s", id)

		seen[id] = struct{}{}
	}
}

// TestTrigger_FreshIDPerCall verifies repeated triggers for one target never share an id.
func TestTrigger_FreshIDPerCall(t *testing.T) {
	t.Parallel()

	d := New(newStore(campusRecords()), new(fakeTransport))

	first, err := d.Trigger(context.Background(), "student-1", "")
	require.NoError(t, err)

	second, err := d.Trigger(context.Background(), "student-1", "")
	require.NoError(t, err)

	require.NotEqual(t, first.AlertID, second.AlertID)
}
