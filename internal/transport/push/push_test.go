package push

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/critical-alert/internal/domain/alert"
)

var errDeviceOffline = errors.New("device offline")

// testMessage builds a message for the given addresses from a small envelope.
func testMessage(t *testing.T, addresses ...string) *Message {
	t.Helper()

	target := alert.TargetFromRecord("student-1", map[string]any{"fullName": "Asha Verma"})
	envelope := alert.BuildEnvelope(target, "warden-9", "alert-1", time.Unix(1000, 0))

	msg, err := NewMessage(envelope, addresses)
	require.NoError(t, err)

	return msg
}

// TestNewMessage_Data verifies the multicast data contract.
func TestNewMessage_Data(t *testing.T) {
	t.Parallel()

	data := testMessage(t, "tok-1").Data()

	require.Equal(t, "alert-1", data[DataAlertID])
	require.Equal(t, alert.TypeCriticalAlert, data[DataType])
	require.Equal(t, "warden-9", data[DataTriggeredBy])

	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(data[DataStudentInfo]), &info))
	require.Equal(t, "Asha Verma", info["fullName"])
	require.Contains(t, info, "guardianContact")
	require.Nil(t, info["guardianContact"])
}

// TestHTTPTransport_Send checks the request shape and per-address outcome mapping.
func TestHTTPTransport_Send(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)

		var batch gatewayRequest
		assert.NoError(t, json.Unmarshal(body, &batch))
		assert.Len(t, batch.Messages, 2)
		assert.Equal(t, "tok-1", batch.Messages[0].Token)
		assert.Equal(t, AndroidPriorityHigh, batch.Messages[0].Android.Priority)
		assert.Equal(t, APNsPriorityHigh, batch.Messages[1].APNs.Headers["apns-priority"])
		assert.Equal(t, 1, batch.Messages[1].APNs.Payload.APS.ContentAvailable)

		_, _ = w.Write([]byte(`{"responses":[{"success":true},{"success":false,"error":"registration-token-not-registered"}]}`))
	}))
	defer server.Close()

	transport := NewHTTPTransport(server.URL, "secret", time.Second)

	outcomes, err := transport.Send(context.Background(), testMessage(t, "tok-1", "tok-2"))
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	require.True(t, outcomes[0].OK())
	require.False(t, outcomes[1].OK())
	require.Equal(t, "tok-2", outcomes[1].Address)
	require.ErrorIs(t, outcomes[1].Err, ErrRejected)
	require.Contains(t, outcomes[1].Reason(), "registration-token-not-registered")
}

// TestHTTPTransport_Errors verifies that gateway-level failures are transport errors.
func TestHTTPTransport_Errors(t *testing.T) {
	t.Parallel()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer failing.Close()

	_, err := NewHTTPTransport(failing.URL, "", time.Second).Send(context.Background(), testMessage(t, "tok-1"))
	require.ErrorIs(t, err, errBadHTTPStatus)
	require.Contains(t, err.Error(), "quota exceeded")

	short := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"responses":[{"success":true}]}`))
	}))
	defer short.Close()

	_, err = NewHTTPTransport(short.URL, "", time.Second).Send(context.Background(), testMessage(t, "tok-1", "tok-2"))
	require.ErrorIs(t, err, errOutcomeMismatch)
}

// TestDirectTransport_KeepsAddressOrder ensures concurrent deliveries report in input order.
func TestDirectTransport_KeepsAddressOrder(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	deliver := func(_ context.Context, address string, data map[string]string) error {
		calls.Add(1)
		assert.Equal(t, "alert-1", data[DataAlertID])

		if address == "10.0.0.2:50061" {
			return errDeviceOffline
		}

		return nil
	}

	transport := NewDirectTransportWith(deliver, time.Second)

	outcomes, err := transport.Send(context.Background(), testMessage(t, "10.0.0.1:50061", "10.0.0.2:50061", "10.0.0.3:50061"))
	require.NoError(t, err)
	require.EqualValues(t, 3, calls.Load())
	require.Equal(t, "10.0.0.1:50061", outcomes[0].Address)
	require.True(t, outcomes[0].OK())
	require.ErrorIs(t, outcomes[1].Err, errDeviceOffline)
	require.True(t, outcomes[2].OK())
}

// TestLogTransport_ReportsSuccess verifies the dry-run transport accepts every address.
func TestLogTransport_ReportsSuccess(t *testing.T) {
	t.Parallel()

	outcomes, err := NewLogTransport().Send(context.Background(), testMessage(t, "tok-1", "tok-2"))
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	require.True(t, outcomes[1].OK())
}

// TestMaskAddress keeps only a short prefix of long tokens.
func TestMaskAddress(t *testing.T) {
	t.Parallel()

	require.Equal(t, "short", MaskAddress("short"))
	require.Equal(t, "abcdefgh...", MaskAddress("abcdefghijklmnop"))
}
