package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields and format validations.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing socket.
	require.Error(t, Validate(new(Config)))

	// Bad socket.
	require.Error(t, Validate(&Config{ServerAddress: "bad:address"}))

	// HTTP transport without endpoint.
	require.ErrorIs(t, Validate(&Config{
		ServerAddress: "127.0.0.1:0",
		Push:          Push{Transport: PushTransportHTTP},
	}), errPushEndpointRequired)

	// Unknown enum values.
	require.ErrorIs(t, Validate(&Config{
		ServerAddress: "127.0.0.1:0",
		Push:          Push{Transport: "pigeon"},
	}), errUnknownValue)
	require.ErrorIs(t, Validate(&Config{
		ServerAddress: "127.0.0.1:0",
		Alarm:         Alarm{Backend: "speaker"},
	}), errUnknownValue)

	// Negative alarm timeout.
	require.ErrorIs(t, Validate(&Config{
		ServerAddress: "127.0.0.1:0",
		Alarm:         Alarm{Timeout: -time.Second},
	}), errNegativeDuration)

	// Okay with HTTP endpoint.
	require.NoError(t, Validate(&Config{
		ServerAddress: "127.0.0.1:0",
		Push:          Push{Transport: PushTransportHTTP, Endpoint: "https://push.example.com/v1/batch"},
	}))
}

// TestValidate_Defaults verifies that omitted settings receive their defaults.
func TestValidate_Defaults(t *testing.T) {
	t.Parallel()

	settings := &Config{ServerAddress: "127.0.0.1:50051"}
	require.NoError(t, Validate(settings))

	require.Equal(t, DefaultDeviceAddress, settings.DeviceAddress)
	require.Equal(t, DefaultTimeout, settings.Timeout)
	require.Equal(t, RecordsDriverSQLite, settings.Records.Driver)
	require.Equal(t, DefaultRecordsFilename, settings.Records.Path)
	require.Equal(t, PushTransportLog, settings.Push.Transport)
	require.Equal(t, DefaultPushTimeout, settings.Push.Timeout)
	require.Equal(t, DefaultAlarmTimeout, settings.Alarm.Timeout)
	require.Equal(t, AlarmBackendHeadless, settings.Alarm.Backend)
	require.Equal(t, PermissionsProbe, settings.Alarm.Permissions)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	settings := &Config{
		ServerAddress: "127.0.0.1:50051",
		Records:       Records{Driver: RecordsDriverFile, Path: "records.yaml"},
		Alarm: Alarm{
			Timeout:     90 * time.Second,
			Sound:       "/usr/share/sounds/alarm.oga",
			HistoryFile: "history.json",
		},
	}

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings.ServerAddress, loaded.ServerAddress)
	require.Equal(t, settings.Records, loaded.Records)
	require.Equal(t, 90*time.Second, loaded.Alarm.Timeout)
	require.Equal(t, "/usr/share/sounds/alarm.oga", loaded.Alarm.Sound)
	require.Equal(t, "history.json", loaded.Alarm.HistoryFile)

	_, err = os.Stat(path)
	require.NoError(t, err)
}
