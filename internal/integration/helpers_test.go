package integration

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/critical-alert/internal/config"
	"github.com/oshokin/critical-alert/internal/service/device"
	"github.com/oshokin/critical-alert/internal/service/dispatcher"
)

// reservePort returns a free loopback address.
func reservePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	return addr
}

// writeSettings saves cfg to a temporary settings file.
func writeSettings(t *testing.T, cfg *config.Config) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, config.Save(path, cfg))

	return path
}

// waitListening blocks until addr accepts TCP connections.
func waitListening(t *testing.T, addr string) {
	t.Helper()

	require.Eventually(t, func() bool {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err != nil {
			return false
		}

		_ = conn.Close()

		return true
	}, 5*time.Second, 20*time.Millisecond)
}

// startDevice runs a headless device agent on addr until the test ends.
func startDevice(t *testing.T, dispatcherAddr, addr string) {
	t.Helper()

	cfgPath := writeSettings(t, &config.Config{
		ServerAddress: dispatcherAddr,
		DeviceAddress: addr,
		Timeout:       3 * time.Second,
		Alarm: config.Alarm{
			Backend:     config.AlarmBackendHeadless,
			Permissions: config.PermissionsGranted,
			HistoryFile: filepath.Join(t.TempDir(), "history.json"),
		},
	})

	run(t, func(ctx context.Context) error {
		return device.Run(ctx, &device.Options{
			ConfigPath:    cfgPath,
			ListenAddress: addr,
			AllowMultiple: true,
		})
	})

	waitListening(t, addr)
}

// startDispatcher runs a dispatcher with the direct transport and a sqlite store until the test ends.
func startDispatcher(t *testing.T, addr, recordsPath string) {
	t.Helper()

	cfgPath := writeSettings(t, &config.Config{
		ServerAddress: addr,
		Timeout:       3 * time.Second,
		Records:       config.Records{Driver: config.RecordsDriverSQLite, Path: recordsPath},
		Push:          config.Push{Transport: config.PushTransportDirect, Timeout: 2 * time.Second},
	})

	run(t, func(ctx context.Context) error {
		return dispatcher.Run(ctx, &dispatcher.Options{
			ConfigPath:    cfgPath,
			ListenAddress: addr,
		})
	})

	waitListening(t, addr)
}

// run starts fn in the background and stops it when the test ends.
func run(t *testing.T, fn func(ctx context.Context) error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- fn(ctx)
	}()

	t.Cleanup(func() {
		cancel()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})
}
