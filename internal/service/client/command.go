package client

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	api "github.com/oshokin/critical-alert/internal/api/grpc/device"
	"github.com/oshokin/critical-alert/internal/config"
	"github.com/oshokin/critical-alert/internal/logger"
	"github.com/oshokin/critical-alert/internal/service/common"
)

// Options configures the alarm on/off commands.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string

	// DeviceAddress overrides device_addr from config when specified.
	DeviceAddress string

	// Enable starts the alarm when true and stops it otherwise.
	Enable bool

	// AlertID is presented by the alarm; a local alarm is raised when empty.
	AlertID string
}

// defaultRetryInterval is the delay between attempts while the agent is unreachable.
const defaultRetryInterval = 1 * time.Second

// Controller starts and stops the alarm on a device agent.
type Controller interface {
	StartCriticalAlert(ctx context.Context, alertID string) (string, error)
	StopCriticalAlert(ctx context.Context) (string, error)
}

// Run connects to the device agent and applies the requested alarm state,
// retrying while the agent is unreachable.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "sos-alarm")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	if err = logger.Configure(cfg.LogLevel); err != nil {
		return err
	}

	deviceAddress := cfg.DeviceAddress
	if opts.DeviceAddress != "" {
		deviceAddress = opts.DeviceAddress
	}

	client, err := common.Dial(ctx, deviceAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	logger.InfoKV(ctx, "Applying alarm state", "device_address", deviceAddress, "enable", opts.Enable)

	message, err := Apply(ctx, client, opts, defaultRetryInterval)
	if err != nil {
		return err
	}

	logger.Info(ctx, message)

	return nil
}

// Apply calls the controller until it answers. Unavailable agents are retried
// every interval; any other failure, such as a missing permission, is final.
func Apply(ctx context.Context, controller Controller, opts *Options, interval time.Duration) (string, error) {
	// attempt tries once, returns (message, completed, error).
	attempt := func() (string, bool, error) {
		var (
			message string
			err     error
		)

		if opts.Enable {
			message, err = controller.StartCriticalAlert(ctx, opts.AlertID)
		} else {
			message, err = controller.StopCriticalAlert(ctx)
		}

		switch {
		case err == nil:
			return message, true, nil
		case status.Code(err) == codes.Unavailable:
			logger.WarnKV(ctx, "Device agent unavailable, retrying", "error", err)

			return "", false, nil
		default:
			return "", false, describe(err)
		}
	}

	// Attempt immediately before starting retry loop.
	if message, done, err := attempt(); err != nil || done {
		return message, err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
			if message, done, err := attempt(); err != nil || done {
				return message, err
			}
		}
	}
}

// describe prefixes a failure with its control error code when the agent sent one.
func describe(err error) error {
	reason, ok := api.ReasonFromError(err)
	if !ok {
		return err
	}

	return fmt.Errorf("%s: %s: %w", reason, status.Convert(err).Message(), err)
}
