package device

import (
	"context"
	"fmt"
	"os"

	ps "github.com/mitchellh/go-ps"
	"google.golang.org/grpc"

	api "github.com/oshokin/critical-alert/internal/api/grpc/device"
	"github.com/oshokin/critical-alert/internal/config"
	devices "github.com/oshokin/critical-alert/internal/device"
	"github.com/oshokin/critical-alert/internal/logger"
	pb "github.com/oshokin/critical-alert/internal/pb/v1"
	"github.com/oshokin/critical-alert/internal/repository/state"
	"github.com/oshokin/critical-alert/internal/service/common"
	"github.com/oshokin/critical-alert/internal/service/presenter"
)

// Options controls the device agent process.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress overrides the listen address derived from device_addr.
	ListenAddress string
	// AllowMultiple skips the single-instance check.
	AllowMultiple bool
}

// Run starts the device agent and blocks until ctx is canceled.
// A running alarm is stopped before the agent exits.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "sos-device")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if err = logger.Configure(settings.LogLevel); err != nil {
		return err
	}

	if !opts.AllowMultiple {
		if err = ensureSingleInstance(ps.Processes, currentExecutable(), os.Getpid()); err != nil {
			return err
		}
	}

	listenAddress, err := common.ResolveListenAddress(settings.DeviceAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	backend, err := devices.Open(settings.Alarm)
	if err != nil {
		return err
	}

	presenterOpts := []presenter.Option{
		presenter.WithTimeout(settings.Alarm.Timeout),
		presenter.WithSound(settings.Alarm.Sound),
	}

	if settings.Alarm.HistoryFile != "" {
		presenterOpts = append(presenterOpts, presenter.WithHistory(state.NewFileRepository(settings.Alarm.HistoryFile)))
	}

	alarm, err := presenter.New(ctx, backend.Capabilities(), presenterOpts...)
	if err != nil {
		return fmt.Errorf("initialise presenter: %w", err)
	}

	defer alarm.Shutdown(ctx)

	backend.OnAction(alarm.HandleAction)

	var prober Prober
	if settings.Alarm.Permissions == config.PermissionsProbe {
		prober = backend
	}

	lis, err := common.Listen(ctx, listenAddress)
	if err != nil {
		return err
	}

	grpcServer := grpc.NewServer()
	pb.RegisterDeviceServiceServer(grpcServer, api.NewServer(NewHost(alarm, prober)))

	logger.InfoKV(ctx, "Device agent listening",
		"listen_address", listenAddress,
		"backend", settings.Alarm.Backend,
		"alarm_timeout", settings.Alarm.Timeout,
	)

	return common.Serve(ctx, grpcServer, lis)
}
