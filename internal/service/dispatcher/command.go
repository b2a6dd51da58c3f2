package dispatcher

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"

	api "github.com/oshokin/critical-alert/internal/api/grpc/alert"
	"github.com/oshokin/critical-alert/internal/config"
	"github.com/oshokin/critical-alert/internal/logger"
	pb "github.com/oshokin/critical-alert/internal/pb/v1"
	"github.com/oshokin/critical-alert/internal/repository/record"
	"github.com/oshokin/critical-alert/internal/service/common"
	"github.com/oshokin/critical-alert/internal/transport/push"
)

// errUnsupportedSetting is returned for a driver or transport this build does not know.
var errUnsupportedSetting = errors.New("unsupported setting")

// Options controls the dispatcher process.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// RecordsPath overrides records.path from the settings.
	RecordsPath string
}

// Run starts the dispatcher gRPC server and blocks until ctx is canceled or the server stops.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "sos-dispatcher")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if err = logger.Configure(settings.LogLevel); err != nil {
		return err
	}

	if opts.RecordsPath != "" {
		settings.Records.Path = opts.RecordsPath
	}

	listenAddress, err := common.ResolveListenAddress(settings.ServerAddress, opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("resolve listen address: %w", err)
	}

	store, closeStore, err := OpenStore(ctx, settings.Records)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := closeStore(); closeErr != nil {
			logger.WarnKV(ctx, "Failed to close record store", "error", closeErr)
		}
	}()

	transport, err := NewTransport(settings.Push)
	if err != nil {
		return err
	}

	lis, err := common.Listen(ctx, listenAddress)
	if err != nil {
		return err
	}

	grpcServer := grpc.NewServer()
	pb.RegisterAlertServiceServer(grpcServer, api.NewServer(New(store, transport)))

	logger.InfoKV(ctx, "Dispatcher listening",
		"listen_address", listenAddress,
		"records_driver", settings.Records.Driver,
		"records_path", settings.Records.Path,
		"push_transport", settings.Push.Transport,
	)

	return common.Serve(ctx, grpcServer, lis)
}

// OpenStore opens the record store named in the settings.
// The returned function releases it.
func OpenStore(ctx context.Context, settings config.Records) (record.Store, func() error, error) {
	switch settings.Driver {
	case config.RecordsDriverFile:
		return record.NewFileStore(settings.Path), func() error { return nil }, nil
	case config.RecordsDriverSQLite:
		store, err := record.OpenSQLite(ctx, settings.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open records %s: %w", settings.Path, err)
		}

		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: records driver %q", errUnsupportedSetting, settings.Driver)
	}
}

// NewTransport builds the push transport named in the settings.
func NewTransport(settings config.Push) (push.Transport, error) {
	switch settings.Transport {
	case config.PushTransportHTTP:
		return push.NewHTTPTransport(settings.Endpoint, settings.APIKey, settings.Timeout), nil
	case config.PushTransportDirect:
		return push.NewDirectTransport(settings.Timeout), nil
	case config.PushTransportLog:
		return push.NewLogTransport(), nil
	default:
		return nil, fmt.Errorf("%w: push transport %q", errUnsupportedSetting, settings.Transport)
	}
}
