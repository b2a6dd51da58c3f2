//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/oshokin/critical-alert/internal/config"
	pb "github.com/oshokin/critical-alert/internal/pb/v1"
)

// Client wraps the AlertService and DeviceService clients of one endpoint.
type Client struct {
	// conn is the underlying gRPC connection.
	conn *grpc.ClientConn
	// alerts calls the dispatcher.
	alerts pb.AlertServiceClient
	// devices calls a device agent.
	devices pb.DeviceServiceClient

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errTargetRequired is returned when a trigger names no target.
	errTargetRequired = errors.New("target id must be provided")
)

// Dial prepares a gRPC connection to address.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy until native TLS is added.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	// Use the non-context NewClient API recommended by grpc-go
	// (DialContext is deprecated as of grpc-go v1.60+).
	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}

	client := &Client{
		conn:        conn,
		alerts:      pb.NewAlertServiceClient(conn),
		devices:     pb.NewDeviceServiceClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// TriggerCriticalAlert asks the dispatcher to alert the responders of targetID.
// An empty actorID is sent without identity and the dispatcher records it as anonymous.
func (c *Client) TriggerCriticalAlert(ctx context.Context, actorID, targetID string) (*pb.TriggerResponse, error) {
	if targetID == "" {
		return nil, errTargetRequired
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if actorID != "" {
		callCtx = metadata.AppendToOutgoingContext(callCtx, pb.ActorMetadataKey, actorID)
	}

	request := &pb.TriggerRequest{TargetID: targetID}

	response, err := c.alerts.TriggerCriticalAlert(callCtx, request.ToStruct())
	if err != nil {
		return nil, fmt.Errorf("trigger critical alert: %w", err)
	}

	return pb.TriggerResponseFromStruct(response), nil
}

// StartCriticalAlert starts the alarm on a device agent.
func (c *Client) StartCriticalAlert(ctx context.Context, alertID string) (string, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	request := &pb.StartRequest{AlertID: alertID}

	response, err := c.devices.StartCriticalAlert(callCtx, request.ToStruct())
	if err != nil {
		return "", fmt.Errorf("start critical alert: %w", err)
	}

	return response.GetValue(), nil
}

// StopCriticalAlert stops the alarm on a device agent.
func (c *Client) StopCriticalAlert(ctx context.Context) (string, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.devices.StopCriticalAlert(callCtx, new(emptypb.Empty))
	if err != nil {
		return "", fmt.Errorf("stop critical alert: %w", err)
	}

	return response.GetValue(), nil
}

// GetAlarmState returns the alarm status of a device agent.
func (c *Client) GetAlarmState(ctx context.Context) (*pb.AlarmState, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response, err := c.devices.GetAlarmState(callCtx, new(emptypb.Empty))
	if err != nil {
		return nil, fmt.Errorf("get alarm state: %w", err)
	}

	return pb.AlarmStateFromStruct(response), nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
