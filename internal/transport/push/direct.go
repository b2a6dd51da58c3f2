package push

import (
	"context"
	"fmt"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	pb "github.com/oshokin/critical-alert/internal/pb/v1"
)

// Deliverer hands a push payload to one device.
type Deliverer func(ctx context.Context, address string, data map[string]string) error

// DirectTransport treats every address as a device agent host:port and
// delivers to all of them concurrently.
type DirectTransport struct {
	deliver Deliverer
	timeout time.Duration
}

// NewDirectTransport creates a transport delivering over gRPC with a per-device timeout.
func NewDirectTransport(timeout time.Duration) *DirectTransport {
	return NewDirectTransportWith(DeliverGRPC, timeout)
}

// NewDirectTransportWith creates a transport using a custom deliverer.
func NewDirectTransportWith(deliver Deliverer, timeout time.Duration) *DirectTransport {
	return &DirectTransport{
		deliver: deliver,
		timeout: timeout,
	}
}

// Send implements Transport. Each delivery writes only its own slot, so
// the outcomes keep address order regardless of completion order.
func (t *DirectTransport) Send(ctx context.Context, msg *Message) ([]Outcome, error) {
	var (
		data     = msg.Data()
		outcomes = make([]Outcome, len(msg.Addresses))
		wg       sync.WaitGroup
	)

	for i, address := range msg.Addresses {
		wg.Add(1)

		go func() {
			defer wg.Done()

			callCtx, cancel := t.callContext(ctx)
			defer cancel()

			outcomes[i] = Outcome{
				Address: address,
				Err:     t.deliver(callCtx, address, data),
			}
		}()
	}

	wg.Wait()

	return outcomes, nil
}

func (t *DirectTransport) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if t.timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, t.timeout)
}

// DeliverGRPC calls DeviceService/DeliverAlert on the agent at address.
func DeliverGRPC(ctx context.Context, address string, data map[string]string) error {
	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("dial device %s: %w", address, err)
	}

	defer func() {
		_ = conn.Close()
	}()

	if _, err = pb.NewDeviceServiceClient(conn).DeliverAlert(ctx, pb.DataToStruct(data)); err != nil {
		return fmt.Errorf("deliver to device: %w", err)
	}

	return nil
}
