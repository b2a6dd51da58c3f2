package push

import (
	"context"

	"github.com/oshokin/critical-alert/internal/logger"
)

// LogTransport only logs what it would send and reports every address as delivered.
type LogTransport struct{}

// NewLogTransport creates a dry-run transport.
func NewLogTransport() *LogTransport {
	return &LogTransport{}
}

// Send implements Transport.
func (*LogTransport) Send(ctx context.Context, msg *Message) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(msg.Addresses))

	for _, address := range msg.Addresses {
		logger.InfoKV(ctx, "Dry-run push",
			"alert_id", msg.AlertID,
			"address", MaskAddress(address),
			"type", msg.Type,
		)

		outcomes = append(outcomes, Outcome{Address: address})
	}

	return outcomes, nil
}
