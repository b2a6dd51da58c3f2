package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/oshokin/critical-alert/internal/domain/alert"
)

// Data keys of a push message.
const (
	DataAlertID     = "alertId"
	DataType        = "type"
	DataStudentInfo = "studentInfo"
	DataTriggeredBy = "triggeredBy"
)

// Delivery hints applied to every critical alert.
const (
	AndroidPriorityHigh = "high"
	APNsPriorityHigh    = "10"
	DefaultSound        = "default"
)

// Message is one multicast push: a single payload addressed to many devices.
type Message struct {
	// Addresses are the delivery addresses in send order.
	Addresses []string
	// AlertID identifies the alert for client-side deduplication.
	AlertID string
	// Type is always alert.TypeCriticalAlert.
	Type string
	// StudentInfo is the JSON-serialized target snapshot.
	StudentInfo string
	// TriggeredBy identifies the actor who raised the alert.
	TriggeredBy string
}

// NewMessage serializes the envelope for the given addresses.
func NewMessage(envelope *alert.Envelope, addresses []string) (*Message, error) {
	if envelope == nil {
		return nil, errors.New("envelope is required")
	}

	info, err := json.Marshal(envelope.Target)
	if err != nil {
		return nil, fmt.Errorf("encode target snapshot: %w", err)
	}

	return &Message{
		Addresses:   append([]string(nil), addresses...),
		AlertID:     envelope.AlertID,
		Type:        alert.TypeCriticalAlert,
		StudentInfo: string(info),
		TriggeredBy: envelope.TriggeredBy,
	}, nil
}

// Data returns the string-only data payload shared by every address.
func (m *Message) Data() map[string]string {
	return map[string]string{
		DataAlertID:     m.AlertID,
		DataType:        m.Type,
		DataStudentInfo: m.StudentInfo,
		DataTriggeredBy: m.TriggeredBy,
	}
}

// Outcome is the delivery result for one address.
type Outcome struct {
	// Address is the delivery address the outcome belongs to.
	Address string
	// Err is nil when the message was accepted for this address.
	Err error
}

// OK reports whether the delivery succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Reason returns the failure reason or an empty string.
func (o Outcome) Reason() string {
	if o.Err == nil {
		return ""
	}

	return o.Err.Error()
}

// Transport sends one message to all of its addresses in a single call.
// A returned error means the send could not be attempted at all; otherwise
// the outcomes hold exactly one entry per address, in address order.
type Transport interface {
	Send(ctx context.Context, msg *Message) ([]Outcome, error)
}

// MaskAddress shortens a delivery address for log output.
func MaskAddress(address string) string {
	const visible = 8

	if len(address) <= visible {
		return address
	}

	return address[:visible] + "..."
}
