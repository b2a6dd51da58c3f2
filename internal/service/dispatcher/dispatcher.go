package dispatcher

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/critical-alert/internal/domain/alert"
	"github.com/oshokin/critical-alert/internal/logger"
	"github.com/oshokin/critical-alert/internal/repository/record"
	"github.com/oshokin/critical-alert/internal/transport/push"
)

// maxTargetIDLength bounds accepted target identifiers.
const maxTargetIDLength = 1500

// Dispatcher turns a trigger request into one fan-out send.
type Dispatcher struct {
	// responders resolves a target and its responder set.
	responders *ResponderResolver
	// addresses resolves responder delivery addresses.
	addresses *AddressResolver
	// transport sends the batch.
	transport push.Transport
	// newID generates alert ids.
	newID func() string
	// now returns the envelope timestamp.
	now func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithIDGenerator overrides alert id generation.
func WithIDGenerator(newID func() string) Option {
	return func(d *Dispatcher) {
		if newID != nil {
			d.newID = newID
		}
	}
}

// WithNow overrides the envelope clock.
func WithNow(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// New creates a dispatcher reading records from store and sending through transport.
func New(store record.Store, transport push.Transport, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		responders: NewResponderResolver(store),
		addresses:  NewAddressResolver(store),
		transport:  transport,
		newID:      NewAlertID,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// NewAlertID returns a fresh random alert id.
func NewAlertID() string {
	return uuid.NewString()
}

// Trigger raises an alert for targetID on behalf of actorID.
//
// It fails with alert.ErrInvalidArgument for a malformed id, alert.ErrNotFound
// for a missing target, alert.ErrFailedPrecondition when there is no
// responder or no usable address, and alert.ErrInternal when the send
// could not be attempted. Per-address send failures are reported in the
// result, never as an error.
func (d *Dispatcher) Trigger(ctx context.Context, targetID, actorID string) (*alert.DispatchResult, error) {
	// The id exists before any lookup so a caller can correlate partial failures.
	alertID := d.newID()

	if actorID == "" {
		actorID = alert.AnonymousActor
	}

	ctx = logger.WithKV(ctx, "alert_id", alertID, "target_id", targetID)

	if err := validateTargetID(targetID); err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Trigger alert requested", "actor_id", actorID)

	target, responders, err := d.responders.Resolve(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if len(responders) == 0 {
		return nil, fmt.Errorf("%w: target user has no assigned responders", alert.ErrFailedPrecondition)
	}

	logger.InfoKV(ctx, "Resolved assigned responders", "responders", len(responders))

	addresses, unreachable := d.resolveAddresses(ctx, responders)
	if len(addresses) == 0 {
		return nil, fmt.Errorf("%w: no valid delivery addresses found for assigned responders", alert.ErrFailedPrecondition)
	}

	envelope := alert.BuildEnvelope(target, actorID, alertID, d.now())

	msg, err := push.NewMessage(envelope, addresses)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", alert.ErrInternal, err)
	}

	logger.InfoKV(ctx, "Sending alert", "devices", len(addresses))

	outcomes, err := d.transport.Send(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("%w: send alert: %w", alert.ErrInternal, err)
	}

	if len(outcomes) != len(addresses) {
		return nil, fmt.Errorf("%w: transport returned %d outcomes for %d addresses",
			alert.ErrInternal, len(outcomes), len(addresses))
	}

	result := aggregate(ctx, alertID, outcomes)
	result.Unreachable = unreachable

	logger.InfoKV(ctx, "Alert dispatched",
		"sent", result.SentCount,
		"failed", result.FailedCount,
		"unreachable", len(unreachable),
	)

	return result, nil
}

// resolveAddresses looks every responder up concurrently. Each lookup owns
// one slot, so an absent or failing responder never affects its siblings.
// Addresses shared by several responders are sent to once.
func (d *Dispatcher) resolveAddresses(ctx context.Context, responders alert.ResponderSet) ([]string, []string) {
	type slot struct {
		address string
		ok      bool
	}

	var (
		slots = make([]slot, len(responders))
		wg    sync.WaitGroup
	)

	for i, responderID := range responders {
		wg.Add(1)

		go func() {
			defer wg.Done()

			address, ok := d.addresses.Resolve(logger.WithKV(ctx, "responder_id", responderID), responderID)
			slots[i] = slot{address: address, ok: ok}
		}()
	}

	wg.Wait()

	var (
		addresses   = make([]string, 0, len(responders))
		unreachable []string
		seen        = make(map[string]struct{}, len(responders))
	)

	for i, s := range slots {
		if !s.ok {
			unreachable = append(unreachable, responders[i])
			continue
		}

		if _, dup := seen[s.address]; dup {
			continue
		}

		seen[s.address] = struct{}{}
		addresses = append(addresses, s.address)
	}

	return addresses, unreachable
}

// aggregate folds transport outcomes into a result, logging every failure.
func aggregate(ctx context.Context, alertID string, outcomes []push.Outcome) *alert.DispatchResult {
	result := &alert.DispatchResult{
		AlertID:  alertID,
		Failures: map[string]string{},
	}

	for _, outcome := range outcomes {
		if outcome.OK() {
			result.SentCount++
			continue
		}

		result.FailedCount++
		result.Failures[outcome.Address] = outcome.Reason()

		logger.ErrorKV(ctx, "Failed to send alert",
			"address", push.MaskAddress(outcome.Address),
			"reason", outcome.Reason(),
		)
	}

	return result
}

// validateTargetID rejects identifiers that cannot name a record.
func validateTargetID(targetID string) error {
	switch {
	case strings.TrimSpace(targetID) == "":
		return fmt.Errorf("%w: targetId is required and must be a string", alert.ErrInvalidArgument)
	case len(targetID) > maxTargetIDLength:
		return fmt.Errorf("%w: targetId is too long", alert.ErrInvalidArgument)
	case strings.Contains(targetID, "/"):
		return fmt.Errorf("%w: targetId must not contain '/'", alert.ErrInvalidArgument)
	}

	return nil
}
