package dispatcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/critical-alert/internal/domain/alert"
	"github.com/oshokin/critical-alert/internal/logger"
	"github.com/oshokin/critical-alert/internal/repository/record"
)

// ResponderResolver reads a target record and the responders assigned to it.
type ResponderResolver struct {
	store record.Store
}

// NewResponderResolver creates a resolver over store.
func NewResponderResolver(store record.Store) *ResponderResolver {
	return &ResponderResolver{store: store}
}

// Resolve returns the target snapshot and its responder set. A missing
// record yields alert.ErrNotFound; a target without responders yields an
// empty set and no error.
func (r *ResponderResolver) Resolve(ctx context.Context, targetID string) (*alert.Target, alert.ResponderSet, error) {
	doc, err := r.store.Get(ctx, targetID)
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: target user not found", alert.ErrNotFound)
		}

		return nil, nil, fmt.Errorf("%w: load target %s: %w", alert.ErrInternal, targetID, err)
	}

	return alert.TargetFromRecord(targetID, doc), alert.ResponderSetFromRecord(doc), nil
}

// AddressResolver looks up the delivery address of a responder.
type AddressResolver struct {
	store record.Store
}

// NewAddressResolver creates a resolver over store.
func NewAddressResolver(store record.Store) *AddressResolver {
	return &AddressResolver{store: store}
}

// Resolve returns the responder's delivery address. It never fails: any
// lookup problem is logged and reported as an absent address.
// The logger of ctx is expected to carry responder_id already.
func (r *AddressResolver) Resolve(ctx context.Context, responderID string) (string, bool) {
	doc, err := r.store.Get(ctx, responderID)

	switch {
	case errors.Is(err, record.ErrNotFound):
		logger.WarnKV(ctx, "Responder record not found")
		return "", false
	case err != nil:
		logger.ErrorKV(ctx, "Failed to fetch responder", "error", err)
		return "", false
	}

	address, ok := alert.DeliveryAddressFromRecord(doc)
	if !ok {
		logger.WarnKV(ctx, "Responder has no delivery address")
		return "", false
	}

	return address, true
}
