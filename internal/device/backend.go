package device

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/critical-alert/internal/config"
	"github.com/oshokin/critical-alert/internal/service/presenter"
)

// errUnknownBackend is returned for a backend name Open does not know.
var errUnknownBackend = errors.New("unknown alarm backend")

// Backend is a host able to present alarms.
type Backend interface {
	// Capabilities returns the device the presenter drives.
	Capabilities() presenter.Device
	// Probe reports whether notifications and audio are usable.
	Probe(ctx context.Context) error
	// OnAction sets the handler for actions chosen on posted notifications.
	OnAction(handler presenter.ActionHandler)
}

// Open returns the backend named in the alarm settings.
func Open(settings config.Alarm) (Backend, error) {
	switch settings.Backend {
	case config.AlarmBackendHeadless:
		return NewHeadless(), nil
	case config.AlarmBackendDesktop, "":
		desktop, err := NewLocalDesktop()
		if err != nil {
			return nil, fmt.Errorf("open desktop backend: %w", err)
		}

		return desktop, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownBackend, settings.Backend)
	}
}
