package device

import (
	"context"
	"slices"
	"sync"

	"github.com/oshokin/critical-alert/internal/logger"
	"github.com/oshokin/critical-alert/internal/service/presenter"
)

// Headless logs every alarm action instead of touching the host.
// It keeps counters so callers can observe what an alarm did.
type Headless struct {
	mu       sync.Mutex
	active   int
	posted   []presenter.Notification
	onAction presenter.ActionHandler
}

// NewHeadless returns a logging backend.
func NewHeadless() *Headless {
	return new(Headless)
}

// Capabilities exposes the backend as a presenter device.
func (h *Headless) Capabilities() presenter.Device {
	return presenter.Device{Volume: h, Player: h, Notifier: h, Foreground: h}
}

// Probe always succeeds.
func (h *Headless) Probe(context.Context) error {
	return nil
}

// MaximizeAlarmVolume logs the request.
func (h *Headless) MaximizeAlarmVolume(ctx context.Context) error {
	logger.Info(ctx, "Alarm volume set to maximum")

	return nil
}

// PlayLooping logs the start of playback.
func (h *Headless) PlayLooping(ctx context.Context, sound string) (presenter.Playback, error) {
	logger.InfoKV(ctx, "Alarm sound playing", "sound", sound)

	h.mu.Lock()
	h.active++
	h.mu.Unlock()

	return &headlessPlayback{ctx: ctx, owner: h}, nil
}

// EnsureChannel logs the channel.
func (h *Headless) EnsureChannel(ctx context.Context, channel presenter.Channel) error {
	logger.DebugKV(ctx, "Notification channel ready", "channel", channel.ID)

	return nil
}

// Post logs and records the notification.
func (h *Headless) Post(ctx context.Context, n presenter.Notification) error {
	logger.InfoKV(ctx, "Notification posted", "title", n.Title, "body", n.Body)

	h.mu.Lock()
	h.posted = append(h.posted, n)
	h.mu.Unlock()

	return nil
}

// OnAction sets the handler Press reports to.
func (h *Headless) OnAction(handler presenter.ActionHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.onAction = handler
}

// Press chooses actionID on the most recent notification, as a user would.
// It reports false when nothing was posted or the action is not offered.
func (h *Headless) Press(ctx context.Context, actionID string) bool {
	h.mu.Lock()

	if len(h.posted) == 0 || h.onAction == nil {
		h.mu.Unlock()

		return false
	}

	n := h.posted[len(h.posted)-1]
	handler := h.onAction
	h.mu.Unlock()

	if !slices.ContainsFunc(n.Actions, func(a presenter.Action) bool { return a.ID == actionID }) {
		return false
	}

	logger.InfoKV(ctx, "Notification action chosen", "alert_id", n.AlertID, "action", actionID)
	handler(ctx, n.AlertID, actionID)

	return true
}

// Cancel logs the withdrawal.
func (h *Headless) Cancel(ctx context.Context, id string) error {
	logger.InfoKV(ctx, "Notification cleared", "id", id)

	return nil
}

// Elevate logs the elevation.
func (h *Headless) Elevate(ctx context.Context) (presenter.Elevation, error) {
	logger.Debug(ctx, "Foreground elevation acquired")

	return headlessElevation{ctx: ctx}, nil
}

// Playing reports how many playbacks are running.
func (h *Headless) Playing() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.active
}

// Posted returns the notifications posted so far.
func (h *Headless) Posted() []presenter.Notification {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]presenter.Notification(nil), h.posted...)
}

type headlessPlayback struct {
	ctx   context.Context //nolint:containedctx // Logging only.
	owner *Headless
	once  sync.Once
}

func (p *headlessPlayback) Stop() error {
	p.once.Do(func() {
		logger.Info(p.ctx, "Alarm sound stopped")

		p.owner.mu.Lock()
		p.owner.active--
		p.owner.mu.Unlock()
	})

	return nil
}

func (p *headlessPlayback) Release() error {
	return p.Stop()
}

type headlessElevation struct {
	ctx context.Context //nolint:containedctx // Logging only.
}

func (e headlessElevation) Release() error {
	logger.Debug(e.ctx, "Foreground elevation released")

	return nil
}
