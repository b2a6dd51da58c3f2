package presenter

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	domain "github.com/oshokin/critical-alert/internal/domain/alarm"
	"github.com/oshokin/critical-alert/internal/logger"
)

const (
	// DefaultTimeout is how long an unacknowledged alarm rings.
	DefaultTimeout = 60 * time.Second
	// DefaultSound selects the platform default alarm sound.
	DefaultSound = "default"
	// recentCapacity bounds how many finished alert ids are remembered for dedup.
	recentCapacity = 64

	notificationTitle = "🚨 EMERGENCY ALERT 🚨"
	notificationBody  = "This is a critical emergency alert. Tap to acknowledge."
)

var (
	// ErrSetupFailed wraps any failure while starting an alarm.
	ErrSetupFailed = errors.New("failed to start critical alert")
	errPanic       = errors.New("device call panicked")
)

// StartRequest asks the presenter to ring for an alert.
type StartRequest struct {
	// AlertID identifies the alert; a local id is generated when empty.
	AlertID string
	// Subject is the name of the person concerned, shown in the notification.
	Subject string
}

// StartOutcome reports what Start did.
type StartOutcome struct {
	// Started is true when a new session began.
	Started bool
	// AlreadyActive is true when another alarm was ringing and the request was ignored.
	AlreadyActive bool
	// Duplicate is true when the alert id is already ringing or was recently presented.
	Duplicate bool
	// Session is the session now ringing, if any.
	Session *domain.Session
}

// HistoryStore keeps the alarm history across restarts.
type HistoryStore interface {
	Load(ctx context.Context) (*domain.History, error)
	Save(ctx context.Context, history *domain.History) error
}

// Option customizes a Presenter.
type Option func(*Presenter)

// WithClock sets the clock that drives deadlines.
func WithClock(c clock.Clock) Option {
	return func(p *Presenter) {
		p.clock = c
	}
}

// WithTimeout sets how long an alarm rings before stopping by itself.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Presenter) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// WithSound selects the alarm sound passed to the player.
func WithSound(sound string) Option {
	return func(p *Presenter) {
		if sound != "" {
			p.sound = sound
		}
	}
}

// WithHistory restores recent alert ids and the last session from store
// and saves them whenever a session ends.
func WithHistory(store HistoryStore) Option {
	return func(p *Presenter) {
		p.history = store
	}
}

// session is the running alarm and the resources it holds.
type session struct {
	// generation tells a late timer callback whether its session is still current.
	generation uint64
	info       domain.Session
	timer      *clock.Timer
	playback   Playback
	elevation  Elevation
	notified   bool
}

// Presenter runs at most one alarm at a time.
// Start, Stop and the deadline callback are serialized by mu.
type Presenter struct {
	device  Device
	clock   clock.Clock
	timeout time.Duration
	sound   string
	history HistoryStore
	// ctx carries the logger for work that outlives a request.
	ctx context.Context //nolint:containedctx // Deadline callbacks have no request context.

	mu         sync.Mutex
	phase      domain.Phase
	current    *session
	last       *domain.Session
	generation uint64
	recent     []string
}

// New creates an idle presenter driving the given device.
func New(ctx context.Context, device Device, opts ...Option) (*Presenter, error) {
	if err := device.validate(); err != nil {
		return nil, err
	}

	p := &Presenter{
		device:  device,
		clock:   clock.New(),
		timeout: DefaultTimeout,
		sound:   DefaultSound,
		ctx:     logger.Detach(logger.WithName(ctx, "presenter")),
		phase:   domain.PhaseIdle,
	}

	for _, opt := range opts {
		opt(p)
	}

	p.restore()

	return p, nil
}

// restore loads the saved history. A broken history file must not keep the
// alarm from working, so failures only start an empty history.
func (p *Presenter) restore() {
	if p.history == nil {
		return
	}

	history, err := p.history.Load(p.ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNoHistory) {
			logger.WarnKV(p.ctx, "Failed to load alarm history", "error", err)
		}

		return
	}

	for _, alertID := range history.Recent {
		p.remember(alertID)
	}

	p.last = history.Last.Clone()

	logger.DebugKV(p.ctx, "Alarm history restored", "recent", len(p.recent))
}

// persist saves the history. Callers must hold mu.
func (p *Presenter) persist(ctx context.Context) {
	if p.history == nil {
		return
	}

	history := &domain.History{
		Recent: slices.Clone(p.recent),
		Last:   p.last.Clone(),
	}

	if err := p.history.Save(ctx, history); err != nil {
		logger.WarnKV(ctx, "Failed to save alarm history", "error", err)
	}
}

// Start begins ringing for the alert.
// A request arriving while an alarm rings is acknowledged without disturbing it.
// Any setup failure tears down what was already acquired and returns an error.
// The device volume is raised to maximum and is not restored afterwards.
func (p *Presenter) Start(ctx context.Context, req StartRequest) (*StartOutcome, error) {
	alertID := req.AlertID
	if alertID == "" {
		alertID = uuid.NewString()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil {
		active := p.current.info.Clone()

		if active.AlertID == alertID {
			logger.InfoKV(ctx, "Alert is already ringing", "alert_id", alertID)

			return &StartOutcome{Duplicate: true, Session: active}, nil
		}

		logger.WarnKV(ctx, "Another alarm is ringing, ignoring start", "alert_id", alertID, "active_alert_id", active.AlertID)

		return &StartOutcome{AlreadyActive: true, Session: active}, nil
	}

	if slices.Contains(p.recent, alertID) {
		logger.InfoKV(ctx, "Alert was already presented", "alert_id", alertID)

		return &StartOutcome{Duplicate: true}, nil
	}

	p.generation++

	now := p.clock.Now()
	s := &session{
		generation: p.generation,
		info: domain.Session{
			AlertID:   alertID,
			Subject:   req.Subject,
			StartedAt: now,
			Deadline:  now.Add(p.timeout),
		},
	}

	p.current = s
	p.phase = domain.PhaseAlerting

	// Device resources must outlive the request that started them.
	deviceCtx := logger.Detach(logger.WithKV(ctx, "alert_id", alertID))

	if err := p.setup(deviceCtx, s); err != nil {
		logger.ErrorKV(ctx, "Failed to start critical alert", "alert_id", alertID, "error", err)

		p.stopLocked(deviceCtx, domain.EndSetupFailed)

		return nil, fmt.Errorf("%w: %w", ErrSetupFailed, err)
	}

	logger.InfoKV(ctx, "Critical alert started", "alert_id", alertID, "deadline", s.info.Deadline)

	return &StartOutcome{Started: true, Session: s.info.Clone()}, nil
}

// setup acquires the alarm resources in order and arms the deadline last.
func (p *Presenter) setup(ctx context.Context, s *session) error {
	if err := guard(func() error { return p.device.Notifier.EnsureChannel(ctx, AlarmChannel()) }); err != nil {
		return fmt.Errorf("ensure notification channel: %w", err)
	}

	if err := guard(func() error { return p.device.Volume.MaximizeAlarmVolume(ctx) }); err != nil {
		return fmt.Errorf("maximize alarm volume: %w", err)
	}

	err := guard(func() error {
		playback, err := p.device.Player.PlayLooping(ctx, p.sound)
		s.playback = playback

		return err
	})
	if err != nil {
		return fmt.Errorf("start playback: %w", err)
	}

	if err = guard(func() error { return p.device.Notifier.Post(ctx, p.notification(s)) }); err != nil {
		return fmt.Errorf("post notification: %w", err)
	}

	s.notified = true

	err = guard(func() error {
		elevation, err := p.device.Foreground.Elevate(ctx)
		s.elevation = elevation

		return err
	})
	if err != nil {
		return fmt.Errorf("elevate to foreground: %w", err)
	}

	generation := s.generation
	s.timer = p.clock.AfterFunc(p.timeout, func() {
		p.expire(generation)
	})

	return nil
}

// notification builds the ongoing alarm notification for s.
func (p *Presenter) notification(s *session) Notification {
	body := notificationBody
	if s.info.Subject != "" {
		body = fmt.Sprintf("%s\n%s", body, s.info.Subject)
	}

	return Notification{
		ID:       NotificationID,
		Channel:  ChannelID,
		AlertID:  s.info.AlertID,
		Title:    notificationTitle,
		Body:     body,
		Category: CategoryAlarm,
		Priority: PriorityMax,
		Ongoing:  true,
		Actions: []Action{
			{ID: ActionOpen, Label: "Open"},
			{ID: ActionDismiss, Label: "DISMISS"},
		},
	}
}

// Stop ends the running alarm. It is safe to call when idle.
// It returns the finished session, or nil if nothing was ringing.
func (p *Presenter) Stop(ctx context.Context) *domain.Session {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.stopLocked(logger.Detach(ctx), domain.EndDismissed)
}

// Dismiss stops the alarm only if it is presenting alertID.
// A stale dismiss action from an earlier notification leaves a newer alarm ringing.
func (p *Presenter) Dismiss(ctx context.Context, alertID string) *domain.Session {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil || p.current.info.AlertID != alertID {
		logger.DebugKV(ctx, "Ignoring dismiss for an alert that is not ringing", "alert_id", alertID)

		return nil
	}

	return p.stopLocked(logger.Detach(ctx), domain.EndDismissed)
}

// HandleAction reacts to a notification action. DISMISS stops the alarm it was
// posted for; open only brings the host forward and leaves the alarm ringing.
// It satisfies ActionHandler.
func (p *Presenter) HandleAction(ctx context.Context, alertID, actionID string) {
	switch actionID {
	case ActionDismiss:
		p.Dismiss(ctx, alertID)
	case ActionOpen:
		logger.InfoKV(ctx, "Alarm notification opened", "alert_id", alertID)
	default:
		logger.DebugKV(ctx, "Ignoring unknown notification action", "alert_id", alertID, "action", actionID)
	}
}

// Shutdown stops any running alarm because the host is going away.
func (p *Presenter) Shutdown(ctx context.Context) *domain.Session {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.stopLocked(logger.Detach(ctx), domain.EndShutdown)
}

// State returns a snapshot of the alarm status.
func (p *Presenter) State() *domain.State {
	p.mu.Lock()
	defer p.mu.Unlock()

	state := &domain.State{
		Phase: p.phase,
		Last:  p.last,
	}

	if p.current != nil {
		state.Current = &p.current.info
	}

	return state.Clone()
}

// expire is the deadline callback for the session with the given generation.
func (p *Presenter) expire(generation uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil || p.current.generation != generation {
		return
	}

	logger.InfoKV(p.ctx, "Alarm deadline reached", "alert_id", p.current.info.AlertID)

	p.stopLocked(p.ctx, domain.EndExpired)
}

// stopLocked releases every resource of the current session. Each release is
// attempted regardless of earlier failures. Callers must hold mu.
func (p *Presenter) stopLocked(ctx context.Context, reason domain.EndReason) *domain.Session {
	s := p.current
	if s == nil {
		return nil
	}

	p.phase = domain.PhaseStopping

	if s.timer != nil {
		s.timer.Stop()
	}

	var errs error

	if s.playback != nil {
		errs = multierr.Append(errs, guard(s.playback.Stop))
		errs = multierr.Append(errs, guard(s.playback.Release))
	}

	if s.notified {
		errs = multierr.Append(errs, guard(func() error { return p.device.Notifier.Cancel(ctx, NotificationID) }))
	}

	if s.elevation != nil {
		errs = multierr.Append(errs, guard(s.elevation.Release))
	}

	for _, err := range multierr.Errors(errs) {
		logger.WarnKV(ctx, "Failed to release alarm resource", "alert_id", s.info.AlertID, "error", err)
	}

	ended := s.info
	ended.EndedAt = p.clock.Now()
	ended.Reason = reason

	p.last = &ended
	p.current = nil
	p.phase = domain.PhaseIdle

	if reason != domain.EndSetupFailed {
		p.remember(ended.AlertID)
	}

	p.persist(ctx)

	logger.InfoKV(ctx, "Critical alert stopped", "alert_id", ended.AlertID, "reason", reason)

	return ended.Clone()
}

// remember records alertID among the recently presented ids.
func (p *Presenter) remember(alertID string) {
	if slices.Contains(p.recent, alertID) {
		return
	}

	if len(p.recent) == recentCapacity {
		p.recent = slices.Delete(p.recent, 0, 1)
	}

	p.recent = append(p.recent, alertID)
}

// guard runs fn and turns a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errPanic, r)
		}
	}()

	return fn()
}
