package device

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/oshokin/critical-alert/internal/logger"
	"github.com/oshokin/critical-alert/internal/service/presenter"
)

const (
	appName = "critical-alert"
	// replayDelay throttles restarts of a player that keeps failing
	// or finishes its sound in less than replayDelay.
	replayDelay = time.Second
	// dialogButtonPrefix precedes the chosen button in osascript dialog output.
	dialogButtonPrefix = "button returned:"

	linuxDefaultSound  = "/usr/share/sounds/freedesktop/stereo/alarm-clock-elapsed.oga"
	darwinDefaultSound = "/System/Library/Sounds/Sosumi.aiff"
)

var (
	// ErrUnsupportedOS indicates the current OS has no desktop backend.
	ErrUnsupportedOS = errors.New("unsupported operating system")
	// ErrAudioUnavailable means the volume cannot be changed or no player was found.
	ErrAudioUnavailable = errors.New("audio playback is not available")
	// ErrNotificationsUnavailable means notifications cannot be posted.
	ErrNotificationsUnavailable = errors.New("notifications are not available")

	errNotificationNotShown = errors.New("notifier exited without a notification id")
)

// commands is the set of host tools the desktop backend drives.
type commands struct {
	player   string
	notifier string
	volume   []string
	play     func(sound string) []string
	// notify runs for as long as the notification is shown and prints
	// the chosen actions on its standard output.
	notify func(n presenter.Notification) []string
	// notifyPrintsID is true when notify prints an id that cancel accepts
	// before anything else.
	notifyPrintsID bool
	// action maps an output line of notify to an action id, "" if none.
	action func(line string, actions []presenter.Action) string
	// cancel is nil when posted notifications cannot be withdrawn.
	cancel  func(id string) []string
	inhibit []string
}

// linuxCommands uses ALSA, PulseAudio, libnotify and systemd.
func linuxCommands() commands {
	return commands{
		player:   "paplay",
		notifier: "notify-send",
		volume:   []string{"amixer", "-q", "sset", "Master", "100%", "unmute"},
		play: func(sound string) []string {
			if sound == presenter.DefaultSound {
				sound = linuxDefaultSound
			}

			return []string{"paplay", sound}
		},
		notify: func(n presenter.Notification) []string {
			argv := []string{
				"notify-send",
				"--print-id",
				"--urgency=critical",
				"--expire-time=0",
				"--app-name=" + appName,
				"--category=" + n.Category,
				"--hint=string:x-alert-id:" + n.AlertID,
			}

			if n.Ongoing {
				argv = append(argv, "--hint=boolean:resident:true")
			}

			for _, a := range n.Actions {
				argv = append(argv, "--action="+a.ID+"="+a.Label)
			}

			if len(n.Actions) > 0 {
				argv = append(argv, "--wait")
			}

			return append(argv, n.Title, n.Body)
		},
		notifyPrintsID: true,
		action:         actionByID,
		cancel: func(id string) []string {
			return []string{
				"gdbus", "call", "--session",
				"--dest", "org.freedesktop.Notifications",
				"--object-path", "/org/freedesktop/Notifications",
				"--method", "org.freedesktop.Notifications.CloseNotification",
				id,
			}
		},
		inhibit: []string{
			"systemd-inhibit",
			"--what=idle:sleep",
			"--who=" + appName,
			"--why=Critical alert in progress",
			"--mode=block",
			"sleep", "infinity",
		},
	}
}

// darwinCommands uses AppleScript and the bundled command line tools.
func darwinCommands() commands {
	return commands{
		player:   "afplay",
		notifier: "osascript",
		volume:   []string{"osascript", "-e", "set volume output volume 100 without output muted"},
		play: func(sound string) []string {
			if sound == presenter.DefaultSound {
				sound = darwinDefaultSound
			}

			return []string{"afplay", sound}
		},
		notify: func(n presenter.Notification) []string {
			if len(n.Actions) == 0 {
				script := fmt.Sprintf("display notification %s with title %s",
					strconv.Quote(n.Body), strconv.Quote(n.Title))

				return []string{"osascript", "-e", script}
			}

			// Notifications posted by osascript have no buttons, a dialog does.
			labels := make([]string, 0, len(n.Actions))
			for _, a := range n.Actions {
				labels = append(labels, strconv.Quote(a.Label))
			}

			script := fmt.Sprintf("display dialog %s with title %s buttons {%s} default button %s with icon caution",
				strconv.Quote(n.Body), strconv.Quote(n.Title),
				strings.Join(labels, ", "), labels[len(labels)-1])

			return []string{"osascript", "-e", script}
		},
		action: actionByLabel,
		inhibit: []string{"caffeinate", "-dimsu"},
	}
}

// Desktop drives the alarm with OS command line tools.
type Desktop struct {
	runner   Runner
	commands commands

	mu sync.Mutex
	// posted maps presenter notification ids to what is showing them.
	posted   map[string]*postedNotification
	onAction presenter.ActionHandler
}

// postedNotification is a notification on screen.
type postedNotification struct {
	// hostID is the id issued by the notification daemon, if any.
	hostID string
	// process keeps the notification up and reports its actions.
	process Process
}

// actionByID matches output that names the action id.
func actionByID(line string, actions []presenter.Action) string {
	for _, a := range actions {
		if a.ID == line {
			return a.ID
		}
	}

	return ""
}

// actionByLabel matches dialog output that names the button label.
func actionByLabel(line string, actions []presenter.Action) string {
	label, ok := strings.CutPrefix(line, dialogButtonPrefix)
	if !ok {
		return ""
	}

	for _, a := range actions {
		if a.Label == label {
			return a.ID
		}
	}

	return ""
}

// NewDesktop returns the backend for goos, usually runtime.GOOS.
func NewDesktop(goos string, runner Runner) (*Desktop, error) {
	var cmds commands

	switch strings.ToLower(goos) {
	case "linux":
		cmds = linuxCommands()
	case "darwin":
		cmds = darwinCommands()
	default:
		return nil, fmt.Errorf("%s: %w", goos, ErrUnsupportedOS)
	}

	if runner == nil {
		runner = ExecRunner{}
	}

	return &Desktop{
		runner:   runner,
		commands: cmds,
		posted:   make(map[string]*postedNotification),
	}, nil
}

// NewLocalDesktop returns the backend for the running OS.
func NewLocalDesktop() (*Desktop, error) {
	return NewDesktop(runtime.GOOS, ExecRunner{})
}

// Capabilities exposes the backend as a presenter device.
func (d *Desktop) Capabilities() presenter.Device {
	return presenter.Device{Volume: d, Player: d, Notifier: d, Foreground: d}
}

// Probe reports whether notifications can be posted and the volume can be changed.
func (d *Desktop) Probe(context.Context) error {
	if _, err := d.runner.LookPath(d.commands.notifier); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNotificationsUnavailable, d.commands.notifier, err)
	}

	mixer := d.commands.volume[0]
	if _, err := d.runner.LookPath(mixer); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrAudioUnavailable, mixer, err)
	}

	return nil
}

// MaximizeAlarmVolume unmutes the output and sets it to 100%.
func (d *Desktop) MaximizeAlarmVolume(ctx context.Context) error {
	if err := d.run(ctx, d.commands.volume); err != nil {
		return fmt.Errorf("set volume: %w", err)
	}

	return nil
}

// PlayLooping plays sound over and over until the playback is stopped.
func (d *Desktop) PlayLooping(ctx context.Context, sound string) (presenter.Playback, error) {
	if _, err := d.runner.LookPath(d.commands.player); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAudioUnavailable, err)
	}

	ctx, cancel := context.WithCancel(ctx)

	p := &loopPlayback{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go p.loop(ctx, d.runner, d.commands.play(sound))

	return p, nil
}

// EnsureChannel checks that the notifier exists. Desktop notifications have no channels.
func (d *Desktop) EnsureChannel(_ context.Context, channel presenter.Channel) error {
	if _, err := d.runner.LookPath(d.commands.notifier); err != nil {
		return fmt.Errorf("%w: channel %s: %w", ErrNotificationsUnavailable, channel.ID, err)
	}

	return nil
}

// OnAction sets the handler called when the user chooses a notification action.
func (d *Desktop) OnAction(handler presenter.ActionHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.onAction = handler
}

// Post shows the alarm notification and watches it for chosen actions.
func (d *Desktop) Post(ctx context.Context, n presenter.Notification) error {
	argv := d.commands.notify(n)

	process, out, err := d.runner.Pipe(ctx, argv[0], argv[1:]...)
	if err != nil {
		return fmt.Errorf("%s: %w", argv[0], err)
	}

	lines := bufio.NewScanner(out)
	posted := &postedNotification{process: process}

	if d.commands.notifyPrintsID {
		if !lines.Scan() {
			_ = process.Stop()
			_ = out.Close()

			return fmt.Errorf("%s: %w", argv[0], errNotificationNotShown)
		}

		posted.hostID = strings.TrimSpace(lines.Text())
	}

	d.mu.Lock()
	previous := d.posted[n.ID]
	d.posted[n.ID] = posted
	d.mu.Unlock()

	if previous != nil {
		if err = previous.process.Stop(); err != nil {
			logger.WarnKV(ctx, "Failed to withdraw replaced notification", "id", n.ID, "error", err)
		}
	}

	go d.watchActions(ctx, n, lines, out)

	return nil
}

// watchActions hands every action chosen on n to the action handler until
// the notifier exits.
func (d *Desktop) watchActions(ctx context.Context, n presenter.Notification, lines *bufio.Scanner, out io.Closer) {
	defer func() { _ = out.Close() }()

	for lines.Scan() {
		actionID := d.commands.action(strings.TrimSpace(lines.Text()), n.Actions)
		if actionID == "" {
			continue
		}

		d.mu.Lock()
		handler := d.onAction
		d.mu.Unlock()

		if handler == nil {
			logger.DebugKV(ctx, "No handler for notification action", "alert_id", n.AlertID, "action", actionID)

			continue
		}

		handler(ctx, n.AlertID, actionID)
	}
}

// Cancel withdraws a posted notification.
func (d *Desktop) Cancel(ctx context.Context, id string) error {
	d.mu.Lock()
	posted, ok := d.posted[id]
	delete(d.posted, id)
	d.mu.Unlock()

	if !ok {
		return nil
	}

	var errs error

	if d.commands.cancel != nil && posted.hostID != "" {
		if err := d.run(ctx, d.commands.cancel("uint32 "+posted.hostID)); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("close notification: %w", err))
		}
	}

	return multierr.Append(errs, posted.process.Stop())
}

// Elevate keeps the host awake until the returned elevation is released.
func (d *Desktop) Elevate(ctx context.Context) (presenter.Elevation, error) {
	argv := d.commands.inhibit

	process, err := d.runner.Start(ctx, argv[0], argv[1:]...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", argv[0], err)
	}

	return &processElevation{process: process}, nil
}

func (d *Desktop) run(ctx context.Context, argv []string) error {
	if err := d.runner.Run(ctx, argv[0], argv[1:]...); err != nil {
		return fmt.Errorf("%s: %w", argv[0], err)
	}

	return nil
}

// loopPlayback restarts the player every time the sound finishes.
type loopPlayback struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (p *loopPlayback) loop(ctx context.Context, runner Runner, argv []string) {
	defer close(p.done)

	for ctx.Err() == nil {
		started := time.Now()

		err := runner.Run(ctx, argv[0], argv[1:]...)
		if ctx.Err() != nil {
			return
		}

		if err != nil {
			logger.WarnKV(ctx, "Alarm sound failed, retrying", "player", argv[0], "error", err)
		} else if time.Since(started) >= replayDelay {
			continue
		}

		select {
		case <-ctx.Done():
		case <-time.After(replayDelay):
		}
	}
}

// Stop ends playback and waits for the player to exit.
func (p *loopPlayback) Stop() error {
	p.cancel()
	<-p.done

	return nil
}

// Release frees the playback. It stops it first if needed.
func (p *loopPlayback) Release() error {
	return p.Stop()
}

// processElevation holds an inhibitor process.
type processElevation struct {
	process Process
}

// Release stops the inhibitor.
func (e *processElevation) Release() error {
	return e.process.Stop()
}
