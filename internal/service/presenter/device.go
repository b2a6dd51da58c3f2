package presenter

import (
	"context"
	"errors"
)

// Notification channel and action identifiers.
const (
	ChannelID      = "CriticalAlertChannel"
	ActionOpen     = "open"
	ActionDismiss  = "dismiss"
	CategoryAlarm  = "alarm"
	PriorityMax    = "max"
	NotificationID = "critical-alert"
)

// Channel describes the notification channel alarms are posted to.
type Channel struct {
	ID          string
	Name        string
	Description string
	// Importance is "high" for critical alerts.
	Importance string
	Lights     bool
	Vibration  bool
	Badge      bool
}

// Action is a button attached to a notification.
type Action struct {
	ID    string
	Label string
}

// Notification is the persistent alarm notification.
type Notification struct {
	ID       string
	Channel  string
	AlertID  string
	Title    string
	Body     string
	Category string
	Priority string
	// Ongoing notifications cannot be swiped away.
	Ongoing bool
	Actions []Action
}

// ActionHandler receives the action a user chose on the alarm notification
// posted for alertID.
type ActionHandler func(ctx context.Context, alertID, actionID string)

// Volume raises the device alarm volume.
type Volume interface {
	MaximizeAlarmVolume(ctx context.Context) error
}

// Playback is a running looping sound.
type Playback interface {
	Stop() error
	Release() error
}

// Player starts looping alarm playback.
type Player interface {
	PlayLooping(ctx context.Context, sound string) (Playback, error)
}

// Notifier posts and clears notifications.
type Notifier interface {
	EnsureChannel(ctx context.Context, channel Channel) error
	Post(ctx context.Context, notification Notification) error
	Cancel(ctx context.Context, id string) error
}

// Elevation is a held foreground elevation.
type Elevation interface {
	Release() error
}

// Foreground elevates the hosting process while an alarm is running.
type Foreground interface {
	Elevate(ctx context.Context) (Elevation, error)
}

// Device bundles the capabilities the presenter needs.
type Device struct {
	Volume     Volume
	Player     Player
	Notifier   Notifier
	Foreground Foreground
}

// errIncompleteDevice is returned when a capability is missing.
var errIncompleteDevice = errors.New("device is missing a capability")

// validate checks that every capability is present.
func (d Device) validate() error {
	switch {
	case d.Volume == nil:
		return errors.Join(errIncompleteDevice, errors.New("volume"))
	case d.Player == nil:
		return errors.Join(errIncompleteDevice, errors.New("player"))
	case d.Notifier == nil:
		return errors.Join(errIncompleteDevice, errors.New("notifier"))
	case d.Foreground == nil:
		return errors.Join(errIncompleteDevice, errors.New("foreground"))
	}

	return nil
}

// AlarmChannel is the channel every alarm notification is posted to.
func AlarmChannel() Channel {
	return Channel{
		ID:          ChannelID,
		Name:        "Critical Alert Channel",
		Description: "Channel for critical emergency alerts",
		Importance:  "high",
		Lights:      true,
		Vibration:   true,
		Badge:       true,
	}
}
