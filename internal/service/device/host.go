package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	devices "github.com/oshokin/critical-alert/internal/device"
	domain "github.com/oshokin/critical-alert/internal/domain/alarm"
	"github.com/oshokin/critical-alert/internal/domain/alert"
	"github.com/oshokin/critical-alert/internal/logger"
	"github.com/oshokin/critical-alert/internal/service/presenter"
	"github.com/oshokin/critical-alert/internal/transport/push"
)

// Control surface messages.
const (
	MessageStarted        = "Critical alert started successfully"
	MessageAlreadyActive  = "Critical alert already active"
	MessageStopped        = "Critical alert stopped successfully"
	MessageDelivered      = "Critical alert delivered"
	MessageAlreadyHandled = "Critical alert already presented"

	messagePermissionDenied      = "Notification policy permission not granted. Please grant notification policy access."
	messageAudioPermissionDenied = "Audio settings permission required for volume control. Please grant permission."
)

// Prober checks the host permissions an alarm needs.
type Prober interface {
	Probe(ctx context.Context) error
}

// Presenter is the alarm state machine the host drives.
type Presenter interface {
	Start(ctx context.Context, req presenter.StartRequest) (*presenter.StartOutcome, error)
	Stop(ctx context.Context) *domain.Session
	State() *domain.State
}

// Host is the device-local control surface. Permissions are checked here,
// before the presenter is asked to ring.
type Host struct {
	presenter Presenter
	prober    Prober
}

// NewHost returns a host. A nil prober means permissions are assumed granted.
func NewHost(p Presenter, prober Prober) *Host {
	return &Host{presenter: p, prober: prober}
}

// StartCriticalAlert rings for alertID, or for a locally raised alarm when it is empty.
func (h *Host) StartCriticalAlert(ctx context.Context, alertID string) (string, error) {
	return h.start(ctx, presenter.StartRequest{AlertID: alertID}, MessageStarted, MessageAlreadyActive)
}

// StopCriticalAlert stops any running alarm.
func (h *Host) StopCriticalAlert(ctx context.Context) (message string, err error) {
	defer func() {
		if r := recover(); r != nil {
			cause := fmt.Errorf("%v", r)
			err = &domain.ControlError{
				Code:    domain.CodeServiceError,
				Message: "Failed to stop critical alert service: " + cause.Error(),
				Err:     cause,
			}
		}
	}()

	if ended := h.presenter.Stop(ctx); ended == nil {
		logger.Debug(ctx, "Stop requested while no alarm was running")
	}

	return MessageStopped, nil
}

// DeliverAlert presents a pushed critical alert.
func (h *Host) DeliverAlert(ctx context.Context, data map[string]string) (string, error) {
	if kind := data[push.DataType]; kind != alert.TypeCriticalAlert {
		return "", fmt.Errorf("%w: unexpected type %q", domain.ErrInvalidDelivery, kind)
	}

	alertID := data[push.DataAlertID]
	if alertID == "" {
		return "", fmt.Errorf("%w: %s is required", domain.ErrInvalidDelivery, push.DataAlertID)
	}

	ctx = logger.WithKV(ctx, "alert_id", alertID, "triggered_by", data[push.DataTriggeredBy])

	req := presenter.StartRequest{
		AlertID: alertID,
		Subject: subjectFromStudentInfo(ctx, data[push.DataStudentInfo]),
	}

	return h.start(ctx, req, MessageDelivered, MessageAlreadyHandled)
}

// AlarmState returns the current alarm status.
func (h *Host) AlarmState(context.Context) *domain.State {
	return h.presenter.State()
}

func (h *Host) start(ctx context.Context, req presenter.StartRequest, started, ignored string) (string, error) {
	if err := h.checkPermissions(ctx); err != nil {
		return "", err
	}

	out, err := h.presenter.Start(ctx, req)
	if err != nil {
		return "", &domain.ControlError{
			Code:    domain.CodeServiceError,
			Message: "Failed to start critical alert service: " + err.Error(),
			Err:     err,
		}
	}

	if !out.Started {
		return ignored, nil
	}

	return started, nil
}

// checkPermissions maps a failed probe to the matching control error.
func (h *Host) checkPermissions(ctx context.Context) error {
	if h.prober == nil {
		return nil
	}

	err := h.prober.Probe(ctx)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, devices.ErrNotificationsUnavailable):
		logger.WarnKV(ctx, "Notification permission missing", "error", err)

		return &domain.ControlError{Code: domain.CodePermissionDenied, Message: messagePermissionDenied, Err: err}
	case errors.Is(err, devices.ErrAudioUnavailable):
		logger.WarnKV(ctx, "Audio settings permission missing", "error", err)

		return &domain.ControlError{Code: domain.CodeAudioPermissionDenied, Message: messageAudioPermissionDenied, Err: err}
	default:
		return &domain.ControlError{
			Code:    domain.CodeServiceError,
			Message: "Failed to start critical alert service: " + err.Error(),
			Err:     err,
		}
	}
}

// subjectFromStudentInfo extracts the name shown in the notification.
// A malformed snapshot still rings, just without a name.
func subjectFromStudentInfo(ctx context.Context, info string) string {
	if info == "" {
		return ""
	}

	var target alert.Target
	if err := json.Unmarshal([]byte(info), &target); err != nil {
		logger.WarnKV(ctx, "Malformed student info in alert", "error", err)

		return ""
	}

	return target.FullName.String()
}
