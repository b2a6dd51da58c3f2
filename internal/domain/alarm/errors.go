package alarm

import "errors"

// Control error codes reported to the host application.
const (
	CodePermissionDenied      = "PERMISSION_DENIED"
	CodeAudioPermissionDenied = "AUDIO_PERMISSION_DENIED"
	CodeServiceError          = "SERVICE_ERROR"
)

var (
	// ErrInvalidDelivery is returned for push data that is not a critical alert.
	ErrInvalidDelivery = errors.New("invalid alert delivery")
	// ErrNoHistory is returned when no alarm history has been saved yet.
	ErrNoHistory = errors.New("alarm history not found")
)

// ControlError is a failure of the device control surface.
type ControlError struct {
	// Code is one of the Code constants.
	Code string
	// Message is shown to the user.
	Message string
	// Err is the underlying cause, if any.
	Err error
}

// Error implements error. Message already describes the cause.
func (e *ControlError) Error() string {
	return e.Code + ": " + e.Message
}

// Unwrap returns the cause.
func (e *ControlError) Unwrap() error {
	return e.Err
}

// AsControlError extracts a ControlError from err.
func AsControlError(err error) (*ControlError, bool) {
	var controlErr *ControlError
	if errors.As(err, &controlErr) {
		return controlErr, true
	}

	return nil, false
}
