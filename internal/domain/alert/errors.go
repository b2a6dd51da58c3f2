package alert

import "errors"

var (
	// ErrInvalidArgument marks malformed caller input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound marks a missing target record.
	ErrNotFound = errors.New("not found")
	// ErrFailedPrecondition marks a target that cannot be alerted as it stands,
	// e.g. no responders or no usable delivery address.
	ErrFailedPrecondition = errors.New("failed precondition")
	// ErrInternal marks any unexpected failure during resolution or send.
	ErrInternal = errors.New("internal error")
)
