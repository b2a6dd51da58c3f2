package trigger

import "errors"

// errUndelivered is returned when no responder device accepted the alert.
var errUndelivered = errors.New("alert was not delivered to any device")
