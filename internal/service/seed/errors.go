package seed

import "errors"

// errInvalidSnapshot is returned for a snapshot that cannot be imported.
var errInvalidSnapshot = errors.New("invalid snapshot")
