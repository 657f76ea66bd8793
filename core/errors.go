package core

import "errors"

// ErrSessionNotFound is returned when an operation references a session key
// that was never created. It signals a caller contract violation and is never
// masked by higher layers.
var ErrSessionNotFound = errors.New("session not found")
