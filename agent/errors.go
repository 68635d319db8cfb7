package agent

import "errors"

// ErrSessionNotFound is returned for operations on a conversation id with no
// live session.
var ErrSessionNotFound = errors.New("agent: session not found")
