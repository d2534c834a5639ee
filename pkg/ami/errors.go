package ami

import (
	"errors"
	"fmt"
)

// ErrMissingAction is returned by [Client.Send] when the action has no name.
var ErrMissingAction = errors.New("action name is required")

// ErrSessionClosed is the rejection given to requests still pending when the
// session is closed. Pending requests are never left unresolved on teardown.
var ErrSessionClosed = errors.New("session closed")

// ErrNotConnected is returned when a write is attempted without an open
// transport connection. Did you invoke [Client.Connect] or [Client.Login]?
var ErrNotConnected = errors.New("not connected to the manager interface")

// ErrAuthenticationFailed is returned when an action triggers an implicit
// login and the server refuses the configured credentials.
var ErrAuthenticationFailed = errors.New("authentication failed")

// ActionError is the rejection carried by a request whose response status is
// not Success. It affects only that request, never the connection.
type ActionError struct {
	ActionID string
	Message  string
}

func (e *ActionError) Error() string {
	if e.Message == "" {
		return "action failed"
	}
	return e.Message
}

// ConnectionError wraps a transport-level failure (refused, reset, timed
// out). It is fatal to the in-flight connect attempt and drives the
// reconnect policy.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection %s: %s", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
