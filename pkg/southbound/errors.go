package southbound

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnavailable        = errors.New("southbound dataplane unavailable")
	ErrNotConnected       = errors.New("engine session not connected")
	ErrConnection         = errors.New("engine connection failed")
	ErrBackendCommand     = errors.New("engine command failed")
	ErrProtocol           = errors.New("unexpected engine response")
	ErrDuplicateOrRefused = errors.New("engine refused to create interface")
	ErrTimeout            = errors.New("engine command timed out")
	ErrInvalidArgument    = errors.New("invalid argument")
)

// ConnectionError reports that no session could be established.
type ConnectionError struct {
	Target    string
	ClientTag string
	Err       error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to engine at %s as %q: %v", e.Target, e.ClientTag, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func (e *ConnectionError) Is(target error) bool { return target == ErrConnection }

// CommandError is a validated reply carrying a non-zero retval.
type CommandError struct {
	Command string
	Retval  int32
	Reason  string
}

func (e *CommandError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s failed: retval=%d", e.Command, e.Retval)
	}
	return fmt.Sprintf("%s failed: retval=%d (%s)", e.Command, e.Retval, e.Reason)
}

func (e *CommandError) Is(target error) bool { return target == ErrBackendCommand }

// ProtocolError means the reply did not have the shape the command expects,
// including replies without a status field.
type ProtocolError struct {
	Command string
	Got     string
	Reason  string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s (got %s)", e.Command, e.Reason, e.Got)
}

func (e *ProtocolError) Is(target error) bool { return target == ErrProtocol }

// RefusedError is returned when the engine accepted a create request but
// handed back the invalid index, typically because the name already exists.
type RefusedError struct {
	Command string
	Subject string
}

func (e *RefusedError) Error() string {
	return fmt.Sprintf("%s %q: engine returned an invalid sw_if_index (duplicate or refused)", e.Command, e.Subject)
}

func (e *RefusedError) Is(target error) bool { return target == ErrDuplicateOrRefused }

type TimeoutError struct {
	Command string
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: no reply within %s", e.Command, e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// AttachError describes a partially applied AddToBridge. Interfaces in
// Attached stay attached; NotAttempted were never sent to the engine.
type AttachError struct {
	BridgeDomain uint32
	Failed       Handle
	Attached     []Handle
	NotAttempted []Handle
	Err          error
}

func (e *AttachError) Error() string {
	return fmt.Sprintf("attach sw_if_index %s to bridge domain %d (attached=%v not_attempted=%v): %v",
		e.Failed, e.BridgeDomain, e.Attached, e.NotAttempted, e.Err)
}

func (e *AttachError) Unwrap() error { return e.Err }
