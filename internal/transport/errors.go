package transport

import (
	"errors"
	"fmt"
	"strings"
)

// LinkErrorKind classifies connection-related failures.
type LinkErrorKind string

const (
	// DialFailed means the transport could not establish a link after its
	// retry budget. Not transient: the caller's own retry envelope decides.
	DialFailed LinkErrorKind = "dial_failed"
	// NotConnected means an operation was attempted on a dead or absent handle.
	NotConnected LinkErrorKind = "not_connected"
	// LinkDropped means the link went away mid-operation.
	LinkDropped LinkErrorKind = "link_dropped"
	// Busy means the radio rejected the operation transiently.
	Busy LinkErrorKind = "busy"
)

// ConnectionError represents any connection-related problem.
type ConnectionError struct {
	Kind LinkErrorKind
	Msg  string
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is allows errors.Is to compare ConnectionError values by Kind.
func (e *ConnectionError) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*ConnectionError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Predefined sentinel errors for link failure kinds.
var (
	ErrDialFailed   = &ConnectionError{Kind: DialFailed}
	ErrNotConnected = &ConnectionError{Kind: NotConnected}
	ErrLinkDropped  = &ConnectionError{Kind: LinkDropped}
	ErrBusy         = &ConnectionError{Kind: Busy}
)

// NotFoundError reports a missing GATT resource. Never transient: retrying
// will not make a characteristic appear.
type NotFoundError struct {
	Resource string // "service", "characteristic"
	UUID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.UUID)
}

// IsTransient reports whether err is a recoverable mid-operation link issue
// worth retrying through a fresh connect cycle.
func IsTransient(err error) bool {
	var cerr *ConnectionError
	if errors.As(err, &cerr) {
		return cerr.Kind == LinkDropped || cerr.Kind == Busy
	}
	return false
}

// NormalizeError maps known go-ble error strings to structured ConnectionError
// kinds. It ensures consistent classification even if the upstream library
// changes messages slightly. Returns wrapped errors to preserve original context.
func NormalizeError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	switch {
	case containsIgnoreCase(msg, "device not connected"),
		containsIgnoreCase(msg, "connection canceled"),
		containsIgnoreCase(msg, "disconnected"):
		return fmt.Errorf("%w: %v", ErrLinkDropped, err)
	case containsIgnoreCase(msg, "busy"),
		containsIgnoreCase(msg, "request timed out"):
		return fmt.Errorf("%w: %v", ErrBusy, err)
	case containsIgnoreCase(msg, "connection is not initialized"):
		return fmt.Errorf("%w: %v", ErrNotConnected, err)
	default:
		return err
	}
}

// containsIgnoreCase checks substring case-insensitively.
func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
