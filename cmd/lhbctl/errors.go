package main

import (
	"errors"
	"fmt"

	"github.com/srg/lhbctl/internal/transport"
	"github.com/srg/lhbctl/pkg/basestation"
)

// FormatUserError turns internal errors into actionable messages.
func FormatUserError(err error) string {
	var verr *basestation.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}

	var derr *basestation.DecodeError
	if errors.As(err, &derr) {
		return fmt.Sprintf("unexpected device response (%v) - firmware may be unsupported", derr)
	}

	var cerr *transport.ConnectionError
	if errors.As(err, &cerr) {
		switch cerr.Kind {
		case transport.DialFailed:
			return fmt.Sprintf("%v - is the base station powered and in range?", err)
		case transport.Busy:
			return fmt.Sprintf("%v - another client may be connected", err)
		}
	}

	var nerr *transport.NotFoundError
	if errors.As(err, &nerr) {
		return fmt.Sprintf("%v - this device does not look like a base station", nerr)
	}

	return err.Error()
}
