package transport

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectionErrorIs(t *testing.T) {
	err := fmt.Errorf("read failed: %w", &ConnectionError{Kind: LinkDropped, Msg: "peer went away"})

	assert.True(t, errors.Is(err, ErrLinkDropped), "wrapped errors MUST match the sentinel by kind")
	assert.False(t, errors.Is(err, ErrBusy))
	assert.False(t, errors.Is(err, errors.New("link_dropped")))
}

func TestConnectionErrorMessage(t *testing.T) {
	assert.Equal(t, "link_dropped", ErrLinkDropped.Error())
	assert.Equal(t, "busy: radio saturated", (&ConnectionError{Kind: Busy, Msg: "radio saturated"}).Error())
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "link dropped", err: ErrLinkDropped, expected: true},
		{name: "busy", err: ErrBusy, expected: true},
		{name: "wrapped transient", err: fmt.Errorf("op: %w", ErrBusy), expected: true},
		{name: "dial failed", err: ErrDialFailed, expected: false},
		{name: "not connected", err: ErrNotConnected, expected: false},
		{name: "not found", err: &NotFoundError{Resource: "characteristic", UUID: "2a25"}, expected: false},
		{name: "plain error", err: errors.New("boom"), expected: false},
		{name: "nil", err: nil, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsTransient(tt.err))
		})
	}
}

func TestNormalizeError(t *testing.T) {
	tests := []struct {
		name     string
		input    error
		expected error
	}{
		{name: "device not connected", input: errors.New("ATT request failed: device not connected"), expected: ErrLinkDropped},
		{name: "connection canceled", input: errors.New("connection canceled"), expected: ErrLinkDropped},
		{name: "disconnected", input: errors.New("peripheral Disconnected"), expected: ErrLinkDropped},
		{name: "busy", input: errors.New("device Busy"), expected: ErrBusy},
		{name: "request timed out", input: errors.New("request timed out"), expected: ErrBusy},
		{name: "not initialized", input: errors.New("connection is not initialized"), expected: ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NormalizeError(tt.input)
			assert.True(t, errors.Is(err, tt.expected), "MUST classify as %v", tt.expected)
			assert.Contains(t, err.Error(), tt.input.Error(), "the original message MUST be preserved")
		})
	}

	t.Run("unknown errors pass through untouched", func(t *testing.T) {
		original := errors.New("some other failure")
		assert.Equal(t, original, NormalizeError(original))
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, NormalizeError(nil))
	})
}
