package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/lhbctl/internal/transport"
	"github.com/srg/lhbctl/pkg/basestation"
	"github.com/stretchr/testify/assert"
)

func TestFormatVersion(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1.2.3", "v1.2.3"},
		{"v1.2.3", "v1.2.3"},
		{"dev", "dev"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, formatVersion(tt.input))
	}
}

func TestConfigureLogger(t *testing.T) {
	newCmd := func() *cobra.Command {
		cmd := &cobra.Command{}
		cmd.Flags().String("log-level", "", "")
		cmd.Flags().Bool("verbose", false, "")
		return cmd
	}

	t.Run("silent by default", func(t *testing.T) {
		logger, err := configureLogger(newCmd(), "verbose")
		assert.NoError(t, err)
		assert.Equal(t, logrus.PanicLevel, logger.GetLevel())
	})

	t.Run("verbose flag maps to debug", func(t *testing.T) {
		cmd := newCmd()
		assert.NoError(t, cmd.Flags().Set("verbose", "true"))

		logger, err := configureLogger(cmd, "verbose")
		assert.NoError(t, err)
		assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	})

	t.Run("log-level wins over verbose", func(t *testing.T) {
		cmd := newCmd()
		assert.NoError(t, cmd.Flags().Set("verbose", "true"))
		assert.NoError(t, cmd.Flags().Set("log-level", "warn"))

		logger, err := configureLogger(cmd, "verbose")
		assert.NoError(t, err)
		assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
	})

	t.Run("unknown level is an error", func(t *testing.T) {
		cmd := newCmd()
		assert.NoError(t, cmd.Flags().Set("log-level", "chatty"))

		_, err := configureLogger(cmd, "verbose")
		assert.Error(t, err)
	})
}

func TestParsePowerArg(t *testing.T) {
	t.Run("on and off aliases", func(t *testing.T) {
		p, err := parsePowerArg("on")
		assert.NoError(t, err)
		assert.Equal(t, basestation.PowerAwake, p)

		p, err = parsePowerArg("off")
		assert.NoError(t, err)
		assert.Equal(t, basestation.PowerSleeping, p)
	})

	t.Run("raw state names", func(t *testing.T) {
		p, err := parsePowerArg("standby")
		assert.NoError(t, err)
		assert.Equal(t, basestation.PowerStandby, p)
	})

	t.Run("unknown names are rejected", func(t *testing.T) {
		_, err := parsePowerArg("half-on")
		assert.Error(t, err)
	})
}

func TestFormatUserError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "validation error passes through",
			err:      &basestation.ValidationError{Field: "channel", Msg: "must be between 1 and 16"},
			expected: "invalid channel: must be between 1 and 16",
		},
		{
			name:     "dial failure suggests range check",
			err:      fmt.Errorf("connect: %w", transport.ErrDialFailed),
			expected: "connect: dial_failed - is the base station powered and in range?",
		},
		{
			name:     "busy link suggests competing client",
			err:      transport.ErrBusy,
			expected: "busy - another client may be connected",
		},
		{
			name:     "missing characteristic flags the wrong device",
			err:      &transport.NotFoundError{Resource: "characteristic", UUID: "2a25"},
			expected: `characteristic "2a25" not found - this device does not look like a base station`,
		},
		{
			name:     "unknown errors pass through unchanged",
			err:      errors.New("something odd"),
			expected: "something odd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatUserError(tt.err))
		})
	}
}
