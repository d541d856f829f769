// Package goble implements the transport contract on top of go-ble/ble.
package goble

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/darwin"
	"github.com/sirupsen/logrus"
	"github.com/srg/lhbctl/internal/transport"
)

// DeviceFactory creates ble.Device instances (can be overridden in tests)
var DeviceFactory = func() (ble.Device, error) {
	dev, err := darwin.NewDevice()
	if err != nil {
		// Wrap Bluetooth state errors with clearer messages
		if strings.Contains(err.Error(), "central manager has invalid state") {
			if strings.Contains(err.Error(), "have=4") { // StatePoweredOff
				return nil, fmt.Errorf("Bluetooth is turned off - please enable Bluetooth and retry")
			}
			return nil, fmt.Errorf("Bluetooth is not ready - %w", err)
		}
		return nil, err
	}
	return dev, nil
}

// normalizeUUID converts a UUID string to the internal BLE library format
// (lowercase, no dashes). Handles both the standard dashed form and the
// already normalized form.
func normalizeUUID(uuid string) string {
	return strings.ToLower(strings.ReplaceAll(uuid, "-", ""))
}

// Transport dials BLE peripherals through the default go-ble device.
type Transport struct {
	opts   *transport.DialOptions
	logger *logrus.Logger

	initOnce sync.Once
	initErr  error
}

// NewTransport creates a go-ble backed transport.
func NewTransport(opts *transport.DialOptions, logger *logrus.Logger) *Transport {
	if opts == nil {
		opts = transport.DefaultDialOptions()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Transport{opts: opts, logger: logger}
}

// initDevice creates and registers the default ble.Device once per process.
func (t *Transport) initDevice() error {
	t.initOnce.Do(func() {
		dev, err := DeviceFactory()
		if err != nil {
			t.initErr = fmt.Errorf("failed to create BLE device: %w", err)
			return
		}
		ble.SetDefaultDevice(dev)
	})
	return t.initErr
}

// Dial connects to the peripheral at address and discovers its GATT profile.
// Recoverable link-establishment failures are retried up to the configured
// attempt budget; exhaustion surfaces as a DialFailed connection error.
func (t *Transport) Dial(ctx context.Context, address string) (transport.Conn, error) {
	if strings.TrimSpace(address) == "" {
		return nil, fmt.Errorf("%w: device address is not set", transport.ErrDialFailed)
	}

	if err := t.initDevice(); err != nil {
		return nil, err
	}

	attempts := t.opts.DialAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		conn, err := t.dialOnce(ctx, address)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		if ctx.Err() != nil || !transport.IsTransient(err) {
			break
		}
		t.logger.WithFields(logrus.Fields{
			"address": address,
			"attempt": attempt,
			"error":   err,
		}).Warn("Connection attempt failed, retrying")
	}

	return nil, fmt.Errorf("%w: %q after %d attempts: %v",
		transport.ErrDialFailed, address, attempts, lastErr)
}

func (t *Transport) dialOnce(ctx context.Context, address string) (transport.Conn, error) {
	t.logger.WithField("address", address).Info("Connecting to BLE device...")

	connCtx, cancel := context.WithTimeout(ctx, t.opts.ConnectTimeout)
	defer cancel()

	client, err := ble.Dial(connCtx, ble.NewAddr(address))
	if err != nil {
		return nil, transport.NormalizeError(err)
	}

	profile, err := client.DiscoverProfile(true)
	if err != nil {
		client.CancelConnection()
		return nil, fmt.Errorf("failed to discover profile: %w", transport.NormalizeError(err))
	}

	// Index characteristics by normalized UUID for direct lookup
	chars := make(map[string]*ble.Characteristic)
	for _, svc := range profile.Services {
		for _, char := range svc.Characteristics {
			chars[normalizeUUID(char.UUID.String())] = char
		}
	}

	t.logger.WithFields(logrus.Fields{
		"address":         address,
		"characteristics": len(chars),
	}).Info("BLE device connected")

	return &bleConn{
		client: client,
		chars:  chars,
		logger: t.logger,
	}, nil
}
