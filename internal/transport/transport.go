// Package transport defines the BLE transport contract consumed by the
// base-station protocol core. Implementations live in subpackages (goble
// for the production go-ble stack); tests substitute their own.
package transport

import (
	"context"
	"time"
)

// Transport establishes connections to BLE peripherals by address.
type Transport interface {
	Dial(ctx context.Context, address string) (Conn, error)
}

// Conn represents a live link to a peripheral. Read and Write may be used
// concurrently once the connection is established; Close tears the link
// down and invalidates the handle.
type Conn interface {
	// IsLive reports whether the underlying link is still up.
	IsLive() bool

	// ReadCharacteristic reads the current value of the characteristic
	// identified by uuid (short or full form, case-insensitive).
	ReadCharacteristic(uuid string) ([]byte, error)

	// WriteCharacteristic writes data to the characteristic identified by
	// uuid. When withResponse is false the write is fire-and-forget: success
	// means the transport accepted the write, not that the device applied it.
	WriteCharacteristic(uuid string, data []byte, withResponse bool) error

	Close() error
}

// Scanner produces advertisement sightings until ctx is done.
type Scanner interface {
	Scan(ctx context.Context, allowDup bool, handler func(Advertisement)) error
}

// Advertisement is a single sighting of a broadcasting device.
type Advertisement interface {
	Addr() string
	LocalName() string
	ManufacturerData() []byte
	// ManufacturerID returns the company identifier from the manufacturer
	// data block; ok is false when the block is absent or too short.
	ManufacturerID() (id uint16, ok bool)
	RSSI() int
	Connectable() bool
}

// DialOptions configures connection establishment.
type DialOptions struct {
	ConnectTimeout time.Duration
	// DialAttempts bounds the internal retry on recoverable
	// link-establishment failures.
	DialAttempts int
}

// DefaultDialOptions returns the production defaults.
func DefaultDialOptions() *DialOptions {
	return &DialOptions{
		ConnectTimeout: 30 * time.Second,
		DialAttempts:   3,
	}
}
