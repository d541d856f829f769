package goble

import (
	"context"
	"encoding/binary"

	"github.com/go-ble/ble"
	"github.com/srg/lhbctl/internal/transport"
)

// bleScanner wraps ble.Device to implement the transport.Scanner interface
type bleScanner struct {
	dev ble.Device
}

// Scan wraps the raw ble.Device.Scan to convert ble.Advertisement to the
// transport.Advertisement
func (s *bleScanner) Scan(ctx context.Context, allowDup bool, handler func(transport.Advertisement)) error {
	bleHandler := func(adv ble.Advertisement) {
		handler(&bleAdvertisement{adv: adv})
	}
	if err := s.dev.Scan(ctx, allowDup, bleHandler); err != nil {
		return transport.NormalizeError(err)
	}
	return nil
}

// NewScanner creates a transport.Scanner instance for BLE scanning operations.
func NewScanner() (transport.Scanner, error) {
	dev, err := DeviceFactory()
	if err != nil {
		return nil, transport.NormalizeError(err)
	}
	return &bleScanner{dev: dev}, nil
}

// bleAdvertisement wraps ble.Advertisement to implement transport.Advertisement
type bleAdvertisement struct {
	adv ble.Advertisement
}

func (a *bleAdvertisement) Addr() string             { return a.adv.Addr().String() }
func (a *bleAdvertisement) LocalName() string        { return a.adv.LocalName() }
func (a *bleAdvertisement) ManufacturerData() []byte { return a.adv.ManufacturerData() }
func (a *bleAdvertisement) RSSI() int                { return a.adv.RSSI() }
func (a *bleAdvertisement) Connectable() bool        { return a.adv.Connectable() }

// ManufacturerID extracts the little-endian company identifier that leads
// the manufacturer data block.
func (a *bleAdvertisement) ManufacturerID() (uint16, bool) {
	md := a.adv.ManufacturerData()
	if len(md) < 2 {
		return 0, false
	}
	return binary.LittleEndian.Uint16(md[:2]), true
}
