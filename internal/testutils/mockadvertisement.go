package testutils

import "encoding/binary"

// MockAdvertisement is a canned advertisement sighting.
type MockAdvertisement struct {
	Address    string
	Name       string
	ManufData  []byte
	Rssi       int
	CanConnect bool
}

func (a *MockAdvertisement) Addr() string             { return a.Address }
func (a *MockAdvertisement) LocalName() string        { return a.Name }
func (a *MockAdvertisement) ManufacturerData() []byte { return a.ManufData }
func (a *MockAdvertisement) RSSI() int                { return a.Rssi }
func (a *MockAdvertisement) Connectable() bool        { return a.CanConnect }

func (a *MockAdvertisement) ManufacturerID() (uint16, bool) {
	if len(a.ManufData) < 2 {
		return 0, false
	}
	return binary.LittleEndian.Uint16(a.ManufData[:2]), true
}

// NewAdvertisement builds a sighting with the given company identifier
// encoded little-endian at the head of the manufacturer data block.
func NewAdvertisement(address, name string, manufacturerID uint16, rssi int) *MockAdvertisement {
	md := make([]byte, 2)
	binary.LittleEndian.PutUint16(md, manufacturerID)
	return &MockAdvertisement{
		Address:    address,
		Name:       name,
		ManufData:  md,
		Rssi:       rssi,
		CanConnect: true,
	}
}
