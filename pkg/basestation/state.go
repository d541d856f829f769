// Package basestation implements the BLE control protocol for SteamVR /
// Valve Index tracking base stations: session management, typed
// characteristic operations, and a cached device-state snapshot.
package basestation

import "fmt"

// Advertisement filter constants. Base stations advertise with the Valve
// company identifier and an "LHB-"-prefixed local name.
const (
	ManufacturerID = 1373
	NamePrefix     = "LHB-"
)

// Standard Device Information characteristics (16-bit UUIDs, UTF-8 text).
const (
	CharModelID      = "2a24"
	CharSerialNumber = "2a25"
	CharSWVersion    = "2a26"
	CharManufacturer = "2a29"
)

// Vendor characteristics.
const (
	CharPower    = "00001525-1212-efde-1523-785feabcd124"
	CharIdentify = "00008421-1212-efde-1523-785feabcd124"
	CharChannel  = "00001524-1212-efde-1523-785feabcd124"
)

// Channel bounds. Channels identify the base station within a tracked
// volume; the device accepts 1 through 16.
const (
	ChannelMin = 1
	ChannelMax = 16
)

// identifyTrigger is the byte written to CharIdentify to start the
// identify blink.
const identifyTrigger = 0x01

// PowerState is the device power mode as carried on the wire.
type PowerState byte

const (
	PowerSleeping           PowerState = 0x00
	PowerAwake              PowerState = 0x01
	PowerStandby            PowerState = 0x02
	PowerAwakeAfterSleeping PowerState = 0x09
	PowerAwakeAfterStandby  PowerState = 0x0B
)

// DecodePowerState maps a wire byte to a PowerState. Unmapped values are a
// protocol decode error, never a guessed state.
func DecodePowerState(b byte) (PowerState, error) {
	switch p := PowerState(b); p {
	case PowerSleeping, PowerAwake, PowerStandby, PowerAwakeAfterSleeping, PowerAwakeAfterStandby:
		return p, nil
	default:
		return 0, &DecodeError{Characteristic: CharPower, Msg: fmt.Sprintf("unknown power state byte 0x%02x", b)}
	}
}

// Byte returns the wire value.
func (p PowerState) Byte() byte {
	return byte(p)
}

func (p PowerState) String() string {
	switch p {
	case PowerSleeping:
		return "sleeping"
	case PowerAwake:
		return "awake"
	case PowerStandby:
		return "standby"
	case PowerAwakeAfterSleeping:
		return "awake_after_sleeping"
	case PowerAwakeAfterStandby:
		return "awake_after_standby"
	default:
		return fmt.Sprintf("unknown(0x%02x)", byte(p))
	}
}

// ParsePowerState maps a state name (as printed by String) back to a
// PowerState. Used by the CLI.
func ParsePowerState(s string) (PowerState, error) {
	for _, p := range []PowerState{
		PowerSleeping, PowerAwake, PowerStandby, PowerAwakeAfterSleeping, PowerAwakeAfterStandby,
	} {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, &ValidationError{Field: "power", Msg: fmt.Sprintf("unknown power state %q", s)}
}

// State is an immutable snapshot of base-station state. Snapshots are
// replaced wholesale; derive changed copies via WithPower / WithChannel.
type State struct {
	Power     PowerState `json:"power"`
	Channel   int        `json:"channel"`
	SWVersion string     `json:"sw_version"`
}

// WithPower derives a new snapshot differing only in the power field.
func (s State) WithPower(p PowerState) State {
	s.Power = p
	return s
}

// WithChannel derives a new snapshot differing only in the channel field.
func (s State) WithChannel(n int) State {
	s.Channel = n
	return s
}

// ModelName converts a model number to a marketing name.
func ModelName(num string) string {
	models := map[string]string{
		"1004": "SteamVR Base Station 2.0",
	}

	if name, ok := models[num]; ok {
		return name
	}
	return "Unknown"
}
