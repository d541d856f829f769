package basestation

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/srg/lhbctl/internal/transport"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Callback receives the new state snapshot whenever a write operation
// changes the cached state.
type Callback func(State)

// callbackHandle gives each registration a unique identity so unsubscribing
// removes exactly that registration, never a sibling.
type callbackHandle struct{ _ byte }

// Client maps the base station's characteristics to typed operations and
// maintains the authoritative cached state.
//
// Every completed operation releases the radio link: BLE links to these
// low-power beacons are flaky enough that a held connection risks silent
// staleness, so each interaction is a self-contained
// connect-operate-disconnect cycle.
type Client struct {
	session *Session
	logger  *logrus.Logger

	mu           sync.RWMutex
	name         string
	rssi         *int
	manufacturer string
	modelID      string
	serialNumber string
	state        *State

	cbMu      sync.Mutex
	callbacks *orderedmap.OrderedMap[*callbackHandle, Callback]
}

// NewClient creates a client on top of an existing session. The state is
// unknown until the first successful Update.
func NewClient(session *Session, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}
	return &Client{
		session:   session,
		logger:    logger,
		callbacks: orderedmap.New[*callbackHandle, Callback](),
	}
}

// SetAdvertisement refreshes the advertised name and signal strength from
// a new sighting. Independent of connection state.
func (c *Client) SetAdvertisement(adv transport.Advertisement) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if name := adv.LocalName(); name != "" {
		c.name = name
	}
	rssi := adv.RSSI()
	c.rssi = &rssi
}

// Address returns the BLE address.
func (c *Client) Address() string {
	return c.session.Address()
}

// Name returns the advertised name, falling back to the address.
func (c *Client) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.name != "" {
		return c.name
	}
	return c.session.Address()
}

// Manufacturer returns the manufacturer name, empty until bootstrapped.
func (c *Client) Manufacturer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.manufacturer
}

// ModelID returns the model number, empty until bootstrapped.
func (c *Client) ModelID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.modelID
}

// Model returns the marketing name for the model number.
func (c *Client) Model() string {
	return ModelName(c.ModelID())
}

// SerialNumber returns the serial number, empty until bootstrapped.
func (c *Client) SerialNumber() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serialNumber
}

// SWVersion returns the firmware version from the last snapshot.
func (c *Client) SWVersion() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state == nil {
		return ""
	}
	return c.state.SWVersion
}

// RSSI returns the signal strength from the most recent advertisement
// sighting; ok is false if none has been observed.
func (c *Client) RSSI() (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.rssi == nil {
		return 0, false
	}
	return *c.rssi, true
}

// State returns the last snapshot; ok is false before the first
// successful Update.
func (c *Client) State() (State, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state == nil {
		return State{}, false
	}
	return *c.state, true
}

// Channel returns the cached channel number, 0 when unknown.
func (c *Client) Channel() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state == nil {
		return 0
	}
	return c.state.Channel
}

// IsOn reports whether the base station is powered up: true unless power
// is standby or sleeping.
func (c *Client) IsOn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state == nil {
		return true
	}
	return c.state.Power != PowerStandby && c.state.Power != PowerSleeping
}

// Disconnect releases the session's connection, if any.
func (c *Client) Disconnect() error {
	return c.session.Disconnect()
}

// bootstrapped reports whether identity has been read. The serial number
// is read last during bootstrap, so its presence implies the whole set.
func (c *Client) bootstrapped() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serialNumber != ""
}

// Update reads identity (once per client lifetime) and the full mutable
// state, atomically replaces the cached snapshot, and returns it. The
// session is always disconnected afterward, success or failure. A failure
// at any read aborts without partial state mutation.
func (c *Client) Update(ctx context.Context) (State, error) {
	c.logger.WithFields(logrus.Fields{
		"name":    c.Name(),
		"address": c.Address(),
	}).Debug("Updating data")

	state, err := c.readAll(ctx)
	if err != nil {
		return State{}, err
	}

	c.mu.Lock()
	c.state = &state
	c.mu.Unlock()

	c.logger.WithFields(logrus.Fields{
		"name":    c.Name(),
		"address": c.Address(),
		"power":   state.Power.String(),
		"channel": state.Channel,
	}).Debug("Updated data")

	return state, nil
}

// readAll performs the read cycle. The deferred Disconnect guarantees the
// radio link is released even when a read or decode fails mid-cycle.
func (c *Client) readAll(ctx context.Context) (State, error) {
	defer func() {
		if err := c.session.Disconnect(); err != nil {
			c.logger.WithError(err).Warn("Disconnect after update failed")
		}
	}()

	if !c.bootstrapped() {
		if err := c.readIdentity(ctx); err != nil {
			return State{}, err
		}
	}

	raw, err := c.session.ReadCharacteristic(ctx, CharPower, false)
	if err != nil {
		return State{}, err
	}
	if len(raw) == 0 {
		return State{}, &DecodeError{Characteristic: CharPower, Msg: "empty value"}
	}
	power, err := DecodePowerState(raw[0])
	if err != nil {
		return State{}, err
	}

	raw, err = c.session.ReadCharacteristic(ctx, CharChannel, false)
	if err != nil {
		return State{}, err
	}
	channel := intFromBytes(raw)

	raw, err = c.session.ReadCharacteristic(ctx, CharSWVersion, false)
	if err != nil {
		return State{}, err
	}

	return State{
		Power:     power,
		Channel:   channel,
		SWVersion: string(raw),
	}, nil
}

// readIdentity fetches the immutable identity characteristics. Fields are
// stored as they arrive; the serial number lands last and marks the
// bootstrap complete, so a partial failure re-reads everything next time.
func (c *Client) readIdentity(ctx context.Context) error {
	modelID, err := c.session.ReadCharacteristic(ctx, CharModelID, false)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.modelID = string(modelID)
	c.mu.Unlock()

	manufacturer, err := c.session.ReadCharacteristic(ctx, CharManufacturer, false)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.manufacturer = string(manufacturer)
	c.mu.Unlock()

	serial, err := c.session.ReadCharacteristic(ctx, CharSerialNumber, false)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.serialNumber = string(serial)
	c.mu.Unlock()

	return nil
}

// SetPowerState writes the power mode and updates the cached snapshot's
// power field only.
func (c *Client) SetPowerState(ctx context.Context, power PowerState) error {
	c.logger.WithFields(logrus.Fields{
		"name":    c.Name(),
		"address": c.Address(),
		"power":   power.String(),
	}).Debug("Setting power state")

	err := c.session.WriteCharacteristic(ctx, CharPower, [][]byte{{power.Byte()}}, true)
	if err != nil {
		return err
	}

	c.replaceState(func(s State) State { return s.WithPower(power) })
	return nil
}

// SetPowerOn wakes the base station.
func (c *Client) SetPowerOn(ctx context.Context) error {
	return c.SetPowerState(ctx, PowerAwake)
}

// SetPowerOff puts the base station to sleep.
func (c *Client) SetPowerOff(ctx context.Context) error {
	return c.SetPowerState(ctx, PowerSleeping)
}

// SetChannel validates and writes the channel number. The device wakes
// itself on a channel change, so cached power is forced to awake as well.
func (c *Client) SetChannel(ctx context.Context, channel int) error {
	if channel < ChannelMin || channel > ChannelMax {
		return &ValidationError{
			Field: "channel",
			Msg:   "must be between 1 and 16",
		}
	}

	c.logger.WithFields(logrus.Fields{
		"name":    c.Name(),
		"address": c.Address(),
		"channel": channel,
	}).Debug("Setting channel")

	err := c.session.WriteCharacteristic(ctx, CharChannel, [][]byte{{byte(channel)}}, true)
	if err != nil {
		return err
	}

	c.replaceState(func(s State) State { return s.WithChannel(channel).WithPower(PowerAwake) })
	return nil
}

// Identify triggers the identify blink. The device wakes itself, so cached
// power is forced to awake.
func (c *Client) Identify(ctx context.Context) error {
	c.logger.WithFields(logrus.Fields{
		"name":    c.Name(),
		"address": c.Address(),
	}).Debug("Identifying")

	err := c.session.WriteCharacteristic(ctx, CharIdentify, [][]byte{{identifyTrigger}}, true)
	if err != nil {
		return err
	}

	c.replaceState(func(s State) State { return s.WithPower(PowerAwake) })
	return nil
}

// replaceState atomically swaps in a snapshot derived from the current one
// and notifies subscribers. Concurrent readers observe either the old or
// the new snapshot, never a torn one.
func (c *Client) replaceState(derive func(State) State) {
	c.mu.Lock()
	var base State
	if c.state != nil {
		base = *c.state
	}
	next := derive(base)
	c.state = &next
	c.mu.Unlock()

	c.fireCallbacks(next)
}

// RegisterCallback appends fn to the subscriber list and returns an
// unsubscribe func that removes exactly this registration. Safe to call
// from within another callback's notification.
func (c *Client) RegisterCallback(fn Callback) func() {
	handle := &callbackHandle{}

	c.cbMu.Lock()
	c.callbacks.Set(handle, fn)
	c.cbMu.Unlock()

	return func() {
		c.cbMu.Lock()
		c.callbacks.Delete(handle)
		c.cbMu.Unlock()
	}
}

// fireCallbacks dispatches the snapshot to subscribers in registration
// order. The list is snapshotted under the lock first so unsubscription
// during dispatch cannot corrupt the iteration.
func (c *Client) fireCallbacks(state State) {
	c.cbMu.Lock()
	fns := make([]Callback, 0, c.callbacks.Len())
	for pair := c.callbacks.Oldest(); pair != nil; pair = pair.Next() {
		fns = append(fns, pair.Value)
	}
	c.cbMu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

// intFromBytes decodes a big-endian unsigned integer of any short length.
// The channel characteristic carries a single byte in practice.
func intFromBytes(b []byte) int {
	n := 0
	for _, v := range b {
		n = n<<8 | int(v)
	}
	return n
}
