// Package scanner discovers base stations from the BLE advertisement feed.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cornelk/hashmap"
	"github.com/sirupsen/logrus"
	"github.com/srg/lhbctl/internal/ringchan"
	"github.com/srg/lhbctl/internal/transport"
	"github.com/srg/lhbctl/pkg/basestation"
)

// ProgressCallback is called when the scan phase changes
type ProgressCallback func(phase string)

// DeviceEventType marks if the device was newly discovered or updated
type DeviceEventType int

const (
	EventNew DeviceEventType = iota
	EventUpdated
)

type DeviceEvent struct {
	Type      DeviceEventType
	Discovery Discovery
}

// Discovery is one sighted base station.
type Discovery struct {
	Address        string    `json:"address"`
	Name           string    `json:"name"`
	ManufacturerID uint16    `json:"manufacturer_id"`
	RSSI           int       `json:"rssi"`
	Connectable    bool      `json:"connectable"`
	LastSeen       time.Time `json:"last_seen"`
}

// IsBasestation reports whether an advertisement belongs to a base
// station: the Valve manufacturer ID plus the "LHB-" name prefix.
func IsBasestation(adv transport.Advertisement) bool {
	id, ok := adv.ManufacturerID()
	if !ok || id != basestation.ManufacturerID {
		return false
	}
	return strings.HasPrefix(adv.LocalName(), basestation.NamePrefix)
}

// FilterDiscoveries keeps only the discoveries that are base stations.
func FilterDiscoveries(discoveries []Discovery) []Discovery {
	result := make([]Discovery, 0, len(discoveries))
	for _, d := range discoveries {
		if d.ManufacturerID == basestation.ManufacturerID &&
			strings.HasPrefix(d.Name, basestation.NamePrefix) {
			result = append(result, d)
		}
	}
	return result
}

// ScanOptions configures scanning behavior
type ScanOptions struct {
	Duration        time.Duration
	DuplicateFilter bool
	// All disables the base-station filter and reports every device.
	All bool
}

// DefaultScanOptions returns default scanning options
func DefaultScanOptions() *ScanOptions {
	return &ScanOptions{
		Duration:        10 * time.Second,
		DuplicateFilter: true,
	}
}

// Scanner handles base-station discovery
type Scanner struct {
	scanner transport.Scanner
	devices *hashmap.Map[string, *Discovery]
	events  *ringchan.RingChannel[DeviceEvent]
	logger  *logrus.Logger
}

// NewScanner creates a scanner over the given advertisement source.
func NewScanner(sc transport.Scanner, logger *logrus.Logger) *Scanner {
	if logger == nil {
		logger = logrus.New()
	}

	return &Scanner{
		scanner: sc,
		events:  ringchan.New[DeviceEvent](100),
		logger:  logger,
	}
}

// Scan performs discovery with provided options and returns the sighted
// base stations keyed by address.
func (s *Scanner) Scan(ctx context.Context, opts *ScanOptions, progressCallback ProgressCallback) (map[string]Discovery, error) {
	s.devices = hashmap.New[string, *Discovery]()

	if opts == nil {
		opts = DefaultScanOptions()
	}
	if progressCallback == nil {
		progressCallback = func(string) {} // No-op callback
	}

	s.logger.WithField("duration", opts.Duration).Info("Starting BLE scan...")
	progressCallback("Scanning")

	scanCtx := ctx
	if opts.Duration > 0 {
		var cancel context.CancelFunc
		scanCtx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	// The handler closes over opts: advertisements can still arrive from the
	// transport goroutine after Scan returns.
	err := s.scanner.Scan(scanCtx, !opts.DuplicateFilter, func(adv transport.Advertisement) {
		s.handleAdvertisement(adv, opts)
	})
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	s.logger.WithField("device_count", s.devices.Len()).Info("BLE scan completed")
	progressCallback("Processing results")

	devices := make(map[string]Discovery, s.devices.Len())
	s.devices.Range(func(key string, value *Discovery) bool {
		devices[key] = *value
		return true
	})

	return devices, nil
}

// handleAdvertisement updates existing or adds a new discovery
func (s *Scanner) handleAdvertisement(adv transport.Advertisement, opts *ScanOptions) {
	if !opts.All && !IsBasestation(adv) {
		return
	}

	id, _ := adv.ManufacturerID()
	discovery := &Discovery{
		Address:        adv.Addr(),
		Name:           adv.LocalName(),
		ManufacturerID: id,
		RSSI:           adv.RSSI(),
		Connectable:    adv.Connectable(),
		LastSeen:       time.Now(),
	}

	_, existing := s.devices.Get(discovery.Address)
	s.devices.Set(discovery.Address, discovery)

	event := DeviceEvent{Discovery: *discovery}
	if existing {
		event.Type = EventUpdated
	} else {
		s.logger.WithFields(logrus.Fields{
			"device":  discovery.Name,
			"address": discovery.Address,
			"rssi":    discovery.RSSI,
		}).Info("Discovered base station")
		event.Type = EventNew
	}

	s.events.ForceSend(event)
}

// Events returns a read-only channel of device events
func (s *Scanner) Events() <-chan DeviceEvent {
	return s.events.C()
}
