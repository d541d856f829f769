// Package coordinator drives periodic state refreshes for a base station.
package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/lhbctl/pkg/basestation"
)

const (
	// DefaultUpdateInterval is the pause between refresh cycles.
	DefaultUpdateInterval = 60 * time.Second
	// DefaultUpdateTimeout bounds a single refresh cycle. A timed-out cycle
	// leaves the cached state untouched; the session's deferred disconnect
	// still runs.
	DefaultUpdateTimeout = 10 * time.Second
)

// UpdateFailedError wraps any refresh failure into the single generic
// signal consumers schedule their own retry/backoff around.
type UpdateFailedError struct {
	Err error
}

func (e *UpdateFailedError) Error() string {
	return fmt.Sprintf("update failed: %v", e.Err)
}

func (e *UpdateFailedError) Unwrap() error {
	return e.Err
}

// Listener receives the result of each refresh cycle: the new snapshot on
// success, or an UpdateFailedError.
type Listener func(state basestation.State, err error)

// Options configures the refresh schedule.
type Options struct {
	UpdateInterval time.Duration
	UpdateTimeout  time.Duration
}

// DefaultOptions returns the production schedule.
func DefaultOptions() *Options {
	return &Options{
		UpdateInterval: DefaultUpdateInterval,
		UpdateTimeout:  DefaultUpdateTimeout,
	}
}

// Coordinator polls a client on a fixed interval and fans results out to
// listeners. One refresh runs immediately on Run.
type Coordinator struct {
	client   *basestation.Client
	interval time.Duration
	timeout  time.Duration
	logger   *logrus.Logger

	mu        sync.Mutex
	listeners []Listener
}

// NewCoordinator creates a coordinator for client.
func NewCoordinator(client *basestation.Client, opts *Options, logger *logrus.Logger) *Coordinator {
	if opts == nil {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = logrus.New()
	}
	interval := opts.UpdateInterval
	if interval <= 0 {
		interval = DefaultUpdateInterval
	}
	timeout := opts.UpdateTimeout
	if timeout <= 0 {
		timeout = DefaultUpdateTimeout
	}
	return &Coordinator{
		client:   client,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
	}
}

// AddListener registers a listener; the returned func removes it.
func (c *Coordinator) AddListener(fn Listener) func() {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	idx := len(c.listeners) - 1
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if idx < len(c.listeners) {
			c.listeners[idx] = nil
		}
	}
}

func (c *Coordinator) notify(state basestation.State, err error) {
	c.mu.Lock()
	fns := make([]Listener, len(c.listeners))
	copy(fns, c.listeners)
	c.mu.Unlock()

	for _, fn := range fns {
		if fn != nil {
			fn(state, err)
		}
	}
}

// Refresh runs one bounded update cycle.
func (c *Coordinator) Refresh(ctx context.Context) (basestation.State, error) {
	cycleCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	state, err := c.client.Update(cycleCtx)
	if err != nil {
		return basestation.State{}, &UpdateFailedError{Err: err}
	}
	return state, nil
}

// Run refreshes immediately, then on every interval tick until ctx is
// done. Refresh failures are reported to listeners and logged, never
// fatal: the next tick retries.
func (c *Coordinator) Run(ctx context.Context) error {
	c.runOnce(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.runOnce(ctx)
		}
	}
}

func (c *Coordinator) runOnce(ctx context.Context) {
	state, err := c.Refresh(ctx)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"address": c.client.Address(),
			"error":   err,
		}).Warn("Base station refresh failed")
	}
	c.notify(state, err)
}
