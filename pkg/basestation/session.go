package basestation

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/srg/lhbctl/internal/transport"
)

// RetryAttempts bounds the retry envelope around characteristic I/O.
// Only classified-transient link errors are retried; anything else
// propagates immediately.
const RetryAttempts = 3

// Session owns the connection lifecycle to one physical base station:
// lazy connect-on-demand, at most one live connection at a time, and safe
// concurrent use from multiple callers.
//
// The mutex serializes connect/disconnect decisions only. It is never held
// across characteristic I/O, so two operations can be in flight against
// the same live connection simultaneously.
type Session struct {
	transport transport.Transport
	address   string
	logger    *logrus.Logger

	mu   sync.Mutex
	conn transport.Conn
}

// NewSession creates a session for the device at address. No connection is
// made until the first operation needs one.
func NewSession(tr transport.Transport, address string, logger *logrus.Logger) *Session {
	if logger == nil {
		logger = logrus.New()
	}
	return &Session{
		transport: tr,
		address:   address,
		logger:    logger,
	}
}

// Address returns the device address this session is bound to.
func (s *Session) Address() string {
	return s.address
}

// currentConn returns the stored handle, which may be nil or dead.
func (s *Session) currentConn() transport.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

// IsConnected reports whether a live connection is held.
func (s *Session) IsConnected() bool {
	c := s.currentConn()
	return c != nil && c.IsLive()
}

// Connect ensures a live connection exists. Idempotent: returns
// immediately when the stored handle is live. Otherwise takes the session
// lock, re-checks liveness (another caller may have connected while this
// one waited), and dials through the transport.
func (s *Session) Connect(ctx context.Context) error {
	if c := s.currentConn(); c != nil && c.IsLive() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Recheck while locked
	if s.conn != nil && s.conn.IsLive() {
		return nil
	}

	s.logger.WithField("address", s.address).Debug("Connecting")
	conn, err := s.transport.Dial(ctx, s.address)
	if err != nil {
		return err
	}

	s.conn = conn
	return nil
}

// Disconnect clears the stored handle so concurrent accessors immediately
// see "disconnected", then closes the link if it was live. Idempotent.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn == nil {
		return nil
	}

	s.logger.WithField("address", s.address).Debug("Disconnecting")
	if conn.IsLive() {
		return conn.Close()
	}
	return nil
}

// ReadCharacteristic ensures connected, reads the characteristic, and
// optionally disconnects afterward. The whole connect+read+disconnect
// cycle is retried as a unit on transient link errors.
func (s *Session) ReadCharacteristic(ctx context.Context, uuid string, disconnectAfter bool) ([]byte, error) {
	s.logger.WithFields(logrus.Fields{
		"address":   s.address,
		"char_uuid": uuid,
	}).Debug("Reading characteristic")

	var data []byte
	err := s.withRetry(ctx, disconnectAfter, func(conn transport.Conn) error {
		d, err := conn.ReadCharacteristic(uuid)
		if err != nil {
			return err
		}
		data = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"address":   s.address,
		"char_uuid": uuid,
		"value":     hex.EncodeToString(data),
	}).Debug("Read characteristic")

	return data, nil
}

// WriteCharacteristic writes each payload in sequence without waiting for
// acknowledgment; success means the transport accepted the writes. Same
// connect/retry/optional-disconnect envelope as ReadCharacteristic.
func (s *Session) WriteCharacteristic(ctx context.Context, uuid string, payloads [][]byte, disconnectAfter bool) error {
	if s.logger.IsLevelEnabled(logrus.DebugLevel) {
		encoded := make([]string, len(payloads))
		for i, p := range payloads {
			encoded[i] = hex.EncodeToString(p)
		}
		s.logger.WithFields(logrus.Fields{
			"address":   s.address,
			"char_uuid": uuid,
			"payloads":  encoded,
		}).Debug("Writing characteristic")
	}

	return s.withRetry(ctx, disconnectAfter, func(conn transport.Conn) error {
		for _, payload := range payloads {
			if err := conn.WriteCharacteristic(uuid, payload, false); err != nil {
				return err
			}
		}
		return nil
	})
}

// withRetry runs one connect/operate/optional-disconnect attempt up to
// RetryAttempts times. Only transient link errors re-enter the loop; a
// dropped link is transparently re-established by the next attempt's
// Connect call.
func (s *Session) withRetry(ctx context.Context, disconnectAfter bool, op func(transport.Conn) error) error {
	var lastErr error
	for attempt := 1; attempt <= RetryAttempts; attempt++ {
		err := s.attempt(ctx, disconnectAfter, op)
		if err == nil {
			return nil
		}
		lastErr = err

		if !transport.IsTransient(err) || ctx.Err() != nil {
			return err
		}
		s.logger.WithFields(logrus.Fields{
			"address": s.address,
			"attempt": attempt,
			"error":   err,
		}).Warn("Transient link error, retrying")
	}
	return fmt.Errorf("operation failed after %d attempts: %w", RetryAttempts, lastErr)
}

// attempt performs a single connect+op cycle. The disconnect-after cleanup
// runs in a defer so it executes even when op fails or the caller's wait
// was abandoned.
func (s *Session) attempt(ctx context.Context, disconnectAfter bool, op func(transport.Conn) error) error {
	if disconnectAfter {
		defer func() {
			if err := s.Disconnect(); err != nil {
				s.logger.WithError(err).Warn("Disconnect after operation failed")
			}
		}()
	}

	if err := s.Connect(ctx); err != nil {
		return err
	}

	conn := s.currentConn()
	if conn == nil {
		// A concurrent Disconnect raced the connect; treat as a dropped link.
		return transport.ErrLinkDropped
	}

	return op(conn)
}
