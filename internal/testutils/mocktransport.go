package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/srg/lhbctl/internal/transport"
)

// WriteOp records one characteristic write issued against a MockConn.
type WriteOp struct {
	UUID         string
	Data         []byte
	WithResponse bool
}

// MockConn is a scriptable transport.Conn. Characteristic values are set
// up front; read/write failures can be queued per UUID and are consumed
// in order, so a test can fail twice then succeed.
type MockConn struct {
	mu         sync.Mutex
	live       bool
	values     map[string][]byte
	readErrs   map[string][]error
	writeErrs  map[string][]error
	reads      map[string]int
	writes     []WriteOp
	closeCount int
}

// NewMockConn creates a dead conn; MockTransport.Dial revives it.
func NewMockConn() *MockConn {
	return &MockConn{
		values:    make(map[string][]byte),
		readErrs:  make(map[string][]error),
		writeErrs: make(map[string][]error),
		reads:     make(map[string]int),
	}
}

// SetValue sets the bytes returned for reads of uuid.
func (c *MockConn) SetValue(uuid string, value []byte) *MockConn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[uuid] = value
	return c
}

// FailRead queues errors returned by successive reads of uuid before the
// stored value is served again.
func (c *MockConn) FailRead(uuid string, errs ...error) *MockConn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readErrs[uuid] = append(c.readErrs[uuid], errs...)
	return c
}

// FailWrite queues errors returned by successive writes to uuid.
func (c *MockConn) FailWrite(uuid string, errs ...error) *MockConn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeErrs[uuid] = append(c.writeErrs[uuid], errs...)
	return c
}

func (c *MockConn) IsLive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live
}

func (c *MockConn) ReadCharacteristic(uuid string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reads[uuid]++

	if errs := c.readErrs[uuid]; len(errs) > 0 {
		err := errs[0]
		c.readErrs[uuid] = errs[1:]
		return nil, err
	}

	value, ok := c.values[uuid]
	if !ok {
		return nil, &transport.NotFoundError{Resource: "characteristic", UUID: uuid}
	}
	return value, nil
}

func (c *MockConn) WriteCharacteristic(uuid string, data []byte, withResponse bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if errs := c.writeErrs[uuid]; len(errs) > 0 {
		err := errs[0]
		c.writeErrs[uuid] = errs[1:]
		return err
	}

	c.writes = append(c.writes, WriteOp{
		UUID:         uuid,
		Data:         append([]byte(nil), data...),
		WithResponse: withResponse,
	})
	return nil
}

func (c *MockConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeCount++
	c.live = false
	return nil
}

func (c *MockConn) revive() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.live = true
}

// ReadCount returns how many reads were issued for uuid.
func (c *MockConn) ReadCount(uuid string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads[uuid]
}

// Writes returns a copy of the recorded write operations.
func (c *MockConn) Writes() []WriteOp {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]WriteOp(nil), c.writes...)
}

// CloseCount returns how many times Close was called.
func (c *MockConn) CloseCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCount
}

// MockTransport hands out the same MockConn on every dial, reviving it, so
// tests can count dials and closes against one stable fixture.
type MockTransport struct {
	conn *MockConn

	// DialDelay widens the race window for concurrency tests.
	DialDelay time.Duration

	mu        sync.Mutex
	dialCount int
	dialErrs  []error
}

// NewMockTransport creates a transport serving conn.
func NewMockTransport(conn *MockConn) *MockTransport {
	return &MockTransport{conn: conn}
}

// FailDial queues errors returned by successive dials.
func (t *MockTransport) FailDial(errs ...error) *MockTransport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dialErrs = append(t.dialErrs, errs...)
	return t
}

func (t *MockTransport) Dial(ctx context.Context, address string) (transport.Conn, error) {
	if t.DialDelay > 0 {
		select {
		case <-time.After(t.DialDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	t.mu.Lock()
	t.dialCount++
	if len(t.dialErrs) > 0 {
		err := t.dialErrs[0]
		t.dialErrs = t.dialErrs[1:]
		t.mu.Unlock()
		return nil, err
	}
	t.mu.Unlock()

	t.conn.revive()
	return t.conn, nil
}

// DialCount returns how many dial attempts were made.
func (t *MockTransport) DialCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dialCount
}
