package coordinator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/srg/lhbctl/internal/testutils"
	"github.com/srg/lhbctl/pkg/basestation"
	"github.com/stretchr/testify/assert"
)

const testAddress = "f2:38:b1:3f:40:aa"

func newTestClient(conn *testutils.MockConn) (*basestation.Client, *testutils.MockTransport) {
	tr := testutils.NewMockTransport(conn)
	session := basestation.NewSession(tr, testAddress, nil)
	return basestation.NewClient(session, nil), tr
}

func healthyConn() *testutils.MockConn {
	return testutils.NewMockConn().
		SetValue(basestation.CharModelID, []byte("1004")).
		SetValue(basestation.CharManufacturer, []byte("HTC")).
		SetValue(basestation.CharSerialNumber, []byte("LHB-12345678")).
		SetValue(basestation.CharPower, []byte{basestation.PowerAwake.Byte()}).
		SetValue(basestation.CharChannel, []byte{0x01}).
		SetValue(basestation.CharSWVersion, []byte("2.0.6"))
}

func TestNewCoordinator(t *testing.T) {
	client, _ := newTestClient(healthyConn())

	t.Run("nil options use the production schedule", func(t *testing.T) {
		c := NewCoordinator(client, nil, nil)
		assert.Equal(t, DefaultUpdateInterval, c.interval)
		assert.Equal(t, DefaultUpdateTimeout, c.timeout)
		assert.NotNil(t, c.logger)
	})

	t.Run("non-positive durations fall back to defaults", func(t *testing.T) {
		c := NewCoordinator(client, &Options{UpdateInterval: -1, UpdateTimeout: 0}, nil)
		assert.Equal(t, DefaultUpdateInterval, c.interval)
		assert.Equal(t, DefaultUpdateTimeout, c.timeout)
	})

	t.Run("explicit durations are kept", func(t *testing.T) {
		c := NewCoordinator(client, &Options{UpdateInterval: time.Minute, UpdateTimeout: 5 * time.Second}, nil)
		assert.Equal(t, time.Minute, c.interval)
		assert.Equal(t, 5*time.Second, c.timeout)
	})
}

func TestCoordinatorRefresh(t *testing.T) {
	t.Run("returns the fresh snapshot", func(t *testing.T) {
		client, _ := newTestClient(healthyConn())
		c := NewCoordinator(client, nil, nil)

		state, err := c.Refresh(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, basestation.PowerAwake, state.Power)
		assert.Equal(t, 1, state.Channel)
	})

	t.Run("wraps update failures", func(t *testing.T) {
		conn := healthyConn().SetValue(basestation.CharPower, []byte{0xFF})
		client, _ := newTestClient(conn)
		c := NewCoordinator(client, nil, nil)

		_, err := c.Refresh(context.Background())
		var ufe *UpdateFailedError
		assert.True(t, errors.As(err, &ufe), "refresh failures MUST surface as UpdateFailedError")

		var decodeErr *basestation.DecodeError
		assert.True(t, errors.As(err, &decodeErr), "the cause MUST stay reachable through Unwrap")

		_, ok := client.State()
		assert.False(t, ok, "a failed refresh MUST NOT publish state")
	})

	t.Run("times out without touching cached state", func(t *testing.T) {
		conn := healthyConn()
		client, tr := newTestClient(conn)
		tr.DialDelay = 200 * time.Millisecond

		c := NewCoordinator(client, &Options{UpdateTimeout: 20 * time.Millisecond}, nil)

		_, err := c.Refresh(context.Background())
		var ufe *UpdateFailedError
		assert.True(t, errors.As(err, &ufe))
		assert.True(t, errors.Is(err, context.DeadlineExceeded))

		_, ok := client.State()
		assert.False(t, ok)
	})
}

func TestCoordinatorListeners(t *testing.T) {
	t.Run("every listener sees each refresh result", func(t *testing.T) {
		client, _ := newTestClient(healthyConn())
		c := NewCoordinator(client, nil, nil)

		var first, second []basestation.State
		c.AddListener(func(s basestation.State, err error) {
			assert.NoError(t, err)
			first = append(first, s)
		})
		c.AddListener(func(s basestation.State, err error) {
			assert.NoError(t, err)
			second = append(second, s)
		})

		c.runOnce(context.Background())

		assert.Len(t, first, 1)
		assert.Len(t, second, 1)
		assert.Equal(t, first, second)
	})

	t.Run("failures reach listeners instead of aborting", func(t *testing.T) {
		conn := healthyConn().SetValue(basestation.CharPower, []byte{0xFF})
		client, _ := newTestClient(conn)
		c := NewCoordinator(client, nil, nil)

		var got error
		c.AddListener(func(_ basestation.State, err error) { got = err })

		c.runOnce(context.Background())

		var ufe *UpdateFailedError
		assert.True(t, errors.As(got, &ufe))
	})

	t.Run("removed listeners stop receiving", func(t *testing.T) {
		client, _ := newTestClient(healthyConn())
		c := NewCoordinator(client, nil, nil)

		kept := 0
		removed := 0
		c.AddListener(func(basestation.State, error) { kept++ })
		unsubscribe := c.AddListener(func(basestation.State, error) { removed++ })

		c.runOnce(context.Background())
		unsubscribe()
		c.runOnce(context.Background())

		assert.Equal(t, 2, kept)
		assert.Equal(t, 1, removed, "a removed listener MUST NOT be called again")
	})
}

func TestCoordinatorRun(t *testing.T) {
	t.Run("refreshes immediately and stops on cancel", func(t *testing.T) {
		client, _ := newTestClient(healthyConn())
		c := NewCoordinator(client, &Options{UpdateInterval: time.Hour}, nil)

		got := make(chan basestation.State, 1)
		c.AddListener(func(s basestation.State, err error) {
			assert.NoError(t, err)
			got <- s
		})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- c.Run(ctx) }()

		select {
		case state := <-got:
			assert.Equal(t, basestation.PowerAwake, state.Power)
		case <-time.After(2 * time.Second):
			t.Fatal("Run MUST refresh once before the first tick")
		}

		cancel()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(2 * time.Second):
			t.Fatal("Run MUST return once the context is canceled")
		}
	})
}
