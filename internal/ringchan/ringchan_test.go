package ringchan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	rc := New[int](3)
	assert.Equal(t, 3, rc.Cap())
	assert.Equal(t, 0, rc.Len())

	assert.Panics(t, func() { New[int](0) }, "zero capacity MUST panic")
}

func TestSendDropsOldestWhenFull(t *testing.T) {
	rc := New[int](2)

	rc.Send(1)
	rc.Send(2)
	rc.Send(3)

	assert.Equal(t, 2, rc.Len())
	assert.Equal(t, 2, <-rc.C(), "the oldest element MUST have been dropped")
	assert.Equal(t, 3, <-rc.C())
}

func TestTrySend(t *testing.T) {
	rc := New[string](1)

	assert.True(t, rc.TrySend("a"))
	assert.False(t, rc.TrySend("b"), "a full buffer MUST refuse TrySend")

	assert.Equal(t, "a", <-rc.C(), "TrySend MUST never displace buffered elements")
}

func TestForceSend(t *testing.T) {
	rc := New[int](2)

	assert.False(t, rc.ForceSend(1))
	assert.False(t, rc.ForceSend(2))
	assert.True(t, rc.ForceSend(3), "displacing the oldest MUST be reported")

	assert.Equal(t, 2, <-rc.C())
	assert.Equal(t, 3, <-rc.C())
}

func TestClose(t *testing.T) {
	rc := New[int](2)
	rc.Send(7)
	rc.Close()

	v, ok := <-rc.C()
	assert.True(t, ok)
	assert.Equal(t, 7, v)

	_, ok = <-rc.C()
	assert.False(t, ok, "a closed channel MUST drain then report closed")
}
