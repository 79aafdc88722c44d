package dispatch

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boxcast/wirerpc"
)

type fakeConnHandle struct{ id string }

func (f *fakeConnHandle) Send(env *wirerpc.Envelope) {}
func (f *fakeConnHandle) ID() string                 { return f.id }

func noopHandler(env *wirerpc.Envelope, c wirerpc.ConnHandle) {}

func TestDispatchPrefersRequestTableOverResponseTable(t *testing.T) {
	const methodID = uint64(77)
	tbl := NewTable(map[uint64]wirerpc.Handler{methodID: noopHandler})

	var responseCalled bool
	tbl.AllocateResponseID(methodID, func(env *wirerpc.Envelope, c wirerpc.ConnHandle) {
		responseCalled = true
	})

	h := tbl.Dispatch(&wirerpc.Envelope{Kind: wirerpc.KindRequest, Identify: methodID, ResponseIdentify: 1, Content: []byte("x")})
	require.NotNil(t, h)
	h(nil, &fakeConnHandle{})
	assert.False(t, responseCalled, "request table entry must win over a pending response with the same id")
}

func TestDispatchMissReturnsNil(t *testing.T) {
	tbl := NewTable(nil)
	h := tbl.Dispatch(&wirerpc.Envelope{Kind: wirerpc.KindResponse, Identify: 1, Content: []byte("x")})
	assert.Nil(t, h)
}

func TestDispatchResponseConsumesSlot(t *testing.T) {
	tbl := NewTable(nil)
	var calls int
	id := tbl.AllocateResponseID(5, func(env *wirerpc.Envelope, c wirerpc.ConnHandle) { calls++ })

	h := tbl.Dispatch(&wirerpc.Envelope{Kind: wirerpc.KindResponse, Identify: id, Content: []byte("x")})
	require.NotNil(t, h)
	h(nil, &fakeConnHandle{})
	assert.Equal(t, 1, calls)

	// Second arrival with the same id is now unknown: the slot was consumed.
	assert.Nil(t, tbl.Dispatch(&wirerpc.Envelope{Kind: wirerpc.KindResponse, Identify: id, Content: []byte("x")}))
}

func TestAllocateResponseIDProbesPastCollisions(t *testing.T) {
	tbl := NewTable(nil)
	first := tbl.AllocateResponseID(10, noopHandler)
	second := tbl.AllocateResponseID(10, noopHandler)
	third := tbl.AllocateResponseID(10, noopHandler)

	assert.Equal(t, uint64(10), first)
	assert.Equal(t, uint64(11), second)
	assert.Equal(t, uint64(12), third)
}

func TestAllocateResponseIDConcurrentCallersGetUniqueSlots(t *testing.T) {
	tbl := NewTable(nil)
	const n = 200

	ids := make([]uint64, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			ids[i] = tbl.AllocateResponseID(1, noopHandler)
		}()
	}
	wg.Wait()

	seen := make(map[uint64]bool, n)
	for _, id := range ids {
		require.False(t, seen[id], "response id %d allocated twice", id)
		seen[id] = true
	}
}

func TestCancelResponseRemovesSlot(t *testing.T) {
	tbl := NewTable(nil)
	id := tbl.AllocateResponseID(1, noopHandler)
	tbl.CancelResponse(id)
	assert.Nil(t, tbl.Dispatch(&wirerpc.Envelope{Kind: wirerpc.KindResponse, Identify: id, Content: []byte("x")}))
}

func TestDrainPendingClearsTable(t *testing.T) {
	tbl := NewTable(nil)
	tbl.AllocateResponseID(1, noopHandler)
	tbl.AllocateResponseID(2, noopHandler)

	drained := tbl.DrainPending()
	assert.Len(t, drained, 2)
	assert.Empty(t, tbl.DrainPending())
}
