// Package dispatch holds the per-connection dispatch table: an
// immutable-after-connect map of method-id to request handler, and a
// mutex-guarded map of response-id to pending-reply callback.
package dispatch

import (
	"sync"

	metrics "github.com/armon/go-metrics"

	"github.com/boxcast/wirerpc"
)

// Table is the per-connection dispatch state.
type Table struct {
	// requestHandlers is populated once, before the connection accepts any
	// byte, then read-only. No lock needed.
	requestHandlers map[uint64]wirerpc.Handler

	mu               sync.Mutex
	pendingResponses map[uint64]wirerpc.Handler
}

// NewTable builds a Table from a fixed set of request handlers (typically
// copied from a ConnectionTemplate at clone time).
func NewTable(requestHandlers map[uint64]wirerpc.Handler) *Table {
	return &Table{
		requestHandlers:  requestHandlers,
		pendingResponses: make(map[uint64]wirerpc.Handler),
	}
}

// AllocateResponseID reserves a free slot for a pending response, starting
// at want and linearly probing want, want+1, want+2, ... until a free id is
// found, then installs handler under that id. Concurrent callers are
// serialized by the table mutex, so every in-flight call owns a unique id.
func (t *Table) AllocateResponseID(want uint64, handler wirerpc.Handler) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := want
	for {
		// Id 0 doubles as "no response id" on the wire, so it is never
		// handed out.
		if _, taken := t.pendingResponses[id]; !taken && id != 0 {
			break
		}
		id++
	}
	t.pendingResponses[id] = handler
	return id
}

// CancelResponse removes a pending response slot without invoking it, used
// when a call fails to send (so the slot does not leak forever).
func (t *Table) CancelResponse(id uint64) {
	t.mu.Lock()
	delete(t.pendingResponses, id)
	t.mu.Unlock()
}

// Dispatch resolves one inbound Envelope to a Handler. The request-handler
// table is tried first (cheap, read-only, and requests are the common case
// of a long-lived registration), then the pending-responses table under the
// mutex, removing the entry on a match. Returns nil if neither table has a
// match; the caller should log and drop the envelope.
func (t *Table) Dispatch(env *wirerpc.Envelope) wirerpc.Handler {
	if h, ok := t.requestHandlers[env.Identify]; ok {
		metrics.IncrCounter([]string{"wirerpc", "dispatch", "request"}, 1)
		return h
	}
	t.mu.Lock()
	h, ok := t.pendingResponses[env.Identify]
	if ok {
		delete(t.pendingResponses, env.Identify)
	}
	t.mu.Unlock()
	if !ok {
		metrics.IncrCounter([]string{"wirerpc", "dispatch", "miss"}, 1)
		return nil
	}
	metrics.IncrCounter([]string{"wirerpc", "dispatch", "response"}, 1)
	return h
}

// DrainPending removes every pending response handler and returns them, for
// Config.DrainPendingOnClose: the caller invokes each with a
// connection-closed envelope instead of letting it leak.
func (t *Table) DrainPending() []wirerpc.Handler {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]wirerpc.Handler, 0, len(t.pendingResponses))
	for _, h := range t.pendingResponses {
		out = append(out, h)
	}
	t.pendingResponses = make(map[uint64]wirerpc.Handler)
	return out
}
