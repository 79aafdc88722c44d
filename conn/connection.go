// Package conn implements the connection engine: it owns a socket, runs the
// frame decoder over inbound bytes, buffers outbound writes in a
// double-buffered queue so producers only contend on a brief append lock,
// and fires a close handler exactly once.
package conn

import (
	"io"
	"net"
	"sync"
	"sync/atomic"

	metrics "github.com/armon/go-metrics"
	uuid "github.com/hashicorp/go-uuid"

	"github.com/boxcast/wirerpc"
	"github.com/boxcast/wirerpc/dispatch"
	"github.com/boxcast/wirerpc/internal/reactor"
	"github.com/boxcast/wirerpc/internal/worker"
)

// readScratchSize is the fixed scratch buffer size for one socket read.
const readScratchSize = 64 * 1024

// Status is the observable connection state.
type Status int32

const (
	StatusDisconnected Status = iota
	StatusConnected
)

func (s Status) String() string {
	if s == StatusConnected {
		return "connected"
	}
	return "disconnected"
}

// CloseHandler is invoked exactly once when a Connection transitions to
// disconnected.
type CloseHandler func(*Connection)

// Connection is a live, socket-bound RPC connection: the cloned, connected
// counterpart of a Template. It implements wirerpc.ConnHandle.
type Connection struct {
	id      string
	socket  net.Conn
	loop    *reactor.Loop
	workers *worker.Pool
	table   *dispatch.Table
	logger  *wirerpc.Logger
	cfg     *wirerpc.Config

	decoder *wirerpc.FrameDecoder

	writeMu       sync.Mutex
	duplex        [2][]net.Buffers
	incomingIndex int
	writing       bool

	readMu  sync.Mutex
	reading bool

	closeOnce    sync.Once
	closeHandler CloseHandler
	status       atomic.Int32
}

var _ wirerpc.ConnHandle = (*Connection)(nil)

func newConnID() string {
	id, err := uuid.GenerateUUID()
	if err != nil {
		// GenerateUUID only fails if crypto/rand is broken; fall back to a
		// fixed marker rather than panicking a reactor loop over a log tag.
		return "uuid-unavailable"
	}
	return id
}

// Table exposes the connection's dispatch table, for the registrar and
// caller stub to install handlers and pending responses.
func (c *Connection) Table() *dispatch.Table { return c.table }

// ID returns the connection's log-correlation id.
func (c *Connection) ID() string { return c.id }

// Status reports the current observable state.
func (c *Connection) Status() Status { return Status(c.status.Load()) }

// SetCloseHandler installs the handler fired exactly once on close. Must be
// called before ScheduleRead to avoid a race with an immediate disconnect.
func (c *Connection) SetCloseHandler(h CloseHandler) { c.closeHandler = h }

// Send enqueues env onto the active side of the double buffer and schedules
// a write. Non-blocking; returns without waiting for the write to
// complete. Dropped with a log warning if the connection is closed.
func (c *Connection) Send(env *wirerpc.Envelope) {
	if c.Status() != StatusConnected {
		c.logger.Warnf("conn %s: send on closed connection dropped", c.id)
		return
	}
	bufs, err := wirerpc.EncodeFrame(env)
	if err != nil {
		c.logger.Errorf("conn %s: encode failed: %v", c.id, err)
		return
	}
	c.writeMu.Lock()
	if c.Status() != StatusConnected {
		c.writeMu.Unlock()
		c.logger.Warnf("conn %s: send on closed connection dropped", c.id)
		return
	}
	c.duplex[c.incomingIndex] = append(c.duplex[c.incomingIndex], bufs)
	c.writeMu.Unlock()
	c.ScheduleWrite()
}

// ScheduleWrite posts a write-scheduling task to the connection's loop. If
// no write is in flight and the active buffer is non-empty, it flips
// incomingIndex and starts a vectored write of the previously-active
// buffer.
func (c *Connection) ScheduleWrite() {
	c.loop.Post(c.tryStartWrite)
}

// tryStartWrite runs on the reactor loop.
func (c *Connection) tryStartWrite() {
	c.writeMu.Lock()
	if c.writing {
		c.writeMu.Unlock()
		return
	}
	batch := c.duplex[c.incomingIndex]
	if len(batch) == 0 {
		c.writeMu.Unlock()
		return
	}
	drain := c.incomingIndex
	c.incomingIndex = 1 - c.incomingIndex
	c.duplex[drain] = nil
	c.writing = true
	c.writeMu.Unlock()

	go c.performWrite(batch)
}

// performWrite runs the actual (blocking, but netpoller-backed) vectored
// write off the reactor loop, then posts the completion back onto the loop.
func (c *Connection) performWrite(batch []net.Buffers) {
	var err error
	for _, bufs := range batch {
		if _, werr := bufs.WriteTo(c.socket); werr != nil {
			err = werr
			break
		}
	}
	c.loop.Post(func() { c.onWriteComplete(err) })
}

func (c *Connection) onWriteComplete(err error) {
	if err != nil {
		c.logger.Warnf("conn %s: write failed: %v", c.id, err)
		c.Close()
		return
	}
	c.writeMu.Lock()
	c.writing = false
	more := len(c.duplex[c.incomingIndex]) > 0
	c.writeMu.Unlock()
	if more {
		c.tryStartWrite()
	}
}

// ScheduleRead posts a read-scheduling task to the connection's loop: it
// issues a read into a fixed-size scratch buffer off-loop, then feeds the
// result through the decoder on-loop.
func (c *Connection) ScheduleRead() {
	c.loop.Post(c.startRead)
}

func (c *Connection) startRead() {
	if c.Status() != StatusConnected {
		return
	}
	c.readMu.Lock()
	if c.reading {
		c.readMu.Unlock()
		return
	}
	c.reading = true
	c.readMu.Unlock()
	go c.performRead()
}

func (c *Connection) performRead() {
	buf := make([]byte, readScratchSize)
	n, err := c.socket.Read(buf)
	c.loop.Post(func() {
		c.readMu.Lock()
		c.reading = false
		c.readMu.Unlock()
		c.onReadComplete(buf[:n], err)
	})
}

func (c *Connection) onReadComplete(data []byte, readErr error) {
	for _, b := range data {
		switch c.decoder.Consume(b) {
		case wirerpc.DecodeOK:
			env := c.decoder.Envelope
			metrics.IncrCounter([]string{"wirerpc", "conn", "frame_decoded"}, 1)
			c.dispatchEnvelope(env)
		case wirerpc.DecodeFail:
			c.logger.Warnf("conn %s: framing error: %v", c.id, c.decoder.LastErr)
			c.Close()
			return
		case wirerpc.DecodeMore:
			// keep consuming the rest of this read's bytes
		}
	}
	if readErr != nil {
		if readErr != io.EOF {
			c.logger.Warnf("conn %s: read error: %v", c.id, readErr)
		}
		c.Close()
		return
	}
	c.startRead()
}

// dispatchEnvelope resolves the handler (request-first, then
// pending-response) and submits it to the worker pool; a miss is logged and
// dropped.
func (c *Connection) dispatchEnvelope(env *wirerpc.Envelope) {
	h := c.table.Dispatch(env)
	if h == nil {
		c.logger.Warnf("conn %s: dispatch miss for identify=%d", c.id, env.Identify)
		return
	}
	c.workers.Submit(func() { h(env, c) })
}

// Close is idempotent: it cancels outstanding I/O (by closing the socket,
// which unblocks any in-flight Read/Write on it), discards the write queue
// without a best-effort flush, optionally drains pending responses
// (Config.DrainPendingOnClose), and fires the close handler exactly once.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		_ = c.socket.Close()

		c.writeMu.Lock()
		c.duplex[0] = nil
		c.duplex[1] = nil
		c.writeMu.Unlock()

		c.status.Store(int32(StatusDisconnected))
		metrics.IncrCounter([]string{"wirerpc", "conn", "closed"}, 1)

		if c.cfg != nil && c.cfg.DrainPendingOnClose {
			failed := &wirerpc.Envelope{
				Kind:    wirerpc.KindResponse,
				Content: []byte("connection closed"),
			}
			for _, h := range c.table.DrainPending() {
				h := h
				c.workers.Submit(func() { h(failed, c) })
			}
		}

		if c.closeHandler != nil {
			c.closeHandler(c)
		}
	})
	return nil
}
