package conn

import (
	"net"
	"sync"

	metrics "github.com/armon/go-metrics"

	"github.com/boxcast/wirerpc"
	"github.com/boxcast/wirerpc/dispatch"
	"github.com/boxcast/wirerpc/internal/reactor"
	"github.com/boxcast/wirerpc/internal/worker"
)

// Template is an unbound connection prototype: it carries the registered
// request-handler table and is never itself bound to a socket. Registered
// handler capabilities are shared by the template and every clone by
// value-copy of the map; the handlers are pure functions closing over
// service pointers.
type Template struct {
	mu              sync.Mutex
	requestHandlers map[uint64]wirerpc.Handler
	connected       bool // true once any clone has been produced; registration then fails
}

// NewTemplate returns an empty, unconnected Template.
func NewTemplate() *Template {
	return &Template{requestHandlers: make(map[uint64]wirerpc.Handler)}
}

// Register installs handler under methodID. Returns an error if the
// template has already produced a live connection or if methodID collides
// with an existing entry.
func (t *Template) Register(methodID uint64, name string, handler wirerpc.Handler) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.connected {
		return &wirerpc.Error{Op: "Template.Register", Code: wirerpc.ErrRegistration, Msg: "cannot register on an already-connected template"}
	}
	if _, exists := t.requestHandlers[methodID]; exists {
		return &wirerpc.Error{Op: "Template.Register", Code: wirerpc.ErrRegistration, Msg: "method id collision for " + name}
	}
	t.requestHandlers[methodID] = handler
	return nil
}

// markConnected freezes the template's handler table against further
// registration, the moment its first clone is produced.
func (t *Template) markConnected() {
	t.mu.Lock()
	t.connected = true
	t.mu.Unlock()
}

// snapshotHandlers returns a value-copy of the handler map for a new clone.
func (t *Template) snapshotHandlers() map[uint64]wirerpc.Handler {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[uint64]wirerpc.Handler, len(t.requestHandlers))
	for k, v := range t.requestHandlers {
		out[k] = v
	}
	return out
}

// Factory constructs live Connections bound to a socket, cloned from a
// Template. One Factory is shared by every connection created against the
// same Template, Loop pool, and worker pool.
type Factory struct {
	Template *Template
	Loops    *reactor.Pool
	Workers  *worker.Pool
	Logger   *wirerpc.Logger
	Config   *wirerpc.Config
}

// New clones the template into a new, live Connection bound to socket and
// assigned the next reactor loop round-robin.
func (f *Factory) New(socket net.Conn) *Connection {
	f.Template.markConnected()
	c := &Connection{
		id:      newConnID(),
		socket:  socket,
		loop:    f.Loops.NextLoop(),
		workers: f.Workers,
		table:   dispatch.NewTable(f.Template.snapshotHandlers()),
		logger:  f.Logger,
		cfg:     f.Config,
		decoder: wirerpc.NewFrameDecoder(),
	}
	c.status.Store(int32(StatusConnected))
	metrics.IncrCounter([]string{"wirerpc", "conn", "accepted"}, 1)
	return c
}
