// Package server implements the accepting side: per host:port it accepts
// new sockets, clones a connection template, and registers the live
// connection; Stop closes every acceptor and every live connection. The
// acceptor table and the connection table are guarded by separate mutexes,
// so binding or closing an acceptor never contends with connection-table
// inserts and removals.
package server

import (
	"net"
	"sync"

	multierror "github.com/hashicorp/go-multierror"

	"github.com/boxcast/wirerpc"
	"github.com/boxcast/wirerpc/conn"
	"github.com/boxcast/wirerpc/internal/reactor"
	"github.com/boxcast/wirerpc/internal/worker"
)

// Server is the top-level server object: a reactor pool, a worker pool, an
// acceptor table, and a connection table.
type Server struct {
	cfg     *wirerpc.Config
	loops   *reactor.Pool
	workers *worker.Pool
	logger  *wirerpc.Logger

	acceptorMu sync.Mutex
	acceptors  map[string]*acceptor

	connMu sync.Mutex
	conns  map[*conn.Connection]struct{}
}

// New constructs a Server with cfg.IOServiceNumber reactor loops and
// cfg.WorkerThreads worker goroutines. A nil cfg uses wirerpc.DefaultConfig.
func New(cfg *wirerpc.Config) *Server {
	if cfg == nil {
		cfg = wirerpc.DefaultConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = wirerpc.Default()
	}
	return &Server{
		cfg:       cfg,
		loops:     reactor.NewPool(cfg.IOServiceNumber, 0),
		workers:   worker.NewPool(cfg.WorkerThreads, 0),
		logger:    logger,
		acceptors: make(map[string]*acceptor),
		conns:     make(map[*conn.Connection]struct{}),
	}
}

// Listen binds a listening socket on host:port and starts accepting
// connections against tmpl. Returns an error if host:port is already being
// listened on by this Server, or if the bind itself fails.
func (s *Server) Listen(host, port string, tmpl *conn.Template) error {
	addr := net.JoinHostPort(host, port)

	s.acceptorMu.Lock()
	if _, exists := s.acceptors[addr]; exists {
		s.acceptorMu.Unlock()
		return &wirerpc.Error{Op: "Server.Listen", Code: wirerpc.ErrConnect, Msg: "already listening on " + addr}
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.acceptorMu.Unlock()
		return &wirerpc.Error{Op: "Server.Listen", Code: wirerpc.ErrConnect, Msg: "bind " + addr, Inner: err}
	}
	a := &acceptor{listener: ln}
	s.acceptors[addr] = a
	s.acceptorMu.Unlock()

	factory := &conn.Factory{Template: tmpl, Loops: s.loops, Workers: s.workers, Logger: s.logger, Config: s.cfg}
	go s.acceptLoop(addr, a, factory)
	return nil
}

// Stop closes every acceptor, then snapshots the live connections under the
// connection-table mutex and closes each one after releasing it (each close
// fires its close handler, which takes the mutex to remove the connection
// from the table), and finally stops the reactor and worker
// pools. Errors from individual acceptor closes are aggregated, not fatal
// to stopping the rest.
func (s *Server) Stop() error {
	s.acceptorMu.Lock()
	accs := s.acceptors
	s.acceptors = make(map[string]*acceptor)
	s.acceptorMu.Unlock()

	var result error
	for addr, a := range accs {
		if err := a.listener.Close(); err != nil {
			result = multierror.Append(result, &wirerpc.Error{Op: "Server.Stop", Code: wirerpc.ErrConnect, Msg: "close acceptor " + addr, Inner: err})
		}
	}

	s.connMu.Lock()
	live := make([]*conn.Connection, 0, len(s.conns))
	for c := range s.conns {
		live = append(live, c)
	}
	s.connMu.Unlock()
	for _, c := range live {
		_ = c.Close()
	}

	s.loops.Stop()
	s.workers.Stop()
	return result
}

// Connections returns a snapshot of the currently live connection ids, for
// diagnostics (e.g. the table the demo CLI's "serve" subcommand prints).
func (s *Server) Connections() []string {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	ids := make([]string, 0, len(s.conns))
	for c := range s.conns {
		ids = append(ids, c.ID())
	}
	return ids
}
