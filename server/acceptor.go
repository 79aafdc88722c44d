package server

import (
	"net"

	"github.com/boxcast/wirerpc/conn"
)

// acceptor is one host:port's listening socket.
type acceptor struct {
	listener net.Listener
}

// acceptLoop accepts sockets on a until its listener is closed (by Stop),
// cloning factory's template into a live Connection per socket, registering
// it in the connection table, installing a close handler that removes it,
// and starting reads.
func (s *Server) acceptLoop(addr string, a *acceptor, factory *conn.Factory) {
	for {
		sock, err := a.listener.Accept()
		if err != nil {
			// Closed by Stop, or a fatal accept error either way; this
			// acceptor is done.
			return
		}

		c := factory.New(sock)

		s.connMu.Lock()
		s.conns[c] = struct{}{}
		s.connMu.Unlock()

		c.SetCloseHandler(func(closed *conn.Connection) {
			s.connMu.Lock()
			delete(s.conns, closed)
			s.connMu.Unlock()
		})

		c.ScheduleRead()
	}
}
