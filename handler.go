package wirerpc

// ConnHandle is the minimal connection capability exposed to handlers: the
// ability to send a reply envelope and to identify the connection in logs.
// It is satisfied by *conn.Connection; defined here (not in package conn)
// so that registrar/caller/dispatch can depend on the capability without an
// import cycle on the concrete connection type.
type ConnHandle interface {
	// Send enqueues env onto the connection's outbound double buffer and
	// schedules a write. Non-blocking; dropped with a log warning if the
	// connection is closed.
	Send(env *Envelope)
	// ID returns the connection's log-correlation id.
	ID() string
}

// Handler is the capability type dispatched an inbound Envelope: either a
// registered request handler (C7) or a parked response callback (C8). It
// runs on the worker tier, never on a reactor thread.
type Handler func(env *Envelope, conn ConnHandle)
