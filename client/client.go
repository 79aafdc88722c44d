// Package client implements the connecting side: it resolves a server:port
// to candidate endpoints, tries each in order until one connects, installs
// the live connection, and hooks disconnect so a later Connect can succeed
// again.
package client

import (
	"context"
	"net"
	"sync"

	multierror "github.com/hashicorp/go-multierror"

	"github.com/boxcast/wirerpc"
	"github.com/boxcast/wirerpc/conn"
	"github.com/boxcast/wirerpc/internal/reactor"
	"github.com/boxcast/wirerpc/internal/worker"
)

// Client is the client-side connector: one reactor pool and worker pool
// shared across reconnects, and a template cloned into a fresh Connection
// on every successful Connect.
type Client struct {
	cfg      *wirerpc.Config
	template *conn.Template
	loops    *reactor.Pool
	workers  *worker.Pool
	logger   *wirerpc.Logger

	mu      sync.Mutex
	current *conn.Connection
}

// New constructs a Client. The reactor and worker pools are started
// immediately and reused across every subsequent Connect/Disconnect cycle.
func New(cfg *wirerpc.Config, template *conn.Template) *Client {
	if cfg == nil {
		cfg = wirerpc.DefaultConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = wirerpc.Default()
	}
	return &Client{
		cfg:      cfg,
		template: template,
		loops:    reactor.NewPool(cfg.IOServiceNumber, 0),
		workers:  worker.NewPool(cfg.WorkerThreads, 0),
		logger:   logger,
	}
}

// Connect resolves server:port to candidate endpoints and dials each in
// order; the first successful TCP connect wins. If already connected, this
// is a no-op success.
func (c *Client) Connect(ctx context.Context, server, port string) error {
	c.mu.Lock()
	if c.current != nil && c.current.Status() == conn.StatusConnected {
		c.mu.Unlock()
		c.logger.Warnf("client: Connect called while already connected to %s:%s", server, port)
		return nil
	}
	c.mu.Unlock()

	candidates, err := resolveEndpoints(ctx, server, port)
	if err != nil {
		return err
	}

	var dialErrs error
	dialer := net.Dialer{Timeout: c.cfg.Timeout}
	for _, addr := range candidates {
		sock, derr := dialer.DialContext(ctx, "tcp", addr.String())
		if derr != nil {
			dialErrs = multierror.Append(dialErrs, &wirerpc.Error{Op: "Client.Connect", Code: wirerpc.ErrConnect, Msg: "dial " + addr.String(), Inner: derr})
			c.logger.Warnf("client: dial %s failed: %v", addr, derr)
			continue
		}

		factory := &conn.Factory{Template: c.template, Loops: c.loops, Workers: c.workers, Logger: c.logger, Config: c.cfg}
		live := factory.New(sock)
		live.SetCloseHandler(func(closed *conn.Connection) {
			c.mu.Lock()
			if c.current == closed {
				c.current = nil
			}
			c.mu.Unlock()
		})

		c.mu.Lock()
		c.current = live
		c.mu.Unlock()

		live.ScheduleRead()
		return nil
	}

	return &wirerpc.Error{Op: "Client.Connect", Code: wirerpc.ErrConnect, Msg: "exhausted all candidate endpoints for " + server + ":" + port, Inner: dialErrs}
}

// Disconnect is a best-effort, idempotent close of the current connection.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	cur := c.current
	c.current = nil
	c.mu.Unlock()
	if cur == nil {
		return nil
	}
	return cur.Close()
}

// Connection returns the current live connection, or nil if disconnected.
func (c *Client) Connection() *conn.Connection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Stop tears down the client's reactor and worker pools. Call after the
// last Disconnect; the Client is not reusable afterward.
func (c *Client) Stop() {
	_ = c.Disconnect()
	c.loops.Stop()
	c.workers.Stop()
}
