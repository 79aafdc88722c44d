package caller

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boxcast/wirerpc"
	"github.com/boxcast/wirerpc/conn"
	"github.com/boxcast/wirerpc/internal/reactor"
	"github.com/boxcast/wirerpc/internal/worker"
)

func newCallerConn(t *testing.T) (*conn.Connection, net.Conn, func()) {
	t.Helper()
	callerSock, peerSock := net.Pipe()

	loops := reactor.NewPool(1, 0)
	workers := worker.NewPool(2, 0)
	factory := &conn.Factory{
		Template: conn.NewTemplate(),
		Loops:    loops,
		Workers:  workers,
		Logger:   wirerpc.Default(),
		Config:   wirerpc.DefaultConfig(),
	}
	c := factory.New(callerSock)
	c.ScheduleRead()

	return c, peerSock, func() {
		loops.Stop()
		workers.Stop()
		peerSock.Close()
	}
}

// readOneFrame reads exactly one length-prefixed frame off sock and returns
// the decoded envelope, failing the test on timeout.
func readOneFrame(t *testing.T, sock net.Conn) *wirerpc.Envelope {
	t.Helper()
	d := wirerpc.NewFrameDecoder()
	buf := make([]byte, 1)
	for {
		sock.SetReadDeadline(time.Now().Add(2 * time.Second))
		n, err := sock.Read(buf)
		require.NoError(t, err)
		if n == 0 {
			continue
		}
		switch d.Consume(buf[0]) {
		case wirerpc.DecodeOK:
			return d.Envelope
		case wirerpc.DecodeFail:
			t.Fatalf("frame decode failed: %v", d.LastErr)
		}
	}
}

func TestCallSendsRequestAndCompletesOnResponse(t *testing.T) {
	c, peer, cleanup := newCallerConn(t)
	defer cleanup()

	ctrl := &Controller{}
	var mu sync.Mutex
	var parsed string
	done := make(chan struct{})

	Call(c, ctrl, "example.Echo.Echo", "example.Echo.EchoResponse", []byte("ping"),
		func(content []byte) error {
			mu.Lock()
			parsed = string(content)
			mu.Unlock()
			return nil
		},
		func() { close(done) },
	)

	req := readOneFrame(t, peer)
	assert.Equal(t, wirerpc.KindRequest, req.Kind)
	assert.Equal(t, wirerpc.Hash8("example.Echo.Echo"), req.Identify)
	assert.Equal(t, []byte("ping"), req.Content)
	require.NotZero(t, req.ResponseIdentify)

	resp := &wirerpc.Envelope{Kind: wirerpc.KindResponse, Identify: req.ResponseIdentify, Content: []byte("pong")}
	bufs, err := wirerpc.EncodeFrame(resp)
	require.NoError(t, err)
	for _, b := range bufs {
		_, werr := peer.Write(b)
		require.NoError(t, werr)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for response dispatch")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "pong", parsed)
	assert.False(t, ctrl.Failed())
}

func TestCallSetsControllerFailedOnParseError(t *testing.T) {
	c, peer, cleanup := newCallerConn(t)
	defer cleanup()

	ctrl := &Controller{}
	done := make(chan struct{})

	Call(c, ctrl, "example.Echo.Echo", "example.Echo.EchoResponse", []byte("ping"),
		func(content []byte) error { return assertParseErr },
		func() { close(done) },
	)

	req := readOneFrame(t, peer)
	resp := &wirerpc.Envelope{Kind: wirerpc.KindResponse, Identify: req.ResponseIdentify, Content: []byte("garbage")}
	bufs, err := wirerpc.EncodeFrame(resp)
	require.NoError(t, err)
	for _, b := range bufs {
		_, werr := peer.Write(b)
		require.NoError(t, werr)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for response dispatch")
	}

	assert.True(t, ctrl.Failed())
	assert.Contains(t, ctrl.FailedMessage(), "example.Echo.Echo")
}

func TestCallWithEmptyContentFailsLocallyWithoutSending(t *testing.T) {
	c, peer, cleanup := newCallerConn(t)
	defer cleanup()

	ctrl := &Controller{}
	done := make(chan struct{})
	Call(c, ctrl, "example.Echo.Echo", "example.Echo.EchoResponse", nil,
		func(content []byte) error { return nil },
		func() { close(done) },
	)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("done callback never ran for an empty-content call")
	}
	assert.True(t, ctrl.Failed())

	// Nothing should have been written to the peer.
	peer.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	buf := make([]byte, 1)
	_, err := peer.Read(buf)
	assert.Error(t, err)
}

var assertParseErr = &wirerpc.Error{Op: "test", Code: wirerpc.ErrResponseParse, Msg: "boom"}

func TestPeerDisconnectMidCallLeavesPendingUnfired(t *testing.T) {
	c, peer, cleanup := newCallerConn(t)
	defer cleanup()

	ctrl := &Controller{}
	done := make(chan struct{})
	Call(c, ctrl, "example.Long.Call", "example.Long.CallResponse", []byte("x"),
		func(content []byte) error { return nil },
		func() { close(done) },
	)

	// The peer reads the request, then hangs up without replying.
	_ = readOneFrame(t, peer)
	require.NoError(t, peer.Close())

	assert.Eventually(t, func() bool {
		return c.Status() == conn.StatusDisconnected
	}, 2*time.Second, 10*time.Millisecond)

	// With DrainPendingOnClose off (the default), the parked callback is
	// discarded, not fired.
	select {
	case <-done:
		t.Fatal("pending callback must not fire on disconnect")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestUnknownResponseIdentifyIsDroppedAndConnectionSurvives(t *testing.T) {
	c, peer, cleanup := newCallerConn(t)
	defer cleanup()

	// A stale response that matches nothing must be dropped without
	// closing the connection.
	stale := &wirerpc.Envelope{Kind: wirerpc.KindResponse, Identify: 0xDEADBEEF, Content: []byte("stale")}
	bufs, err := wirerpc.EncodeFrame(stale)
	require.NoError(t, err)
	for _, b := range bufs {
		_, werr := peer.Write(b)
		require.NoError(t, werr)
	}

	// A subsequent valid RPC on the same connection still succeeds.
	ctrl := &Controller{}
	done := make(chan struct{})
	var mu sync.Mutex
	var parsed string
	Call(c, ctrl, "example.Echo.Echo", "example.Echo.EchoResponse", []byte("ping"),
		func(content []byte) error {
			mu.Lock()
			parsed = string(content)
			mu.Unlock()
			return nil
		},
		func() { close(done) },
	)

	req := readOneFrame(t, peer)
	resp := &wirerpc.Envelope{Kind: wirerpc.KindResponse, Identify: req.ResponseIdentify, Content: []byte("pong")}
	bufs, err = wirerpc.EncodeFrame(resp)
	require.NoError(t, err)
	for _, b := range bufs {
		_, werr := peer.Write(b)
		require.NoError(t, werr)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for response dispatch")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "pong", parsed)
	assert.False(t, ctrl.Failed())
	assert.Equal(t, conn.StatusConnected, c.Status())
}
