package server

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boxcast/wirerpc"
	"github.com/boxcast/wirerpc/conn"
)

func freeTestPort(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	_, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	return port
}

func TestListenRejectsDuplicateAddress(t *testing.T) {
	port := freeTestPort(t)
	s := New(wirerpc.DefaultConfig())
	defer s.Stop()

	require.NoError(t, s.Listen("127.0.0.1", port, conn.NewTemplate()))
	err := s.Listen("127.0.0.1", port, conn.NewTemplate())
	assert.Error(t, err)
}

func TestConnectionsEmptyBeforeAnyAccept(t *testing.T) {
	s := New(wirerpc.DefaultConfig())
	defer s.Stop()
	assert.Empty(t, s.Connections())
}

func TestStopClosesAcceptorsAndReleasesAddress(t *testing.T) {
	port := freeTestPort(t)
	s := New(wirerpc.DefaultConfig())
	require.NoError(t, s.Listen("127.0.0.1", port, conn.NewTemplate()))
	assert.NoError(t, s.Stop())

	// Stop closed the listener, so a fresh Server can bind the same
	// address again.
	s2 := New(wirerpc.DefaultConfig())
	defer s2.Stop()
	assert.NoError(t, s2.Listen("127.0.0.1", port, conn.NewTemplate()))
}
