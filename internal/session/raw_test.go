// internal/session/raw_test.go
package session

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawConn_SendReceive(t *testing.T) {
	srv := newFakeServer(t, func(unit byte, pdu []byte) ([]byte, bool) {
		return []byte{0x2B, 0x0E, 0x01}, true
	})

	c, err := DialRaw(context.Background(), srv.Addr(), time.Second)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Send([]byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x05, 0xFF, 0x2B, 0x0E, 0x01, 0x00}))

	got, err := c.Receive(0)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x04, 0xFF, 0x2B, 0x0E, 0x01}, got)
}

func TestRawConn_ReceiveTimeout(t *testing.T) {
	srv := newFakeServer(t, func(unit byte, pdu []byte) ([]byte, bool) {
		return nil, false
	})

	c, err := DialRaw(context.Background(), srv.Addr(), 100*time.Millisecond)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Send([]byte{0x00, 0x01, 0x00, 0x00, 0x00, 0x02, 0x01, 0x2B}))

	_, err = c.Receive(64)
	var te *TimeoutError
	assert.ErrorAs(t, err, &te)
}

func TestRawConn_PeerClosesSilently(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err == nil {
			_ = conn.Close()
		}
	}()

	c, err := DialRaw(context.Background(), ln.Addr().String(), time.Second)
	require.NoError(t, err)
	defer c.Close()

	got, err := c.Receive(64)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDialRaw_Refused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = DialRaw(context.Background(), addr, 200*time.Millisecond)
	var ce *ConnectionError
	assert.ErrorAs(t, err, &ce)
}

func TestRawConn_NilClose(t *testing.T) {
	var c *RawConn
	assert.NoError(t, c.Close())
}
