// internal/session/raw.go
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

// RawConn is a plain TCP socket for frames that bypass ADU encoding.
type RawConn struct {
	conn    net.Conn
	address string
	timeout time.Duration
}

// DialRaw opens a raw TCP connection to address.
func DialRaw(ctx context.Context, address string, timeout time.Duration) (*RawConn, error) {
	if timeout <= 0 {
		timeout = time.Second
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, &ConnectionError{Address: address, Err: err}
	}
	return &RawConn{conn: conn, address: address, timeout: timeout}, nil
}

// Send writes the whole frame or fails.
func (c *RawConn) Send(frame []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return &ConnectionError{Address: c.address, Err: err}
	}
	n, err := c.conn.Write(frame)
	if err != nil {
		if isTimeout(err) {
			return &TimeoutError{Err: err}
		}
		return &ConnectionError{Address: c.address, Err: err}
	}
	if n < len(frame) {
		return &ConnectionError{
			Address: c.address,
			Err:     fmt.Errorf("short write (%d bytes written, %d bytes expected)", n, len(frame)),
		}
	}
	return nil
}

// Receive performs a single read of at most maxBytes.
// A peer that closes without sending anything yields an empty slice and no error.
func (c *RawConn) Receive(maxBytes int) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = 1024
	}
	buf := make([]byte, maxBytes)
	if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, &ConnectionError{Address: c.address, Err: err}
	}
	n, err := c.conn.Read(buf)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return buf[:n], nil
		}
		if isTimeout(err) {
			return buf[:n], &TimeoutError{Err: err}
		}
		return buf[:n], &ConnectionError{Address: c.address, Err: err}
	}
	return buf[:n], nil
}

// Close closes the socket.
func (c *RawConn) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
