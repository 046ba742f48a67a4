// internal/banner/grab.go
package banner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tamzrod/modbus-recon/internal/session"
)

// DefaultMaxBytes bounds a single banner read.
const DefaultMaxBytes = 1024

// ErrNoResponse means the device stayed silent or closed the connection.
var ErrNoResponse = errors.New("banner: no response")

// Transport is the raw send/receive pair; *session.RawConn implements it.
type Transport interface {
	Send(frame []byte) error
	Receive(maxBytes int) ([]byte, error)
}

// Grab sends RequestFrame over t and decodes the reply.
// The returned error wraps ErrNoResponse, a *session.FormatError,
// a *session.ProtocolError or a transport error.
func Grab(ctx context.Context, t Transport, maxBytes int) (*DeviceBanner, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	if err := t.Send(RequestFrame); err != nil {
		return nil, fmt.Errorf("banner: send: %w", err)
	}

	buf, err := t.Receive(maxBytes)
	if err != nil {
		var te *session.TimeoutError
		if errors.As(err, &te) {
			return nil, fmt.Errorf("%w: %w", ErrNoResponse, err)
		}
		return nil, fmt.Errorf("banner: receive: %w", err)
	}
	if len(buf) == 0 {
		return nil, ErrNoResponse
	}

	return Decode(buf)
}

// GrabAddress opens a raw connection to address, grabs the banner and closes it.
// The raw bytes are returned alongside any decode error so they can still be saved.
func GrabAddress(ctx context.Context, address string, timeout time.Duration, maxBytes int) (*DeviceBanner, []byte, error) {
	conn, err := session.DialRaw(ctx, address, timeout)
	if err != nil {
		return nil, nil, err
	}
	defer conn.Close()

	rec := &recorder{Transport: conn}
	b, err := Grab(ctx, rec, maxBytes)
	return b, rec.last, err
}

// recorder keeps the last received buffer.
type recorder struct {
	Transport
	last []byte
}

func (r *recorder) Receive(maxBytes int) ([]byte, error) {
	buf, err := r.Transport.Receive(maxBytes)
	r.last = buf
	return buf, err
}
