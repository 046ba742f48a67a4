// internal/banner/decode.go
package banner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spaolacci/murmur3"

	"github.com/tamzrod/modbus-recon/internal/session"
)

// RequestFrame is the read-device-identification request sent verbatim.
var RequestFrame = []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x06, 0xFF, 0x2B, 0x0E, 0x03, 0x00}

// Response layout (0-indexed):
//
//	0..6   MBAP header
//	7      function code (0x2B, or 0xAB on exception)
//	8      MEI type
//	9      read device id code
//	10     conformity level
//	11     more follows
//	12     next object id
//	13     object count
//	14..   objects: id, length, value
const (
	mbapHeaderLen   = 7
	offsetFunction  = 7
	offsetException = 8
	offsetConform   = 10
	offsetCount     = 13
	offsetObjects   = 14

	// MinResponseLen is the shortest buffer that carries an object count.
	MinResponseLen = 14

	exceptionFunction byte = 0x2B | 0x80
)

// ErrShortResponse is wrapped by the FormatError returned for buffers under MinResponseLen.
var ErrShortResponse = errors.New("banner: response too short")

// DeviceBanner is the decoded identification of one device.
// It is built once per request and not modified afterwards.
type DeviceBanner struct {
	Count       int      `json:"count"`
	Conformity  byte     `json:"conformity"`
	Objects     []Object `json:"objects"`
	Raw         []byte   `json:"raw"`
	Fingerprint string   `json:"fingerprint"`
}

// Lookup returns the value of the first object with the given name.
func (b *DeviceBanner) Lookup(name ObjectName) (string, bool) {
	for _, o := range b.Objects {
		if o.Name == name {
			return o.Value, true
		}
	}
	return "", false
}

// Decode parses a raw read-device-identification response.
//
// Exactly Count objects are decoded; an object whose header or value would
// run past the end of buf yields a *session.FormatError.
// An exception reply yields a *session.ProtocolError.
func Decode(buf []byte) (*DeviceBanner, error) {
	if len(buf) > offsetException && buf[offsetFunction] == exceptionFunction {
		code := buf[offsetException]
		return nil, &session.ProtocolError{
			Function: session.ReadDeviceIdentification,
			Unit:     buf[6],
			Code:     code,
			Message:  session.ExceptionName(code),
		}
	}

	if len(buf) < MinResponseLen {
		return nil, &session.FormatError{
			Offset: len(buf),
			Reason: fmt.Sprintf("got %d bytes, need at least %d", len(buf), MinResponseLen),
			Err:    ErrShortResponse,
		}
	}

	count := int(buf[offsetCount])
	b := &DeviceBanner{
		Count:       count,
		Conformity:  buf[offsetConform],
		Objects:     make([]Object, 0, count),
		Raw:         append([]byte(nil), buf...),
		Fingerprint: fingerprint(buf[mbapHeaderLen:]),
	}

	pos := offsetObjects
	for i := 0; i < count; i++ {
		if pos+2 > len(buf) {
			return nil, &session.FormatError{
				Offset: pos,
				Reason: fmt.Sprintf("object %d of %d: header past end of buffer", i+1, count),
			}
		}
		id := buf[pos]
		n := int(buf[pos+1])
		start := pos + 2
		if start+n > len(buf) {
			return nil, &session.FormatError{
				Offset: pos,
				Reason: fmt.Sprintf("object %d of %d (id 0x%02x): length %d past end of buffer", i+1, count, id, n),
			}
		}

		raw := append([]byte(nil), buf[start:start+n]...)
		b.Objects = append(b.Objects, Object{
			ID:    id,
			Name:  NameOf(id),
			Value: strings.ToValidUTF8(string(raw), ""),
			Raw:   raw,
		})
		pos = start + n
	}

	return b, nil
}

// fingerprint is the murmur3 32-bit hash of the PDU, as 8 hex digits.
func fingerprint(pdu []byte) string {
	h := murmur3.New32WithSeed(0)
	_, _ = h.Write(pdu)
	return fmt.Sprintf("%08x", h.Sum32())
}
