// internal/banner/decode_test.go
package banner

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/spaolacci/murmur3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/modbus-recon/internal/session"
)

// frame builds a response with the given objects and declared count.
func frame(count byte, objects ...[]byte) []byte {
	buf := []byte{
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xFF, // MBAP, length unused by the decoder
		0x2B, 0x0E, 0x03, 0x83, 0x00, 0x00, count,
	}
	for _, o := range objects {
		buf = append(buf, o...)
	}
	return buf
}

func obj(id byte, v string) []byte {
	return append([]byte{id, byte(len(v))}, v...)
}

func TestDecode_VendorAndProduct(t *testing.T) {
	b, err := Decode(frame(2, obj(0x00, "Acme"), obj(0x04, "Widget")))
	require.NoError(t, err)

	assert.Equal(t, 2, b.Count)
	require.Len(t, b.Objects, 2)
	assert.Equal(t, byte(0x83), b.Conformity)

	v, ok := b.Lookup(VendorName)
	assert.True(t, ok)
	assert.Equal(t, "Acme", v)

	p, ok := b.Lookup(ProductName)
	assert.True(t, ok)
	assert.Equal(t, "Widget", p)

	_, ok = b.Lookup(ModelName)
	assert.False(t, ok)

	assert.Len(t, b.Fingerprint, 8)
}

func TestDecode_TruncatedMidObject(t *testing.T) {
	buf := frame(2, obj(0x00, "Acme"), obj(0x04, "Widget"))
	buf = buf[:len(buf)-3]

	_, err := Decode(buf)
	var fe *session.FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 20, fe.Offset)
}

func TestDecode_CountExceedsObjects(t *testing.T) {
	_, err := Decode(frame(3, obj(0x00, "Acme")))
	var fe *session.FormatError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Reason, "object 2 of 3")
}

func TestDecode_ObjectHeaderCut(t *testing.T) {
	buf := append(frame(1), 0x00)
	_, err := Decode(buf)
	var fe *session.FormatError
	assert.ErrorAs(t, err, &fe)
}

func TestDecode_ShortResponse(t *testing.T) {
	for n := 0; n < MinResponseLen; n++ {
		buf := frame(0)[:n]
		_, err := Decode(buf)
		require.Errorf(t, err, "len %d", n)
		assert.ErrorIs(t, err, ErrShortResponse)

		var fe *session.FormatError
		assert.ErrorAs(t, err, &fe)
	}
}

func TestDecode_ZeroObjects(t *testing.T) {
	b, err := Decode(frame(0))
	require.NoError(t, err)
	assert.Zero(t, b.Count)
	assert.Empty(t, b.Objects)
}

func TestDecode_UnknownAndPrivateIDsKept(t *testing.T) {
	b, err := Decode(frame(3, obj(0x07, "x"), obj(0x80, "vendor"), obj(0xFF, "z")))
	require.NoError(t, err)
	require.Len(t, b.Objects, 3)

	assert.Equal(t, Unknown, b.Objects[0].Name)
	assert.Equal(t, byte(0x07), b.Objects[0].ID)
	assert.Equal(t, "x", b.Objects[0].Value)
	assert.Equal(t, PrivateObjects, b.Objects[1].Name)
	assert.Equal(t, PrivateObjects, b.Objects[2].Name)
}

func TestDecode_InvalidUTF8Dropped(t *testing.T) {
	raw := []byte{0x00, 0x05, 'A', 0xFF, 'c', 0xFE, 'e'}
	b, err := Decode(frame(1, raw))
	require.NoError(t, err)

	assert.Equal(t, "Ace", b.Objects[0].Value)
	assert.Equal(t, []byte{'A', 0xFF, 'c', 0xFE, 'e'}, b.Objects[0].Raw)
}

func TestDecode_Exception(t *testing.T) {
	buf := []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x03, 0x01, 0xAB, 0x01}
	_, err := Decode(buf)

	var pe *session.ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, byte(1), pe.Code)
	assert.Equal(t, session.ReadDeviceIdentification, pe.Function)
}

func TestDecode_RawRetainedAndCopied(t *testing.T) {
	buf := frame(1, obj(0x01, "P-100"))
	b, err := Decode(buf)
	require.NoError(t, err)

	buf[len(buf)-1] = '9'
	assert.Equal(t, byte('0'), b.Raw[len(b.Raw)-1])
	assert.Equal(t, "P-100", b.Objects[0].Value)
}

func TestDecode_FingerprintStable(t *testing.T) {
	a, err := Decode(frame(1, obj(0x00, "Acme")))
	require.NoError(t, err)
	b, err := Decode(frame(1, obj(0x00, "Acme")))
	require.NoError(t, err)
	c, err := Decode(frame(1, obj(0x00, "Acne")))
	require.NoError(t, err)

	assert.Equal(t, a.Fingerprint, b.Fingerprint)
	assert.NotEqual(t, a.Fingerprint, c.Fingerprint)
}

func TestDecode_FingerprintOddLengthPDU(t *testing.T) {
	buf := frame(2, obj(0x00, "Acme"), obj(0x04, "Widget"))
	pdu := buf[mbapHeaderLen:]
	require.NotZero(t, len(pdu)%4, "PDU length must not be a multiple of 4")

	b, err := Decode(buf)
	require.NoError(t, err)

	h := murmur3.New32WithSeed(0)
	_, _ = h.Write(pdu)
	assert.Equal(t, fmt.Sprintf("%08x", h.Sum32()), b.Fingerprint)
	assert.Len(t, b.Fingerprint, 8)
}

func TestNameOf(t *testing.T) {
	cases := map[byte]ObjectName{
		0x00: VendorName,
		0x04: ProductName,
		0x06: UserAppName,
		0x07: Unknown,
		0x7F: Unknown,
		0x80: PrivateObjects,
		0x81: Unknown,
		0xFE: Unknown,
		0xFF: PrivateObjects,
	}
	for id, want := range cases {
		assert.Equal(t, want, NameOf(id), "id 0x%02X", id)
	}
}

func TestObjectName_Text(t *testing.T) {
	var n ObjectName
	require.NoError(t, n.UnmarshalText([]byte("VendorUrl")))
	assert.Equal(t, VendorURL, n)
	assert.Error(t, n.UnmarshalText([]byte("Nope")))
}

// ---- Grab ----

type fakeTransport struct {
	sent []byte
	resp []byte
	err  error
}

func (f *fakeTransport) Send(frame []byte) error {
	f.sent = frame
	return nil
}

func (f *fakeTransport) Receive(int) ([]byte, error) { return f.resp, f.err }

func TestGrab(t *testing.T) {
	ft := &fakeTransport{resp: frame(1, obj(0x00, "Acme"))}
	b, err := Grab(context.Background(), ft, 0)
	require.NoError(t, err)
	assert.Equal(t, RequestFrame, ft.sent)
	assert.Equal(t, "Acme", b.Objects[0].Value)
}

func TestGrab_NoResponse(t *testing.T) {
	_, err := Grab(context.Background(), &fakeTransport{}, 0)
	assert.ErrorIs(t, err, ErrNoResponse)

	timeout := &session.TimeoutError{Err: errors.New("i/o timeout")}
	_, err = Grab(context.Background(), &fakeTransport{err: timeout}, 0)
	assert.ErrorIs(t, err, ErrNoResponse)
	var te *session.TimeoutError
	assert.ErrorAs(t, err, &te)
}

func TestGrab_DistinctFailures(t *testing.T) {
	_, noResp := Grab(context.Background(), &fakeTransport{}, 0)
	_, short := Grab(context.Background(), &fakeTransport{resp: []byte{0, 0, 0}}, 0)
	_, format := Grab(context.Background(), &fakeTransport{resp: frame(2, obj(0, "A"))}, 0)

	assert.ErrorIs(t, noResp, ErrNoResponse)
	assert.ErrorIs(t, short, ErrShortResponse)
	assert.NotErrorIs(t, format, ErrShortResponse)
	assert.NotErrorIs(t, format, ErrNoResponse)
}

func TestGrab_CancelledBeforeSend(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ft := &fakeTransport{}
	_, err := Grab(ctx, ft, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, ft.sent)
}
