// internal/session/tcp_test.go
package session

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/goburrow/modbus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialTest(t *testing.T, addr string, timeout time.Duration) *TCP {
	t.Helper()
	s, err := Dial(context.Background(), Config{
		Address: addr,
		Timeout: timeout,
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestTCP_ReadRegisters(t *testing.T) {
	srv := newFakeServer(t, registerServer)
	s := dialTest(t, srv.Addr(), time.Second)

	resp, err := s.Do(context.Background(), Request{
		Function: ReadHoldingRegisters,
		UnitID:   7,
		Address:  10,
		Quantity: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, []uint16{10, 11, 12}, resp.Words)
	assert.Equal(t, uint8(7), resp.UnitID)
	assert.Equal(t, ReadHoldingRegisters, resp.Function)
}

func TestTCP_ReadCoils(t *testing.T) {
	srv := newFakeServer(t, registerServer)
	s := dialTest(t, srv.Addr(), time.Second)

	resp, err := s.Do(context.Background(), Request{
		Function: ReadCoils,
		UnitID:   1,
		Quantity: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true, false}, resp.Bits)
}

func TestTCP_ExceptionIsProtocolError(t *testing.T) {
	srv := newFakeServer(t, func(unit byte, pdu []byte) ([]byte, bool) {
		return []byte{pdu[0] | 0x80, 0x02}, true
	})
	s := dialTest(t, srv.Addr(), time.Second)

	_, err := s.Do(context.Background(), Request{Function: ReadInputRegisters, UnitID: 3, Quantity: 1})

	var pe *ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, byte(2), pe.Code)
	assert.Equal(t, uint8(3), pe.Unit)
	assert.Contains(t, pe.Message, "illegal data address")
}

func TestTCP_TimeoutThenRecovers(t *testing.T) {
	var mu sync.Mutex
	silent := true
	srv := newFakeServer(t, func(unit byte, pdu []byte) ([]byte, bool) {
		mu.Lock()
		defer mu.Unlock()
		if silent {
			return nil, false
		}
		return registerServer(unit, pdu)
	})
	s := dialTest(t, srv.Addr(), 150*time.Millisecond)

	_, err := s.Do(context.Background(), Request{Function: ReadHoldingRegisters, UnitID: 1, Quantity: 1})
	var te *TimeoutError
	require.ErrorAs(t, err, &te)

	mu.Lock()
	silent = false
	mu.Unlock()

	resp, err := s.Do(context.Background(), Request{Function: ReadHoldingRegisters, UnitID: 1, Address: 5, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, []uint16{5}, resp.Words)
	assert.Equal(t, 2, srv.Conns(), "session should reconnect after a timeout")
}

func TestTCP_ReadDeviceIdentification(t *testing.T) {
	srv := newFakeServer(t, func(unit byte, pdu []byte) ([]byte, bool) {
		if pdu[0] != 0x2B {
			return []byte{pdu[0] | 0x80, 0x01}, true
		}
		return []byte{0x2B, 0x0E, 0x01, 0x01, 0x00, 0x00, 0x01, 0x00, 0x04, 'A', 'c', 'm', 'e'}, true
	})
	s := dialTest(t, srv.Addr(), time.Second)

	resp, err := s.Do(context.Background(), Request{Function: ReadDeviceIdentification, UnitID: 1})
	require.NoError(t, err)
	assert.Equal(t, byte(0x0E), resp.Data[0])
	assert.Equal(t, "Acme", string(resp.Data[len(resp.Data)-4:]))
}

func TestTCP_ConcurrentUseIsSerialized(t *testing.T) {
	srv := newFakeServer(t, registerServer)
	s := dialTest(t, srv.Addr(), time.Second)

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 1; i <= 32; i++ {
		wg.Add(1)
		go func(unit uint8) {
			defer wg.Done()
			resp, err := s.Do(context.Background(), Request{
				Function: ReadHoldingRegisters,
				UnitID:   unit,
				Address:  uint16(unit),
				Quantity: 1,
			})
			if err != nil {
				errs <- err
				return
			}
			if resp.Words[0] != uint16(unit) {
				errs <- errors.New("response matched to the wrong request")
			}
		}(uint8(i))
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent request failed: %v", err)
	}
}

func TestTCP_UnsupportedFunction(t *testing.T) {
	srv := newFakeServer(t, registerServer)
	s := dialTest(t, srv.Addr(), time.Second)

	_, err := s.Do(context.Background(), Request{Function: 0x41, UnitID: 1})
	assert.ErrorIs(t, err, ErrUnsupportedFunction)
}

func TestTCP_ClosedSession(t *testing.T) {
	srv := newFakeServer(t, registerServer)
	s := dialTest(t, srv.Addr(), time.Second)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.Do(context.Background(), Request{Function: ReadCoils, UnitID: 1, Quantity: 1})
	var ce *ConnectionError
	assert.ErrorAs(t, err, &ce)
}

func TestDial_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = Dial(context.Background(), Config{Address: addr, Timeout: 200 * time.Millisecond})
	var ce *ConnectionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, addr, ce.Address)
}

func TestClassify(t *testing.T) {
	req := Request{Function: ReadCoils, UnitID: 9}

	t.Run("modbus exception", func(t *testing.T) {
		err := Classify("x", req, &modbus.ModbusError{FunctionCode: 0x81, ExceptionCode: 4})
		var pe *ProtocolError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, byte(4), pe.Code)
		assert.Equal(t, uint8(9), pe.Unit)
	})

	t.Run("deadline", func(t *testing.T) {
		err := Classify("x", req, context.DeadlineExceeded)
		var te *TimeoutError
		assert.ErrorAs(t, err, &te)
	})

	t.Run("eof", func(t *testing.T) {
		err := Classify("x", req, io.EOF)
		var ce *ConnectionError
		assert.ErrorAs(t, err, &ce)
	})

	t.Run("library framing error", func(t *testing.T) {
		err := Classify("x", req, errors.New("modbus: response transaction id '2' does not match request '1'"))
		var fe *FormatError
		assert.ErrorAs(t, err, &fe)
	})

	t.Run("already classified", func(t *testing.T) {
		in := &TimeoutError{Function: ReadCoils, Unit: 1}
		assert.Same(t, in, Classify("x", req, in))
	})

	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, Classify("x", req, nil))
	})
}

func TestExceptionName(t *testing.T) {
	assert.Equal(t, "illegal function", ExceptionName(1))
	assert.Equal(t, "gateway target device failed to respond", ExceptionName(11))
	assert.Equal(t, "unknown exception", ExceptionName(42))
}
