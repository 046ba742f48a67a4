// internal/session/fakeserver_test.go
package session

import (
	"encoding/binary"
	"io"
	"net"
	"sync"
	"testing"
)

// pduHandler answers one request PDU for a unit.
// Returning ok=false leaves the request unanswered.
type pduHandler func(unit byte, pdu []byte) (resp []byte, ok bool)

// fakeServer is a minimal Modbus TCP responder on 127.0.0.1.
type fakeServer struct {
	ln      net.Listener
	handler pduHandler

	mu    sync.Mutex
	conns int
}

func newFakeServer(t *testing.T, h pduHandler) *fakeServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &fakeServer{ln: ln, handler: h}
	go s.serve()
	t.Cleanup(func() { _ = ln.Close() })
	return s
}

func (s *fakeServer) Addr() string { return s.ln.Addr().String() }

func (s *fakeServer) Conns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns
}

func (s *fakeServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns++
		s.mu.Unlock()
		go s.handle(conn)
	}
}

func (s *fakeServer) handle(conn net.Conn) {
	defer conn.Close()

	for {
		var hdr [7]byte
		if _, err := io.ReadFull(conn, hdr[:]); err != nil {
			return
		}
		length := int(binary.BigEndian.Uint16(hdr[4:6]))
		if length < 1 {
			return
		}
		pdu := make([]byte, length-1)
		if _, err := io.ReadFull(conn, pdu); err != nil {
			return
		}

		resp, ok := s.handler(hdr[6], pdu)
		if !ok {
			continue
		}

		out := make([]byte, 7+len(resp))
		copy(out[0:4], hdr[0:4])
		binary.BigEndian.PutUint16(out[4:6], uint16(1+len(resp)))
		out[6] = hdr[6]
		copy(out[7:], resp)
		if _, err := conn.Write(out); err != nil {
			return
		}
	}
}

// registerServer answers FC 3/4 with register value = address+i,
// FC 1/2 with alternating bits and echoes write requests.
func registerServer(unit byte, pdu []byte) ([]byte, bool) {
	fc := pdu[0]
	switch fc {
	case 1, 2:
		qty := int(binary.BigEndian.Uint16(pdu[3:5]))
		n := (qty + 7) / 8
		out := []byte{fc, byte(n)}
		for i := 0; i < n; i++ {
			out = append(out, 0x55)
		}
		return out, true
	case 3, 4:
		addr := binary.BigEndian.Uint16(pdu[1:3])
		qty := int(binary.BigEndian.Uint16(pdu[3:5]))
		out := []byte{fc, byte(qty * 2)}
		for i := 0; i < qty; i++ {
			out = binary.BigEndian.AppendUint16(out, addr+uint16(i))
		}
		return out, true
	case 5, 6, 15, 16:
		return pdu[:5], true
	default:
		return []byte{fc | 0x80, 0x01}, true
	}
}
