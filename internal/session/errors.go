// internal/session/errors.go
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"syscall"

	"github.com/goburrow/modbus"
)

// ConnectionError means the transport could not be established or was lost.
type ConnectionError struct {
	Address string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to %s failed: %v", e.Address, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ProtocolError is a well-formed Modbus exception response.
type ProtocolError struct {
	Function FunctionCode
	Unit     uint8
	Code     byte
	Message  string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("unit %d %s: exception %d (%s)", e.Unit, e.Function, e.Code, e.Message)
}

// ModbusCode exposes the raw exception code.
func (e *ProtocolError) ModbusCode() uint16 { return uint16(e.Code) }

// TimeoutError means no response arrived within the session timeout.
type TimeoutError struct {
	Function FunctionCode
	Unit     uint8
	Err      error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("unit %d %s: timeout: %v", e.Unit, e.Function, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// FormatError means a response arrived but could not be parsed into the expected shape.
// Offset is -1 when the position is unknown.
type FormatError struct {
	Offset int
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("malformed response at offset %d: %s", e.Offset, e.Reason)
	}
	return "malformed response: " + e.Reason
}

func (e *FormatError) Unwrap() error { return e.Err }

var exceptionNames = map[byte]string{
	1:  "illegal function",
	2:  "illegal data address",
	3:  "illegal data value",
	4:  "server device failure",
	5:  "acknowledge",
	6:  "server device busy",
	7:  "negative acknowledge",
	8:  "memory parity error",
	10: "gateway path unavailable",
	11: "gateway target device failed to respond",
}

// ExceptionName returns the standard name of a Modbus exception code.
func ExceptionName(code byte) string {
	if n, ok := exceptionNames[code]; ok {
		return n
	}
	return "unknown exception"
}

// Classify maps a raw transport/library error onto the error taxonomy.
// Errors already in the taxonomy are returned unchanged.
func Classify(address string, req Request, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnsupportedFunction) {
		return err
	}

	var (
		ce *ConnectionError
		pe *ProtocolError
		te *TimeoutError
		fe *FormatError
	)
	if errors.As(err, &ce) || errors.As(err, &pe) || errors.As(err, &te) || errors.As(err, &fe) {
		return err
	}

	var me *modbus.ModbusError
	if errors.As(err, &me) {
		return &ProtocolError{
			Function: req.Function,
			Unit:     req.UnitID,
			Code:     me.ExceptionCode,
			Message:  me.Error(),
		}
	}

	if isTimeout(err) {
		return &TimeoutError{Function: req.Function, Unit: req.UnitID, Err: err}
	}

	if isConnectionError(err) {
		return &ConnectionError{Address: address, Err: err}
	}

	// goburrow reports header/length/id mismatches as plain "modbus: ..." errors.
	if strings.HasPrefix(err.Error(), "modbus:") {
		return &FormatError{Offset: -1, Reason: err.Error()}
	}

	return &ConnectionError{Address: address, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isConnectionError(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}
