// internal/session/types.go
package session

import (
	"context"
	"fmt"
)

// FunctionCode is a Modbus function code (1..255).
type FunctionCode uint8

const (
	ReadCoils                FunctionCode = 0x01
	ReadDiscreteInputs       FunctionCode = 0x02
	ReadHoldingRegisters     FunctionCode = 0x03
	ReadInputRegisters       FunctionCode = 0x04
	WriteSingleCoil          FunctionCode = 0x05
	WriteSingleRegister      FunctionCode = 0x06
	WriteMultipleCoils       FunctionCode = 0x0F
	WriteMultipleRegisters   FunctionCode = 0x10
	ReadDeviceIdentification FunctionCode = 0x2B
)

func (fc FunctionCode) String() string {
	switch fc {
	case ReadCoils:
		return "read coils"
	case ReadDiscreteInputs:
		return "read discrete inputs"
	case ReadHoldingRegisters:
		return "read holding registers"
	case ReadInputRegisters:
		return "read input registers"
	case WriteSingleCoil:
		return "write single coil"
	case WriteSingleRegister:
		return "write single register"
	case WriteMultipleCoils:
		return "write multiple coils"
	case WriteMultipleRegisters:
		return "write multiple registers"
	case ReadDeviceIdentification:
		return "read device identification"
	default:
		return fmt.Sprintf("fc %d", uint8(fc))
	}
}

// Request is one Modbus request, geometry only.
//
// Bits carries the values for FC 5 (first element) and FC 15.
// Words carries the values for FC 6 (first element) and FC 16.
type Request struct {
	Function FunctionCode
	UnitID   uint8
	Address  uint16
	Quantity uint16

	Bits  []bool
	Words []uint16
}

// Response is a decoded Modbus response.
// Exactly one of Bits / Words is populated for read functions.
// Data holds the raw response payload (after the function code).
type Response struct {
	Function FunctionCode
	UnitID   uint8

	Bits  []bool   // FC 1,2
	Words []uint16 // FC 3,4
	Data  []byte
}

// Session is the request/response capability every component depends on.
// Each call returns either a decoded response or one of the typed errors
// from errors.go before returning.
type Session interface {
	Do(ctx context.Context, req Request) (Response, error)
	Close() error
}

// Opener opens a new session. Used where a component owns its session scope.
type Opener func(ctx context.Context) (Session, error)
