// internal/writer/types.go
package writer

import (
	"errors"
	"fmt"

	"github.com/tamzrod/modbus-recon/internal/snapshot"
)

// Per-request maxima for FC 15 / FC 16.
const (
	MaxCoilsPerWrite     = 1968
	MaxRegistersPerWrite = 123
)

// Plan is one fully-resolved write. Geometry only.
//
// Single forces FC 5 / FC 6 and requires exactly one value.
type Plan struct {
	Kind    snapshot.Kind
	Unit    uint8
	Address uint16
	Bits    []bool
	Words   []uint16
	Single  bool
}

// Len returns the number of values to write.
func (p Plan) Len() int {
	if p.Kind == snapshot.Coils {
		return len(p.Bits)
	}
	return len(p.Words)
}

// Validate checks the plan without touching the network.
func (p Plan) Validate() error {
	switch p.Kind {
	case snapshot.Coils:
		if len(p.Words) > 0 {
			return errors.New("writer: coil plan carries register values")
		}
	case snapshot.HoldingRegisters:
		if len(p.Bits) > 0 {
			return errors.New("writer: register plan carries coil values")
		}
	default:
		return fmt.Errorf("writer: %s are read-only", p.Kind)
	}

	n := p.Len()
	if n == 0 {
		return errors.New("writer: no values to write")
	}
	if p.Single && n != 1 {
		return fmt.Errorf("writer: single write needs exactly one value (got %d)", n)
	}
	if int(p.Address)+n > 0x10000 {
		return fmt.Errorf("writer: %d values at address %d exceed the address space", n, p.Address)
	}
	return nil
}
