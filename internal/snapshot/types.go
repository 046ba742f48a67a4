// internal/snapshot/types.go
package snapshot

import (
	"fmt"
	"strings"
	"time"

	"github.com/tamzrod/modbus-recon/internal/session"
)

// Kind is one of the four Modbus data tables.
type Kind uint8

const (
	Coils Kind = iota
	DiscreteInputs
	InputRegisters
	HoldingRegisters
)

var kindLabels = [...]string{
	Coils:            "Coils",
	DiscreteInputs:   "Discrete Inputs",
	InputRegisters:   "Input Registers",
	HoldingRegisters: "Holding Registers",
}

// Kinds returns every kind in capture order.
func Kinds() []Kind {
	return []Kind{Coils, DiscreteInputs, InputRegisters, HoldingRegisters}
}

func (k Kind) String() string {
	if int(k) < len(kindLabels) {
		return kindLabels[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// IsBit reports whether the kind carries booleans.
func (k Kind) IsBit() bool { return k == Coils || k == DiscreteInputs }

// Function returns the read function code for the kind.
func (k Kind) Function() session.FunctionCode {
	switch k {
	case Coils:
		return session.ReadCoils
	case DiscreteInputs:
		return session.ReadDiscreteInputs
	case InputRegisters:
		return session.ReadInputRegisters
	default:
		return session.ReadHoldingRegisters
	}
}

// Max is the protocol limit on items per read.
func (k Kind) Max() uint16 {
	if k.IsBit() {
		return MaxBits
	}
	return MaxWords
}

func (k Kind) MarshalText() ([]byte, error) {
	if int(k) >= len(kindLabels) {
		return nil, fmt.Errorf("snapshot: unknown kind %d", uint8(k))
	}
	return []byte(kindLabels[k]), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind accepts display labels and the short command words.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "coils", "coil":
		return Coils, nil
	case "discrete inputs", "discrete_inputs", "discrete":
		return DiscreteInputs, nil
	case "input registers", "input_registers", "input":
		return InputRegisters, nil
	case "holding registers", "holding_registers", "holding":
		return HoldingRegisters, nil
	}
	return 0, fmt.Errorf("snapshot: unknown register kind %q", s)
}

// Range is the result of one read.
// Exactly one of Bits / Words is used depending on Kind.
// A failed read keeps its place with Err set, so an empty read
// and a failed read stay distinguishable.
type Range struct {
	Kind  Kind     `json:"kind"`
	Start uint16   `json:"start"`
	Bits  []bool   `json:"bits,omitempty"`
	Words []uint16 `json:"words,omitempty"`
	Err   string   `json:"error,omitempty"`
}

// Failed reports whether the read failed.
func (r Range) Failed() bool { return r.Err != "" }

// Len returns the number of values read.
func (r Range) Len() int {
	if r.Kind.IsBit() {
		return len(r.Bits)
	}
	return len(r.Words)
}

// Snapshot is every range captured from one unit at one instant.
// A new capture produces a new Snapshot.
type Snapshot struct {
	Target string    `json:"target"`
	Unit   uint8     `json:"unit"`
	At     time.Time `json:"at"`
	Ranges []Range   `json:"ranges"`
}

// Range returns the first range of kind k.
func (s Snapshot) Range(k Kind) (Range, bool) {
	for _, r := range s.Ranges {
		if r.Kind == k {
			return r, true
		}
	}
	return Range{}, false
}
