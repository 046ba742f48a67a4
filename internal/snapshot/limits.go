// internal/snapshot/limits.go
package snapshot

// Protocol maxima per read request.
const (
	MaxBits  uint16 = 2000
	MaxWords uint16 = 125
)

// Limits bounds how many items of each kind a capture reads from address 0.
type Limits struct {
	Coils            uint16 `yaml:"coils"`
	DiscreteInputs   uint16 `yaml:"discrete_inputs"`
	InputRegisters   uint16 `yaml:"input_registers"`
	HoldingRegisters uint16 `yaml:"holding_registers"`
}

// DefaultLimits reads the largest single frame of every kind.
func DefaultLimits() Limits {
	return Limits{
		Coils:            MaxBits,
		DiscreteInputs:   MaxBits,
		InputRegisters:   MaxWords,
		HoldingRegisters: MaxWords,
	}
}

// For returns the clamped count for k. Zero means the protocol maximum.
func (l Limits) For(k Kind) uint16 {
	var n uint16
	switch k {
	case Coils:
		n = l.Coils
	case DiscreteInputs:
		n = l.DiscreteInputs
	case InputRegisters:
		n = l.InputRegisters
	case HoldingRegisters:
		n = l.HoldingRegisters
	}
	if n == 0 || n > k.Max() {
		return k.Max()
	}
	return n
}
