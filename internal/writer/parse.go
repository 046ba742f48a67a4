// internal/writer/parse.go
package writer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/tamzrod/modbus-recon/internal/snapshot"
)

// ParseValues turns operator input into a plan's values.
//
// Coils take comma-separated 0/1 ("1,0,1").
// Holding registers take comma-separated integers ("123,456", "0x2A" for hex)
// when the input starts with a digit, otherwise text: each character becomes
// its code point. A numeric list with a bad entry is rejected, never
// reinterpreted as text.
func ParseValues(kind snapshot.Kind, input string) (bits []bool, words []uint16, err error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil, fmt.Errorf("writer: no values given")
	}

	switch kind {
	case snapshot.Coils:
		for i, f := range strings.Split(input, ",") {
			switch strings.TrimSpace(f) {
			case "1":
				bits = append(bits, true)
			case "0":
				bits = append(bits, false)
			default:
				return nil, nil, fmt.Errorf("writer: coil value %d: %q is not 0 or 1", i+1, f)
			}
		}
		return bits, nil, nil

	case snapshot.HoldingRegisters:
		if !unicode.IsDigit(rune(input[0])) {
			words, err = TextWords(input)
			return nil, words, err
		}
		for i, f := range strings.Split(input, ",") {
			v, err := strconv.ParseUint(strings.TrimSpace(f), 0, 16)
			if err != nil {
				return nil, nil, fmt.Errorf("writer: register value %d: %w", i+1, err)
			}
			words = append(words, uint16(v))
		}
		return nil, words, nil

	default:
		return nil, nil, fmt.Errorf("writer: %s are read-only", kind)
	}
}

// TextWords encodes s one character per register.
func TextWords(s string) ([]uint16, error) {
	words := make([]uint16, 0, len(s))
	for _, r := range s {
		if r > 0xFFFF {
			return nil, fmt.Errorf("writer: character %q does not fit in a register", r)
		}
		words = append(words, uint16(r))
	}
	return words, nil
}

// BannerPlan writes text into holding registers from address 0.
func BannerPlan(unit uint8, text string) (Plan, error) {
	words, err := TextWords(text)
	if err != nil {
		return Plan{}, err
	}
	return Plan{Kind: snapshot.HoldingRegisters, Unit: unit, Words: words}, nil
}

// UnitIDPlan writes newID to holding register 0 with FC 6.
func UnitIDPlan(unit, newID uint8) Plan {
	return Plan{
		Kind:   snapshot.HoldingRegisters,
		Unit:   unit,
		Words:  []uint16{uint16(newID)},
		Single: true,
	}
}
