// internal/translate/translate.go
package translate

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tamzrod/modbus-recon/internal/snapshot"
)

// Undecodable replaces a value or byte that has no text rendering.
const Undecodable = "\uFFFD"

// HexErrorPrefix starts every failed hex decode.
const HexErrorPrefix = "unable to decode hex data"

// Value is one register rendered several ways.
type Value struct {
	Value uint16 `json:"value"`
	Char  string `json:"char"`
	Hex   string `json:"hex"`
	Text  string `json:"text"`
}

// Range mirrors snapshot.Range with rendered words.
type Range struct {
	Kind   snapshot.Kind `json:"kind"`
	Start  uint16        `json:"start"`
	Bits   []bool        `json:"bits,omitempty"`
	Values []Value       `json:"values,omitempty"`
	Err    string        `json:"error,omitempty"`
}

// Translation is the human-readable twin of a Snapshot.
type Translation struct {
	Target string    `json:"target"`
	Unit   uint8     `json:"unit"`
	At     time.Time `json:"at"`
	Ranges []Range   `json:"ranges"`
}

// Char renders v as its ASCII character when printable (0x20..0x7E).
func Char(v uint16) string {
	if v >= 0x20 && v <= 0x7E {
		return string(rune(v))
	}
	return Undecodable
}

// Hex renders v as a 0x-prefixed, zero-padded big-endian hex string.
func Hex(v uint16) string {
	return fmt.Sprintf("0x%04X", v)
}

// DecodeHex decodes a hex string (optional 0x prefix) as text.
// Invalid UTF-8 is replaced and NUL padding trimmed; malformed hex yields
// a string starting with HexErrorPrefix. It never fails.
func DecodeHex(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")

	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Sprintf("%s: %v", HexErrorPrefix, err)
	}
	return strings.Trim(strings.ToValidUTF8(string(b), Undecodable), "\x00")
}

// Word renders one register value.
func Word(v uint16) Value {
	h := Hex(v)
	return Value{Value: v, Char: Char(v), Hex: h, Text: DecodeHex(h)}
}

// Translate renders every word of snap. Bits and errors pass through.
func Translate(snap snapshot.Snapshot) Translation {
	out := Translation{
		Target: snap.Target,
		Unit:   snap.Unit,
		At:     snap.At,
		Ranges: make([]Range, 0, len(snap.Ranges)),
	}

	for _, r := range snap.Ranges {
		tr := Range{Kind: r.Kind, Start: r.Start, Err: r.Err}
		if r.Kind.IsBit() {
			tr.Bits = append([]bool(nil), r.Bits...)
		} else if len(r.Words) > 0 {
			tr.Values = make([]Value, len(r.Words))
			for i, w := range r.Words {
				tr.Values[i] = Word(w)
			}
		}
		out.Ranges = append(out.Ranges, tr)
	}
	return out
}

// Message joins the printable characters of words, one per register.
// Non-printable registers are skipped.
func Message(words []uint16) string {
	var sb strings.Builder
	for _, w := range words {
		if c := Char(w); c != Undecodable {
			sb.WriteString(c)
		}
	}
	return sb.String()
}

// Truncate shortens s to n runes, appending "..." when anything was cut.
// n <= 0 disables truncation.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
