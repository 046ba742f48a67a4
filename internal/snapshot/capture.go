// internal/snapshot/capture.go
package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/tamzrod/modbus-recon/internal/session"
)

// Read performs one read of count items of kind starting at start.
// Errors are carried in the returned Range, never dropped.
func Read(ctx context.Context, sess session.Session, unit uint8, kind Kind, start, count uint16) Range {
	r := Range{Kind: kind, Start: start}

	if count == 0 || count > kind.Max() {
		r.Err = fmt.Sprintf("unit %d %s: count %d out of range 1..%d", unit, kind, count, kind.Max())
		return r
	}
	if int(start)+int(count) > 0x10000 {
		r.Err = fmt.Sprintf("unit %d %s: range %d+%d exceeds address space", unit, kind, start, count)
		return r
	}

	resp, err := sess.Do(ctx, session.Request{
		Function: kind.Function(),
		UnitID:   unit,
		Address:  start,
		Quantity: count,
	})
	if err != nil {
		r.Err = fmt.Sprintf("unit %d %s: %v", unit, kind, err)
		return r
	}

	if kind.IsBit() {
		r.Bits = resp.Bits
	} else {
		r.Words = resp.Words
	}
	return r
}

// Capture reads every kind from address 0 in fixed order:
// coils, discrete inputs, input registers, holding registers.
// A failed kind does not stop the others.
func Capture(ctx context.Context, sess session.Session, target string, unit uint8, lim Limits) Snapshot {
	snap := Snapshot{
		Target: target,
		Unit:   unit,
		At:     time.Now().UTC(),
		Ranges: make([]Range, 0, 4),
	}
	for _, k := range Kinds() {
		snap.Ranges = append(snap.Ranges, Read(ctx, sess, unit, k, 0, lim.For(k)))
	}
	return snap
}

// Availability reports whether one kind answered a single-item read.
type Availability struct {
	Kind      Kind   `json:"kind"`
	Available bool   `json:"available"`
	Count     int    `json:"count"`
	Err       string `json:"error,omitempty"`
}

// Discover reads one item of every kind at address 0.
func Discover(ctx context.Context, sess session.Session, unit uint8) []Availability {
	out := make([]Availability, 0, 4)
	for _, k := range Kinds() {
		r := Read(ctx, sess, unit, k, 0, 1)
		out = append(out, Availability{
			Kind:      k,
			Available: !r.Failed(),
			Count:     r.Len(),
			Err:       r.Err,
		})
	}
	return out
}
