// internal/writer/writer.go
package writer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/modbus-recon/internal/session"
	"github.com/tamzrod/modbus-recon/internal/snapshot"
)

// Requests splits p into protocol-sized requests, in address order.
func Requests(p Plan) ([]session.Request, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if p.Single {
		req := session.Request{UnitID: p.Unit, Address: p.Address, Quantity: 1, Bits: p.Bits, Words: p.Words}
		if p.Kind == snapshot.Coils {
			req.Function = session.WriteSingleCoil
		} else {
			req.Function = session.WriteSingleRegister
		}
		return []session.Request{req}, nil
	}

	var reqs []session.Request

	switch p.Kind {
	case snapshot.Coils:
		for off := 0; off < len(p.Bits); off += MaxCoilsPerWrite {
			end := min(off+MaxCoilsPerWrite, len(p.Bits))
			reqs = append(reqs, session.Request{
				Function: session.WriteMultipleCoils,
				UnitID:   p.Unit,
				Address:  p.Address + uint16(off),
				Quantity: uint16(end - off),
				Bits:     p.Bits[off:end],
			})
		}
	case snapshot.HoldingRegisters:
		for off := 0; off < len(p.Words); off += MaxRegistersPerWrite {
			end := min(off+MaxRegistersPerWrite, len(p.Words))
			reqs = append(reqs, session.Request{
				Function: session.WriteMultipleRegisters,
				UnitID:   p.Unit,
				Address:  p.Address + uint16(off),
				Quantity: uint16(end - off),
				Words:    p.Words[off:end],
			})
		}
	}
	return reqs, nil
}

// Write executes p against sess.
// Every chunk is attempted; failures are collected, not short-circuited.
func Write(ctx context.Context, sess session.Session, p Plan) error {
	reqs, err := Requests(p)
	if err != nil {
		return err
	}

	var errs []string
	for _, req := range reqs {
		if _, err := sess.Do(ctx, req); err != nil {
			errs = append(errs, fmt.Sprintf(
				"writer: unit=%d fc=%d addr=%d qty=%d err=%v",
				req.UnitID, uint8(req.Function), req.Address, req.Quantity, err,
			))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}
	return nil
}
