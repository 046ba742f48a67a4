// internal/bruteforce/prober.go
package bruteforce

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-recon/internal/probe"
	"github.com/tamzrod/modbus-recon/internal/session"
)

// Label is the report classification of one function code.
type Label string

const (
	Success        Label = "Success"
	ProtocolError  Label = "ProtocolError"
	NotImplemented Label = "NotImplemented"
	NoResponse     Label = "NoResponse"
)

// Row is one line of the enumeration table.
// Outcome is zero for NotImplemented rows.
type Row struct {
	Code    uint8         `json:"code"`
	Label   Label         `json:"label"`
	Outcome probe.Outcome `json:"outcome"`
}

// Prober enumerates the function codes a unit implements.
type Prober struct {
	sess session.Session
	log  zerolog.Logger
}

func New(sess session.Session, log zerolog.Logger) (*Prober, error) {
	if sess == nil {
		return nil, errors.New("bruteforce: session required")
	}
	return &Prober{
		sess: sess,
		log:  log.With().Str("component", "bruteforce").Logger(),
	}, nil
}

// Run tries codes 1..255 in ascending order against unit, one at a time.
// A cancelled run returns the rows gathered so far and ctx.Err().
func (p *Prober) Run(ctx context.Context, unit uint8) ([]Row, error) {
	rows := make([]Row, 0, 255)

	for code := 1; code <= 255; code++ {
		if err := ctx.Err(); err != nil {
			p.log.Warn().Uint8("unit", unit).Int("rows", len(rows)).Msg("enumeration cancelled")
			return rows, err
		}

		fc := session.FunctionCode(code)
		req, ok := requestFor(fc, unit)
		if !ok {
			rows = append(rows, Row{Code: uint8(code), Label: NotImplemented})
			continue
		}

		out := probe.Do(ctx, p.sess, req)
		row := Row{Code: uint8(code), Label: labelFor(out), Outcome: out}
		rows = append(rows, row)

		p.log.Debug().
			Uint8("unit", unit).
			Str("fc", fc.String()).
			Str("label", string(row.Label)).
			Msg("function probed")
	}

	p.log.Info().Uint8("unit", unit).Int("implemented", len(Implemented(rows))).Msg("enumeration finished")
	return rows, nil
}

// requestFor builds the minimal request for a known code.
// Writes target address 0 with an off / zero value.
func requestFor(fc session.FunctionCode, unit uint8) (session.Request, bool) {
	req := session.Request{Function: fc, UnitID: unit}

	switch fc {
	case session.ReadCoils,
		session.ReadDiscreteInputs,
		session.ReadHoldingRegisters,
		session.ReadInputRegisters:
		req.Quantity = 1

	case session.WriteSingleCoil, session.WriteMultipleCoils:
		req.Quantity = 1
		req.Bits = []bool{false}

	case session.WriteSingleRegister, session.WriteMultipleRegisters:
		req.Quantity = 1
		req.Words = []uint16{0}

	case session.ReadDeviceIdentification:

	default:
		return session.Request{}, false
	}
	return req, true
}

func labelFor(o probe.Outcome) Label {
	switch o.Kind {
	case probe.Success:
		return Success
	case probe.ProtocolError:
		return ProtocolError
	default:
		return NoResponse
	}
}

// Implemented filters rows down to codes the unit answered successfully.
func Implemented(rows []Row) []uint8 {
	var out []uint8
	for _, r := range rows {
		if r.Label == Success {
			out = append(out, r.Code)
		}
	}
	return out
}

// KnownCodes lists the codes that have a request shape.
func KnownCodes() []session.FunctionCode {
	var out []session.FunctionCode
	for code := 1; code <= 255; code++ {
		if _, ok := requestFor(session.FunctionCode(code), 0); ok {
			out = append(out, session.FunctionCode(code))
		}
	}
	return out
}
