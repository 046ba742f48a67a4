// internal/probe/outcome.go
package probe

import (
	"context"
	"errors"
	"fmt"

	"github.com/tamzrod/modbus-recon/internal/session"
)

// Kind tags an Outcome.
type Kind uint8

const (
	Success Kind = iota
	ProtocolError
	Timeout
	ConnectionFailure
)

var kindNames = [...]string{
	Success:           "success",
	ProtocolError:     "protocol error",
	Timeout:           "timeout",
	ConnectionFailure: "connection failure",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// MarshalText renders the kind by name in JSON / CBOR output.
func (k Kind) MarshalText() ([]byte, error) {
	if int(k) >= len(kindNames) {
		return nil, fmt.Errorf("probe: unknown outcome kind %d", uint8(k))
	}
	return []byte(kindNames[k]), nil
}

// Outcome is the result of exactly one probe.
// Payload is set only for Success; Code and Message only for failures.
type Outcome struct {
	Kind    Kind             `json:"kind"`
	Payload session.Response `json:"-"`
	Code    byte             `json:"code,omitempty"`
	Message string           `json:"message,omitempty"`
}

// OK reports whether the probe succeeded.
func (o Outcome) OK() bool { return o.Kind == Success }

func (o Outcome) String() string {
	switch o.Kind {
	case Success:
		return "success"
	case ProtocolError:
		return fmt.Sprintf("protocol error %d: %s", o.Code, o.Message)
	default:
		return fmt.Sprintf("%s: %s", o.Kind, o.Message)
	}
}

// Classify folds a session call result into an Outcome.
//
// A malformed response is reported as a protocol error with code 0:
// the device answered, just not in a shape we could decode.
func Classify(resp session.Response, err error) Outcome {
	if err == nil {
		return Outcome{Kind: Success, Payload: resp}
	}

	var (
		pe *session.ProtocolError
		fe *session.FormatError
		te *session.TimeoutError
	)
	switch {
	case errors.As(err, &pe):
		return Outcome{Kind: ProtocolError, Code: pe.Code, Message: pe.Error()}
	case errors.As(err, &fe):
		return Outcome{Kind: ProtocolError, Code: 0, Message: fe.Error()}
	case errors.As(err, &te):
		return Outcome{Kind: Timeout, Message: te.Error()}
	default:
		return Outcome{Kind: ConnectionFailure, Message: err.Error()}
	}
}

// Do runs one request through s and classifies the result.
func Do(ctx context.Context, s session.Session, req session.Request) Outcome {
	return Classify(s.Do(ctx, req))
}
