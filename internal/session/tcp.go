// internal/session/tcp.go
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/goburrow/modbus"
	"github.com/rs/zerolog"
)

const (
	exceptionFlag         byte = 0x80
	meiReadDeviceID       byte = 0x0E
	deviceIDCategoryBasic byte = 0x01
)

// ErrUnsupportedFunction is returned for function codes the session cannot encode.
var ErrUnsupportedFunction = errors.New("session: unsupported function code")

// Config is minimal transport config.
type Config struct {
	Address     string
	Timeout     time.Duration
	IdleTimeout time.Duration
	Logger      zerolog.Logger
}

// TCP is a single Modbus TCP connection.
// It serializes requests because it mutates SlaveId per request,
// so one TCP may be shared by many goroutines.
type TCP struct {
	mu      sync.Mutex
	address string
	handler *modbus.TCPClientHandler
	client  modbus.Client
	log     zerolog.Logger
}

// Dial creates a connected session. Connection failure is returned as *ConnectionError.
func Dial(ctx context.Context, cfg Config) (*TCP, error) {
	if cfg.Address == "" {
		return nil, errors.New("session: address required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Second
	}

	h := modbus.NewTCPClientHandler(cfg.Address)
	h.Timeout = cfg.Timeout
	h.IdleTimeout = cfg.IdleTimeout
	if cfg.Logger.GetLevel() <= zerolog.DebugLevel {
		h.Logger = log.New(frameLogger{cfg.Logger}, "", 0)
	}

	done := make(chan error, 1)
	go func() { done <- h.Connect() }()

	select {
	case err := <-done:
		if err != nil {
			return nil, &ConnectionError{Address: cfg.Address, Err: err}
		}
	case <-ctx.Done():
		// Release the socket if the dial completes after we gave up.
		go func() {
			if err := <-done; err == nil {
				_ = h.Close()
			}
		}()
		return nil, &ConnectionError{Address: cfg.Address, Err: ctx.Err()}
	}

	cfg.Logger.Debug().Str("address", cfg.Address).Msg("session connected")

	return &TCP{
		address: cfg.Address,
		handler: h,
		client:  modbus.NewClient(h),
		log:     cfg.Logger.With().Str("address", cfg.Address).Logger(),
	}, nil
}

// NewOpener returns an Opener that dials cfg on every call.
func NewOpener(cfg Config) Opener {
	return func(ctx context.Context) (Session, error) {
		return Dial(ctx, cfg)
	}
}

// Close closes the TCP connection. Safe to call more than once.
func (c *TCP) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handler == nil {
		return nil
	}
	err := c.handler.Close()
	c.handler = nil
	c.client = nil
	return err
}

// Do sends one request and waits for its response or the session timeout.
func (c *TCP) Do(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, Classify(c.address, req, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handler == nil {
		return Response{}, &ConnectionError{Address: c.address, Err: errors.New("session closed")}
	}

	c.handler.SlaveId = req.UnitID

	resp, err := c.do(req)
	if err != nil {
		err = Classify(c.address, req, err)

		// A late reply to a timed-out request would be read as the answer to
		// the next one. Drop the socket; goburrow reconnects on the next Send.
		var te *TimeoutError
		var fe *FormatError
		if errors.As(err, &te) || errors.As(err, &fe) {
			c.log.Debug().Uint8("unit", req.UnitID).Str("fc", req.Function.String()).Msg("resetting connection")
			_ = c.handler.Close()
		}
		return Response{}, err
	}

	resp.Function = req.Function
	resp.UnitID = req.UnitID
	return resp, nil
}

func (c *TCP) do(req Request) (Response, error) {
	var (
		resp Response
		raw  []byte
		err  error
	)

	switch req.Function {
	case ReadCoils:
		raw, err = c.client.ReadCoils(req.Address, req.Quantity)
		resp.Bits = unpackBits(raw, int(req.Quantity))

	case ReadDiscreteInputs:
		raw, err = c.client.ReadDiscreteInputs(req.Address, req.Quantity)
		resp.Bits = unpackBits(raw, int(req.Quantity))

	case ReadHoldingRegisters:
		raw, err = c.client.ReadHoldingRegisters(req.Address, req.Quantity)
		resp.Words = unpackRegisters(raw)

	case ReadInputRegisters:
		raw, err = c.client.ReadInputRegisters(req.Address, req.Quantity)
		resp.Words = unpackRegisters(raw)

	case WriteSingleCoil:
		var v uint16
		if len(req.Bits) > 0 && req.Bits[0] {
			v = 0xFF00
		}
		raw, err = c.client.WriteSingleCoil(req.Address, v)

	case WriteSingleRegister:
		if len(req.Words) == 0 {
			return resp, fmt.Errorf("%w: %s needs one value", ErrUnsupportedFunction, req.Function)
		}
		raw, err = c.client.WriteSingleRegister(req.Address, req.Words[0])

	case WriteMultipleCoils:
		raw, err = c.client.WriteMultipleCoils(req.Address, uint16(len(req.Bits)), packBits(req.Bits))

	case WriteMultipleRegisters:
		raw, err = c.client.WriteMultipleRegisters(req.Address, uint16(len(req.Words)), packRegisters(req.Words))

	case ReadDeviceIdentification:
		raw, err = c.readDeviceIdentification()

	default:
		return resp, fmt.Errorf("%w: %d", ErrUnsupportedFunction, uint8(req.Function))
	}

	if err != nil {
		return Response{}, err
	}
	resp.Data = raw
	return resp, nil
}

// readDeviceIdentification issues FC 0x2B / MEI 0x0E (basic category, object 0)
// through the handler's packager, since the goburrow client has no method for it.
func (c *TCP) readDeviceIdentification() ([]byte, error) {
	fc := byte(ReadDeviceIdentification)

	adu, err := c.handler.Encode(&modbus.ProtocolDataUnit{
		FunctionCode: fc,
		Data:         []byte{meiReadDeviceID, deviceIDCategoryBasic, 0x00},
	})
	if err != nil {
		return nil, err
	}

	raw, err := c.handler.Send(adu)
	if err != nil {
		return nil, err
	}
	if err := c.handler.Verify(adu, raw); err != nil {
		return nil, err
	}

	pdu, err := c.handler.Decode(raw)
	if err != nil {
		return nil, err
	}

	if pdu.FunctionCode == fc|exceptionFlag {
		var code byte
		if len(pdu.Data) > 0 {
			code = pdu.Data[0]
		}
		return nil, &modbus.ModbusError{FunctionCode: pdu.FunctionCode, ExceptionCode: code}
	}
	if pdu.FunctionCode != fc {
		return nil, fmt.Errorf("modbus: response function code '%v' does not match request '%v'", pdu.FunctionCode, fc)
	}
	return pdu.Data, nil
}

// frameLogger forwards goburrow's frame traces to zerolog at debug level.
type frameLogger struct {
	log zerolog.Logger
}

func (f frameLogger) Write(p []byte) (int, error) {
	f.log.Debug().Msg(strings.TrimSpace(string(p)))
	return len(p), nil
}
