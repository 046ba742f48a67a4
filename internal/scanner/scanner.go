// internal/scanner/scanner.go
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tamzrod/modbus-recon/internal/probe"
	"github.com/tamzrod/modbus-recon/internal/session"
)

// Mode selects how workers reach the target.
type Mode string

const (
	// ModeShared multiplexes every worker over one serialized session.
	ModeShared Mode = "shared"
	// ModePerWorker gives each worker its own session.
	ModePerWorker Mode = "per_worker"
)

const (
	DefaultFirst       uint8 = 1
	DefaultLast        uint8 = 247
	DefaultConcurrency       = 16
)

// Config is the scan request. Zero values take defaults.
type Config struct {
	First       uint8
	Last        uint8
	Concurrency int
	Mode        Mode
	Function    session.FunctionCode
}

// Result holds every outcome collected by a scan.
type Result struct {
	Live      []uint8
	Outcomes  map[uint8]probe.Outcome
	Attempted int
	Cancelled bool
}

// Scanner finds live unit ids behind one Modbus TCP endpoint.
type Scanner struct {
	open session.Opener
	cfg  Config
	log  zerolog.Logger
}

// New validates cfg and returns a scanner. Sessions are opened per Scan.
func New(open session.Opener, cfg Config, log zerolog.Logger) (*Scanner, error) {
	if open == nil {
		return nil, errors.New("scanner: opener required")
	}

	if cfg.First == 0 {
		cfg.First = DefaultFirst
	}
	if cfg.Last == 0 {
		cfg.Last = DefaultLast
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeShared
	}
	if cfg.Function == 0 {
		cfg.Function = session.ReadCoils
	}

	if cfg.First > cfg.Last {
		return nil, fmt.Errorf("scanner: first unit %d > last unit %d", cfg.First, cfg.Last)
	}
	if cfg.Concurrency < 0 {
		return nil, fmt.Errorf("scanner: concurrency must be > 0 (got %d)", cfg.Concurrency)
	}
	switch cfg.Mode {
	case ModeShared, ModePerWorker:
	default:
		return nil, fmt.Errorf("scanner: unknown mode %q", cfg.Mode)
	}
	switch cfg.Function {
	case session.ReadCoils, session.ReadDiscreteInputs, session.ReadHoldingRegisters, session.ReadInputRegisters:
	default:
		return nil, fmt.Errorf("scanner: probe function must be a read (1-4), got %d", uint8(cfg.Function))
	}

	return &Scanner{
		open: open,
		cfg:  cfg,
		log:  log.With().Str("component", "scanner").Logger(),
	}, nil
}

// Config returns the effective configuration.
func (s *Scanner) Config() Config { return s.cfg }

// Scan probes every id in [First, Last] exactly once.
//
// Failure to open the first session aborts before any probe is sent.
// On cancellation no new ids are dispatched, probes already in flight
// run to completion and the partial result is returned with ctx.Err().
func (s *Scanner) Scan(ctx context.Context) (Result, error) {
	primary, err := s.open(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("scanner: open session: %w", err)
	}
	defer primary.Close()

	total := int(s.cfg.Last) - int(s.cfg.First) + 1
	workers := s.cfg.Concurrency
	if workers > total {
		workers = total
	}

	s.log.Info().
		Uint8("first", s.cfg.First).
		Uint8("last", s.cfg.Last).
		Int("workers", workers).
		Str("mode", string(s.cfg.Mode)).
		Str("fc", s.cfg.Function.String()).
		Msg("scan started")

	jobs := make(chan uint8)
	go s.dispatch(ctx, jobs)

	var (
		mu       sync.Mutex
		outcomes = make(map[uint8]probe.Outcome, total)
	)

	// In-flight probes must not be cut short by operator cancellation.
	probeCtx := context.WithoutCancel(ctx)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		sess, owned := s.workerSession(probeCtx, w, primary)

		g.Go(func() error {
			if owned {
				defer sess.Close()
			}
			for id := range jobs {
				if ctx.Err() != nil {
					// dispatched but not started
					continue
				}
				out := probe.Do(probeCtx, sess, session.Request{
					Function: s.cfg.Function,
					UnitID:   id,
					Address:  0,
					Quantity: 1,
				})

				s.log.Debug().Uint8("unit", id).Str("outcome", out.Kind.String()).Msg("probe")

				mu.Lock()
				outcomes[id] = out
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	res := Result{
		Outcomes:  outcomes,
		Attempted: len(outcomes),
	}
	for id, out := range outcomes {
		if out.OK() {
			res.Live = append(res.Live, id)
		}
	}
	sort.Slice(res.Live, func(i, j int) bool { return res.Live[i] < res.Live[j] })

	if err := ctx.Err(); err != nil && res.Attempted < total {
		res.Cancelled = true
		s.log.Warn().Int("attempted", res.Attempted).Int("total", total).Msg("scan cancelled")
		return res, err
	}

	s.log.Info().Int("attempted", res.Attempted).Int("live", len(res.Live)).Msg("scan finished")
	return res, nil
}

// dispatch feeds the id range into jobs until done or cancelled.
func (s *Scanner) dispatch(ctx context.Context, jobs chan<- uint8) {
	defer close(jobs)

	for id := int(s.cfg.First); id <= int(s.cfg.Last); id++ {
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case jobs <- uint8(id):
		}
	}
}

// workerSession returns the session worker w should use and whether the
// worker owns it. In per_worker mode worker 0 reuses the primary session;
// a worker whose own session cannot be opened falls back to the primary.
func (s *Scanner) workerSession(ctx context.Context, w int, primary session.Session) (session.Session, bool) {
	if s.cfg.Mode != ModePerWorker || w == 0 {
		return primary, false
	}
	sess, err := s.open(ctx)
	if err != nil {
		s.log.Warn().Err(err).Int("worker", w).Msg("worker session unavailable, sharing primary")
		return primary, false
	}
	return sess, true
}
