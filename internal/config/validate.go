// internal/config/validate.go
package config

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-recon/internal/snapshot"
)

// Validate checks configuration correctness.
// Zero values mean "use the default" and are accepted.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}

	// ------------------------------------------------------------
	// TARGET
	// ------------------------------------------------------------

	t := cfg.Target
	if t.Host == "" {
		return errors.New("target.host is required")
	}
	if t.Port < 0 || t.Port > 65535 {
		return fmt.Errorf("target.port %d out of range 1..65535", t.Port)
	}
	if t.TimeoutMs < 0 {
		return fmt.Errorf("target.timeout_ms must be >= 0 (got %d)", t.TimeoutMs)
	}

	// ------------------------------------------------------------
	// SCAN
	// ------------------------------------------------------------

	s := cfg.Scan
	if s.First != 0 && s.Last != 0 && s.First > s.Last {
		return fmt.Errorf("scan: first %d > last %d", s.First, s.Last)
	}
	if s.Concurrency < 0 {
		return fmt.Errorf("scan.concurrency must be >= 0 (got %d)", s.Concurrency)
	}
	switch s.Mode {
	case "", "shared", "per_worker":
	default:
		return fmt.Errorf("scan.mode %q must be shared or per_worker", s.Mode)
	}
	if s.FC > 4 {
		return fmt.Errorf("scan.fc %d must be a read function (1..4)", s.FC)
	}

	// ------------------------------------------------------------
	// SNAPSHOT
	// ------------------------------------------------------------

	l := cfg.Snapshot.Limits
	for _, c := range []struct {
		name string
		n    uint16
		max  uint16
	}{
		{"coils", l.Coils, snapshot.MaxBits},
		{"discrete_inputs", l.DiscreteInputs, snapshot.MaxBits},
		{"input_registers", l.InputRegisters, snapshot.MaxWords},
		{"holding_registers", l.HoldingRegisters, snapshot.MaxWords},
	} {
		if c.n > c.max {
			return fmt.Errorf("snapshot.limits.%s %d exceeds protocol maximum %d", c.name, c.n, c.max)
		}
	}
	if cfg.Snapshot.IntervalMs < 0 {
		return fmt.Errorf("snapshot.interval_ms must be >= 0 (got %d)", cfg.Snapshot.IntervalMs)
	}

	// ------------------------------------------------------------
	// EXPORT / LOG
	// ------------------------------------------------------------

	if cfg.Export.Truncate < 0 {
		return fmt.Errorf("export.truncate must be >= 0 (got %d)", cfg.Export.Truncate)
	}
	if cfg.Log.Level != "" {
		if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
			return fmt.Errorf("log.level %q: %w", cfg.Log.Level, err)
		}
	}
	switch cfg.Log.Format {
	case "", "auto", "console", "json":
	default:
		return fmt.Errorf("log.format %q must be auto, console or json", cfg.Log.Format)
	}

	return nil
}
