// internal/config/normalize.go
package config

import (
	"github.com/tamzrod/modbus-recon/internal/export"
	"github.com/tamzrod/modbus-recon/internal/scanner"
	"github.com/tamzrod/modbus-recon/internal/snapshot"
)

const (
	DefaultPort      = 502
	DefaultUnitID    = 1
	DefaultTimeoutMs = 1000
	DefaultTruncate  = 1000
	DefaultLogLevel  = "info"
	DefaultLogFormat = "auto"
)

// Normalize applies defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	// ---- target ----
	if cfg.Target.Port == 0 {
		cfg.Target.Port = DefaultPort
	}
	if cfg.Target.UnitID == 0 {
		cfg.Target.UnitID = DefaultUnitID
	}
	if cfg.Target.TimeoutMs == 0 {
		cfg.Target.TimeoutMs = DefaultTimeoutMs
	}

	// ---- scan ----
	if cfg.Scan.First == 0 {
		cfg.Scan.First = scanner.DefaultFirst
	}
	if cfg.Scan.Last == 0 {
		cfg.Scan.Last = scanner.DefaultLast
	}
	if cfg.Scan.Concurrency == 0 {
		cfg.Scan.Concurrency = scanner.DefaultConcurrency
	}
	if cfg.Scan.Mode == "" {
		cfg.Scan.Mode = string(scanner.ModeShared)
	}
	if cfg.Scan.FC == 0 {
		cfg.Scan.FC = 1
	}

	// ---- snapshot ----
	l := &cfg.Snapshot.Limits
	l.Coils = l.For(snapshot.Coils)
	l.DiscreteInputs = l.For(snapshot.DiscreteInputs)
	l.InputRegisters = l.For(snapshot.InputRegisters)
	l.HoldingRegisters = l.For(snapshot.HoldingRegisters)

	// ---- export ----
	if cfg.Export.Dir == "" {
		cfg.Export.Dir = export.DefaultDir
	}
	if cfg.Export.Truncate == 0 {
		cfg.Export.Truncate = DefaultTruncate
	}

	// ---- log ----
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
