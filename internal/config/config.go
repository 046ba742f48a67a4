// internal/config/config.go
package config

import (
	"net"
	"strconv"
	"time"

	"github.com/tamzrod/modbus-recon/internal/snapshot"
)

type Config struct {
	Target   TargetConfig   `yaml:"target"`
	Scan     ScanConfig     `yaml:"scan"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Export   ExportConfig   `yaml:"export"`
	Log      LogConfig      `yaml:"log"`
}

// ---- TARGET ----

type TargetConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	UnitID    uint8  `yaml:"unit_id"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// Address is host:port, IPv6 safe.
func (t TargetConfig) Address() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

func (t TargetConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutMs) * time.Millisecond
}

// ---- SCAN ----

type ScanConfig struct {
	First       uint8  `yaml:"first"`
	Last        uint8  `yaml:"last"`
	Concurrency int    `yaml:"concurrency"`
	Mode        string `yaml:"mode"` // shared | per_worker
	FC          uint8  `yaml:"fc"`   // probe read, 1..4
}

// ---- SNAPSHOT ----

type SnapshotConfig struct {
	Limits     snapshot.Limits `yaml:"limits"`
	IntervalMs int             `yaml:"interval_ms"` // read all --interval default; 0 = once
}

func (s SnapshotConfig) Interval() time.Duration {
	return time.Duration(s.IntervalMs) * time.Millisecond
}

// ---- EXPORT ----

type ExportConfig struct {
	Dir      string `yaml:"dir"`
	Truncate int    `yaml:"truncate"`
	CBOR     bool   `yaml:"cbor"`
}

// ---- LOG ----

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // auto | console | json
}
