// cmd/modrecon/app.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tamzrod/modbus-recon/internal/config"
	"github.com/tamzrod/modbus-recon/internal/export"
	"github.com/tamzrod/modbus-recon/internal/session"
)

// globalFlags mirror the persistent flags; applied only when set.
type globalFlags struct {
	host      string
	port      int
	unit      uint8
	timeout   time.Duration
	outputDir string
	logLevel  string
	logFormat string
}

// app carries everything a command needs, resolved before the command runs.
type app struct {
	cfgPath string
	flags   globalFlags

	base *config.Config // file config, or the shell's effective config
	cfg  *config.Config // effective config for the running command
	log  zerolog.Logger

	out    io.Writer
	errOut io.Writer
	color  bool // stdout is a terminal
	errTTY bool // stderr is a terminal
	exp    *export.Exporter
}

func newApp(out, errOut io.Writer) *app {
	return &app{out: out, errOut: errOut, log: zerolog.Nop()}
}

// prepare resolves config: file, then flags, then Validate, then Normalize.
func (a *app) prepare(cmd *cobra.Command) error {
	if a.base == nil {
		c, err := config.Load(a.cfgPath)
		if err != nil {
			return err
		}
		a.base = c

		// Decided once per process; the shell swaps out for readline writers.
		a.color = isTerminal(a.out)
		a.errTTY = isTerminal(a.errOut)
		if !a.color {
			text.DisableColors()
		}
	}

	cfg := *a.base
	fl := cmd.Flags()

	if fl.Changed("host") {
		cfg.Target.Host = a.flags.host
	}
	if fl.Changed("port") {
		cfg.Target.Port = a.flags.port
	}
	if fl.Changed("unit") {
		cfg.Target.UnitID = a.flags.unit
	}
	if fl.Changed("timeout") {
		cfg.Target.TimeoutMs = int(a.flags.timeout / time.Millisecond)
	}
	if fl.Changed("output-dir") {
		cfg.Export.Dir = a.flags.outputDir
	}
	if fl.Changed("log-level") {
		cfg.Log.Level = a.flags.logLevel
	}
	if fl.Changed("log-format") {
		cfg.Log.Format = a.flags.logFormat
	}

	if err := config.Validate(&cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(&cfg)

	a.cfg = &cfg
	a.log = newLogger(a.errOut, cfg.Log, a.errTTY)
	a.exp = export.New(export.Config{
		Dir:      cfg.Export.Dir,
		Truncate: cfg.Export.Truncate,
		CBOR:     cfg.Export.CBOR,
	}, a.log)

	a.log.Debug().
		Str("target", cfg.Target.Address()).
		Uint8("unit", cfg.Target.UnitID).
		Str("run_id", a.exp.RunID).
		Msg("config resolved")
	return nil
}

func (a *app) sessionConfig() session.Config {
	return session.Config{
		Address: a.cfg.Target.Address(),
		Timeout: a.cfg.Target.Timeout(),
		Logger:  a.log,
	}
}

// dial opens the operation's session. Failure here is fatal to the operation.
func (a *app) dial(ctx context.Context) (*session.TCP, error) {
	s, err := session.Dial(ctx, a.sessionConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Modbus server: %w", err)
	}
	return s, nil
}

func (a *app) reportSaved(paths []string) {
	for _, p := range paths {
		fmt.Fprintln(a.out, text.FgGreen.Sprintf("Data saved to %s", p))
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
