// cmd/modrecon/root.go
package main

import (
	"time"

	"github.com/spf13/cobra"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "modrecon",
		Short: "Reconnaissance and diagnostics for Modbus TCP devices",
		Long: `modrecon discovers unit ids behind a Modbus TCP gateway, enumerates the
function codes a unit implements, grabs its identification banner and dumps
coil and register state to CSV / JSON.

Every saved .json (and .cbor) artifact is an envelope object
  {"run_id": ..., "operation": ..., "created": ..., "data": ...}
with the operation's result under "data"; a read-all snapshot keeps its
per-kind array at data.ranges.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.prepare(cmd)
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgPath, "config", "c", "", "YAML config file")
	pf.StringVar(&a.flags.host, "host", "", "target host or IP")
	pf.IntVarP(&a.flags.port, "port", "p", 502, "target port")
	pf.Uint8VarP(&a.flags.unit, "unit", "u", 1, "unit id")
	pf.DurationVar(&a.flags.timeout, "timeout", time.Second, "per-request timeout")
	pf.StringVarP(&a.flags.outputDir, "output-dir", "o", "output_files", "directory for saved artifacts")
	pf.StringVar(&a.flags.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	pf.StringVar(&a.flags.logFormat, "log-format", "auto", "log format (auto, console, json)")

	root.AddCommand(
		newScanCmd(a),
		newBruteforceCmd(a),
		newBannerCmd(a),
		newReadCmd(a),
		newWriteCmd(a),
		newShellCmd(a),
	)
	return root
}
