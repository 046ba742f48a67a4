// cmd/modrecon/bruteforce.go
package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/tamzrod/modbus-recon/internal/bruteforce"
	"github.com/tamzrod/modbus-recon/internal/export"
	"github.com/tamzrod/modbus-recon/internal/session"
)

func newBruteforceCmd(a *app) *cobra.Command {
	var implementedOnly, save bool

	cmd := &cobra.Command{
		Use:   "bruteforce",
		Short: "Try every function code 1-255 against one unit",
		Long: `bruteforce sends a minimal request for each function code with a known
request shape and marks the rest NotImplemented without sending anything.
Write codes target address 0 with an off / zero value: this can still change
device state.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := a.dial(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.Close()

			p, err := bruteforce.New(sess, a.log)
			if err != nil {
				return err
			}

			unit := a.cfg.Target.UnitID
			rows, runErr := p.Run(cmd.Context(), unit)

			printBruteforce(a, rows, implementedOnly)

			if save {
				paths, err := export.SaveJSON(a.exp, a.cfg.Target.Host, export.OpBruteforce, rows)
				a.reportSaved(paths)
				if err != nil {
					return err
				}
			}
			if runErr != nil && !errors.Is(runErr, context.Canceled) {
				return runErr
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&implementedOnly, "implemented-only", false, "hide NotImplemented rows")
	cmd.Flags().BoolVar(&save, "save", false, "save the table as JSON")
	return cmd
}

func printBruteforce(a *app, rows []bruteforce.Row, implementedOnly bool) {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		if implementedOnly && r.Label == bruteforce.NotImplemented {
			continue
		}

		var detail string
		if r.Label != bruteforce.NotImplemented && !r.Outcome.OK() {
			detail = r.Outcome.String()
		}
		out = append(out, []string{
			strconv.Itoa(int(r.Code)),
			session.FunctionCode(r.Code).String(),
			labelColor(r.Label).Sprint(string(r.Label)),
			detail,
		})
	}
	export.Table(a.out, []string{"Function Code", "Function", "Status", "Detail"}, out, a.cfg.Export.Truncate)

	fmt.Fprintln(a.out, text.FgCyan.Sprintf("implemented: %v", bruteforce.Implemented(rows)))
}

func labelColor(l bruteforce.Label) text.Colors {
	switch l {
	case bruteforce.Success:
		return text.Colors{text.FgGreen}
	case bruteforce.NotImplemented:
		return text.Colors{text.FgYellow}
	default:
		return text.Colors{text.FgRed}
	}
}
