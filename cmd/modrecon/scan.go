// cmd/modrecon/scan.go
package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/tamzrod/modbus-recon/internal/export"
	"github.com/tamzrod/modbus-recon/internal/probe"
	"github.com/tamzrod/modbus-recon/internal/scanner"
	"github.com/tamzrod/modbus-recon/internal/session"
)

func newScanCmd(a *app) *cobra.Command {
	var (
		first, last uint8
		concurrency int
		mode        string
		fc          uint8
		all, save   bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Discover which unit ids answer behind the target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc := a.cfg.Scan
			fl := cmd.Flags()
			if fl.Changed("first") {
				sc.First = first
			}
			if fl.Changed("last") {
				sc.Last = last
			}
			if fl.Changed("concurrency") {
				sc.Concurrency = concurrency
			}
			if fl.Changed("mode") {
				sc.Mode = mode
			}
			if fl.Changed("fc") {
				sc.FC = fc
			}

			s, err := scanner.New(session.NewOpener(a.sessionConfig()), scanner.Config{
				First:       sc.First,
				Last:        sc.Last,
				Concurrency: sc.Concurrency,
				Mode:        scanner.Mode(sc.Mode),
				Function:    session.FunctionCode(sc.FC),
			}, a.log)
			if err != nil {
				return err
			}

			fmt.Fprintln(a.out, text.FgYellow.Sprint("Scanning for unit IDs..."))

			res, scanErr := s.Scan(cmd.Context())
			if scanErr != nil && !res.Cancelled {
				return scanErr
			}

			printScan(a, res, all)

			if save {
				paths, err := export.SaveJSON(a.exp, a.cfg.Target.Host, export.OpScan, newScanReport(res))
				a.reportSaved(paths)
				if err != nil {
					return err
				}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.Uint8Var(&first, "first", scanner.DefaultFirst, "first unit id")
	f.Uint8Var(&last, "last", scanner.DefaultLast, "last unit id (up to 255)")
	f.IntVar(&concurrency, "concurrency", scanner.DefaultConcurrency, "probes in flight")
	f.StringVar(&mode, "mode", string(scanner.ModeShared), "session mode: shared or per_worker")
	f.Uint8Var(&fc, "fc", 1, "probe read function (1-4)")
	f.BoolVar(&all, "all", false, "list every outcome, not only live units")
	f.BoolVar(&save, "save", false, "save the result as JSON")
	return cmd
}

// scanReport is the saved form of a scan. Ids are ints so JSON and CBOR
// render them as numbers rather than a byte string.
type scanReport struct {
	Live      []int                 `json:"live"`
	Outcomes  map[int]probe.Outcome `json:"outcomes"`
	Attempted int                   `json:"attempted"`
	Cancelled bool                  `json:"cancelled"`
}

func newScanReport(res scanner.Result) scanReport {
	r := scanReport{
		Live:      make([]int, 0, len(res.Live)),
		Outcomes:  make(map[int]probe.Outcome, len(res.Outcomes)),
		Attempted: res.Attempted,
		Cancelled: res.Cancelled,
	}
	for _, id := range res.Live {
		r.Live = append(r.Live, int(id))
	}
	for id, o := range res.Outcomes {
		r.Outcomes[int(id)] = o
	}
	return r
}

func printScan(a *app, res scanner.Result, all bool) {
	if !all {
		rows := make([][]string, 0, len(res.Live))
		for _, id := range res.Live {
			rows = append(rows, []string{strconv.Itoa(int(id))})
		}
		export.Table(a.out, []string{"Unit ID"}, rows, 0)
	} else {
		ids := make([]int, 0, len(res.Outcomes))
		for id := range res.Outcomes {
			ids = append(ids, int(id))
		}
		sort.Ints(ids)

		rows := make([][]string, 0, len(ids))
		for _, id := range ids {
			out := res.Outcomes[uint8(id)]
			status := text.FgRed.Sprint(out.String())
			if out.OK() {
				status = text.FgGreen.Sprint("live")
			}
			rows = append(rows, []string{strconv.Itoa(id), status})
		}
		export.Table(a.out, []string{"Unit ID", "Outcome"}, rows, a.cfg.Export.Truncate)
	}

	summary := fmt.Sprintf("%d live of %d attempted", len(res.Live), res.Attempted)
	if res.Cancelled {
		summary += " (cancelled, partial result)"
	}
	fmt.Fprintln(a.out, text.FgCyan.Sprint(summary))
}
