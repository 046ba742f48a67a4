// cmd/modrecon/read.go
package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tamzrod/modbus-recon/internal/export"
	"github.com/tamzrod/modbus-recon/internal/snapshot"
	"github.com/tamzrod/modbus-recon/internal/translate"
)

// messageWindow is the holding register span read by "read messages".
const messageWindow = 125

func newReadCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read coils, inputs and registers",
	}

	for _, k := range snapshot.Kinds() {
		cmd.AddCommand(newReadKindCmd(a, k))
	}
	cmd.AddCommand(
		newReadAllCmd(a),
		newReadMessagesCmd(a),
		newReadProbeCmd(a),
	)
	return cmd
}

func kindWord(k snapshot.Kind) string {
	switch k {
	case snapshot.Coils:
		return "coils"
	case snapshot.DiscreteInputs:
		return "discrete"
	case snapshot.InputRegisters:
		return "input"
	default:
		return "holding"
	}
}

// ---- SINGLE KIND ----

func newReadKindCmd(a *app, kind snapshot.Kind) *cobra.Command {
	var address, count uint16

	cmd := &cobra.Command{
		Use:   kindWord(kind),
		Short: "Read " + kind.String(),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := a.dial(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.Close()

			r := snapshot.Read(cmd.Context(), sess, a.cfg.Target.UnitID, kind, address, count)
			if r.Failed() {
				return errors.New(r.Err)
			}

			rows := make([][]string, 0, r.Len())
			for i := 0; i < r.Len(); i++ {
				var v string
				if kind.IsBit() {
					v = strconv.FormatBool(r.Bits[i])
				} else {
					w := translate.Word(r.Words[i])
					v = fmt.Sprintf("%d (%s %s)", w.Value, w.Hex, w.Char)
				}
				rows = append(rows, []string{strconv.Itoa(int(address) + i), v})
			}
			export.Table(a.out, []string{"Address", "Value"}, rows, a.cfg.Export.Truncate)
			return nil
		},
	}

	cmd.Flags().Uint16VarP(&address, "address", "a", 0, "start address")
	cmd.Flags().Uint16VarP(&count, "count", "n", 10, "number of items")
	return cmd
}

// ---- ALL ----

func newReadAllCmd(a *app) *cobra.Command {
	var (
		interval time.Duration
		save     bool
	)

	cmd := &cobra.Command{
		Use:   "all",
		Short: "Snapshot every coil, input and register kind",
		Long: `all reads every kind in a fixed order and prints raw and translated tables.
With --save it writes <host>_read_all_<time>.csv, a JSON envelope whose
data.ranges holds one entry per kind, and a translated JSON envelope.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("interval") {
				interval = a.cfg.Snapshot.Interval()
			}

			sess, err := a.dial(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.Close()

			capture := func(ctx context.Context) snapshot.Snapshot {
				return snapshot.Capture(ctx, sess, a.cfg.Target.Host, a.cfg.Target.UnitID, a.cfg.Snapshot.Limits)
			}

			if interval <= 0 {
				return reportSnapshot(a, capture(cmd.Context()), save)
			}
			return watchSnapshots(cmd.Context(), a, interval, capture, save)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "repeat the snapshot at this interval until interrupted")
	cmd.Flags().BoolVar(&save, "save", true, "save CSV and JSON artifacts")
	return cmd
}

func watchSnapshots(ctx context.Context, a *app, interval time.Duration, capture snapshot.CaptureFunc, save bool) error {
	snaps := make(chan snapshot.Snapshot)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(snaps)
		return snapshot.Watch(ctx, interval, capture, snaps)
	})
	g.Go(func() error {
		for s := range snaps {
			if err := reportSnapshot(a, s, save); err != nil {
				return err
			}
		}
		return nil
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func reportSnapshot(a *app, snap snapshot.Snapshot, save bool) error {
	fmt.Fprintln(a.out, text.FgCyan.Sprintf("Snapshot of unit %d at %s", snap.Unit, snap.At.Format(time.DateTime)))
	export.SnapshotTable(a.out, snap, a.cfg.Export.Truncate)
	export.TranslationTable(a.out, translate.Translate(snap), a.cfg.Export.Truncate)

	if !save {
		return nil
	}
	paths, err := a.exp.SaveSnapshot(snap)
	a.reportSaved(paths)
	return err
}

// ---- MESSAGES ----

func newReadMessagesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "messages",
		Short: "Read holding registers 0-124 as text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := a.dial(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.Close()

			r := snapshot.Read(cmd.Context(), sess, a.cfg.Target.UnitID, snapshot.HoldingRegisters, 0, messageWindow)
			if r.Failed() {
				return errors.New(r.Err)
			}

			msg := translate.Message(r.Words)
			if msg == "" {
				fmt.Fprintln(a.out, text.FgYellow.Sprint("No printable message in holding registers"))
			} else {
				fmt.Fprintln(a.out, text.FgGreen.Sprintf("Message: %s", msg))
			}

			rows := make([][]string, 0, len(r.Words))
			for i, v := range r.Words {
				w := translate.Word(v)
				rows = append(rows, []string{strconv.Itoa(i), strconv.Itoa(int(w.Value)), w.Hex, w.Char})
			}
			export.Table(a.out, []string{"Address", "Value", "Hex", "Char"}, rows, a.cfg.Export.Truncate)
			return nil
		},
	}
}

// ---- PROBE ----

func newReadProbeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check which coil and register kinds answer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := a.dial(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.Close()

			printAvailability(a, snapshot.Discover(cmd.Context(), sess, a.cfg.Target.UnitID))
			return nil
		},
	}
}

func printAvailability(a *app, av []snapshot.Availability) {
	rows := make([][]string, 0, len(av))
	for _, x := range av {
		status := text.FgGreen.Sprint("available")
		if !x.Available {
			status = text.FgRed.Sprint("unavailable")
		}
		rows = append(rows, []string{x.Kind.String(), status, x.Err})
	}
	export.Table(a.out, []string{"Register Type", "Status", "Detail"}, rows, a.cfg.Export.Truncate)
}
