// cmd/modrecon/write.go
package main

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/tamzrod/modbus-recon/internal/snapshot"
	"github.com/tamzrod/modbus-recon/internal/writer"
)

func newWriteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write",
		Short: "Write coils or holding registers",
	}
	cmd.AddCommand(
		newWriteKindCmd(a, snapshot.Coils),
		newWriteKindCmd(a, snapshot.HoldingRegisters),
		newWriteBannerCmd(a),
		newWriteUnitIDCmd(a),
	)
	return cmd
}

// runPlan validates p, sends it and reports the outcome.
func runPlan(cmd *cobra.Command, a *app, p writer.Plan) error {
	if err := p.Validate(); err != nil {
		return err
	}

	sess, err := a.dial(cmd.Context())
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := writer.Write(cmd.Context(), sess, p); err != nil {
		return err
	}

	fmt.Fprintln(a.out, text.FgGreen.Sprintf("Wrote %d %s to unit %d at address %d", p.Len(), p.Kind, p.Unit, p.Address))
	return nil
}

func newWriteKindCmd(a *app, kind snapshot.Kind) *cobra.Command {
	var (
		address uint16
		values  string
	)

	cmd := &cobra.Command{
		Use:   kindWord(kind),
		Short: "Write " + kind.String(),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bits, words, err := writer.ParseValues(kind, values)
			if err != nil {
				return err
			}
			return runPlan(cmd, a, writer.Plan{
				Kind:    kind,
				Unit:    a.cfg.Target.UnitID,
				Address: address,
				Bits:    bits,
				Words:   words,
			})
		},
	}

	cmd.Flags().Uint16VarP(&address, "address", "a", 0, "start address")
	if kind == snapshot.Coils {
		cmd.Flags().StringVarP(&values, "values", "v", "", `comma-separated 0/1, e.g. "1,0,1"`)
	} else {
		cmd.Flags().StringVarP(&values, "values", "v", "", `comma-separated integers, or text written one character per register`)
	}
	_ = cmd.MarkFlagRequired("values")
	return cmd
}

func newWriteBannerCmd(a *app) *cobra.Command {
	var msg string

	cmd := &cobra.Command{
		Use:   "banner",
		Short: "Write text into holding registers from address 0",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := writer.BannerPlan(a.cfg.Target.UnitID, msg)
			if err != nil {
				return err
			}
			return runPlan(cmd, a, p)
		},
	}

	cmd.Flags().StringVarP(&msg, "text", "t", "", "text to write")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func newWriteUnitIDCmd(a *app) *cobra.Command {
	var (
		value  uint8
		random bool
	)

	cmd := &cobra.Command{
		Use:   "unit-id",
		Short: "Write a new unit id to holding register 0",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch {
			case random:
				value = uint8(1 + rand.Intn(247))
			case !cmd.Flags().Changed("value"):
				return errors.New("one of --value or --random is required")
			}
			return runPlan(cmd, a, writer.UnitIDPlan(a.cfg.Target.UnitID, value))
		},
	}

	cmd.Flags().Uint8Var(&value, "value", 0, "new unit id")
	cmd.Flags().BoolVar(&random, "random", false, "pick a random unit id in 1-247")
	cmd.MarkFlagsMutuallyExclusive("value", "random")
	return cmd
}
