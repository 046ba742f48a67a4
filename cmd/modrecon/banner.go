// cmd/modrecon/banner.go
package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/tamzrod/modbus-recon/internal/banner"
	"github.com/tamzrod/modbus-recon/internal/export"
)

func newBannerCmd(a *app) *cobra.Command {
	var (
		maxBytes int
		save     bool
	)

	cmd := &cobra.Command{
		Use:   "banner",
		Short: "Grab the device identification banner (FC 43 / MEI 14)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target := a.cfg.Target
			b, raw, err := banner.GrabAddress(cmd.Context(), target.Address(), target.Timeout(), maxBytes)

			// Raw bytes are kept even when they do not decode.
			if save && len(raw) > 0 {
				p, serr := a.exp.SaveBanner(target.Host, raw)
				if serr != nil {
					return serr
				}
				a.reportSaved([]string{p})
			}
			if err != nil {
				return err
			}

			printBanner(a, b)

			if save {
				paths, err := a.exp.SaveDeviceBanner(target.Host, b)
				a.reportSaved(paths)
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxBytes, "max-bytes", banner.DefaultMaxBytes, "read at most this many bytes")
	cmd.Flags().BoolVar(&save, "save", true, "save the raw and decoded banner")
	return cmd
}

func printBanner(a *app, b *banner.DeviceBanner) {
	fmt.Fprintln(a.out, text.FgCyan.Sprintf("Number of Objects: %d", b.Count))

	rows := make([][]string, 0, len(b.Objects))
	for _, o := range b.Objects {
		rows = append(rows, []string{fmt.Sprintf("0x%02X", o.ID), o.Name.String(), o.Value})
	}
	export.Table(a.out, []string{"Object ID", "Object Name", "Value"}, rows, a.cfg.Export.Truncate)

	fmt.Fprintln(a.out, text.FgCyan.Sprintf("Fingerprint: %s", b.Fingerprint))
}
