// internal/export/table.go
package export

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/tamzrod/modbus-recon/internal/snapshot"
	"github.com/tamzrod/modbus-recon/internal/translate"
)

// Table renders rows under header. Value cells longer than truncate runes
// are cut; the first column is a label and is never cut.
func Table(w io.Writer, header []string, rows [][]string, truncate int) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault

	hr := make(table.Row, len(header))
	for i, h := range header {
		hr[i] = h
	}
	t.AppendHeader(hr)

	for _, r := range rows {
		row := make(table.Row, len(r))
		for i, cell := range r {
			if i > 0 {
				cell = translate.Truncate(cell, truncate)
			}
			row[i] = cell
		}
		t.AppendRow(row)
	}

	cfgs := make([]table.ColumnConfig, len(header))
	for i := range header {
		cfgs[i] = table.ColumnConfig{Number: i + 1, Align: text.AlignLeft}
	}
	t.SetColumnConfigs(cfgs)

	t.Render()
}

// SnapshotTable prints a "Register Type | Data" report.
func SnapshotTable(w io.Writer, snap snapshot.Snapshot, truncate int) {
	rows := make([][]string, 0, len(snap.Ranges))
	for _, r := range snap.Ranges {
		rows = append(rows, []string{r.Kind.String(), FormatRange(r)})
	}
	Table(w, CSVHeader, rows, truncate)
}

// TranslationTable prints a "Register Type | Translated Data" report.
func TranslationTable(w io.Writer, tr translate.Translation, truncate int) {
	rows := make([][]string, 0, len(tr.Ranges))
	for _, r := range tr.Ranges {
		rows = append(rows, []string{r.Kind.String(), FormatTranslated(r)})
	}
	Table(w, []string{"Register Type", "Translated Data"}, rows, truncate)
}
