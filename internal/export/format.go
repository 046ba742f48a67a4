// internal/export/format.go
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/tamzrod/modbus-recon/internal/snapshot"
	"github.com/tamzrod/modbus-recon/internal/translate"
)

// Document wraps every structured artifact with where it came from.
type Document[T any] struct {
	RunID     string    `json:"run_id"`
	Operation string    `json:"operation"`
	Created   time.Time `json:"created"`
	Data      T         `json:"data"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.CanonicalEncOptions()
	encOpts.Time = cbor.TimeRFC3339Nano
	encOpts.NilContainers = cbor.NilContainerAsNull
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("export: cbor encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("export: cbor decoder mode: %v", err))
	}
}

// ---- flat text ----

// CSVHeader is the first row of every snapshot CSV.
var CSVHeader = []string{"Register Type", "Data"}

// WriteCSV writes one row per register kind.
func WriteCSV(w io.Writer, snap snapshot.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range snap.Ranges {
		if err := cw.Write([]string{r.Kind.String(), FormatRange(r)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatRange renders a range's values as "[v1, v2, ...]" or its error.
func FormatRange(r snapshot.Range) string {
	if r.Failed() {
		return "Error: " + r.Err
	}

	parts := make([]string, 0, r.Len())
	if r.Kind.IsBit() {
		for _, b := range r.Bits {
			parts = append(parts, strconv.FormatBool(b))
		}
	} else {
		for _, v := range r.Words {
			parts = append(parts, strconv.FormatUint(uint64(v), 10))
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// FormatTranslated renders a translated range: characters for words,
// booleans for bits.
func FormatTranslated(r translate.Range) string {
	if r.Err != "" {
		return "Error: " + r.Err
	}
	if r.Kind.IsBit() {
		return FormatRange(snapshot.Range{Kind: r.Kind, Bits: r.Bits})
	}

	parts := make([]string, 0, len(r.Values))
	for _, v := range r.Values {
		parts = append(parts, strconv.Quote(v.Char))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ---- structured ----

// WriteJSON writes v indented.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(v)
}

// ReadSnapshotJSON re-ingests a snapshot artifact written by SaveSnapshot.
func ReadSnapshotJSON(r io.Reader) (Document[snapshot.Snapshot], error) {
	var doc Document[snapshot.Snapshot]
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return doc, fmt.Errorf("export: decode snapshot json: %w", err)
	}
	return doc, nil
}

// WriteCBOR writes v in canonical CBOR.
func WriteCBOR(w io.Writer, v any) error {
	return encMode.NewEncoder(w).Encode(v)
}

// ReadSnapshotCBOR re-ingests a CBOR snapshot artifact.
func ReadSnapshotCBOR(r io.Reader) (Document[snapshot.Snapshot], error) {
	var doc Document[snapshot.Snapshot]
	if err := decMode.NewDecoder(r).Decode(&doc); err != nil {
		return doc, fmt.Errorf("export: decode snapshot cbor: %w", err)
	}
	return doc, nil
}

// ---- banner ----

// WriteBanner writes raw banner bytes as text, dropping invalid UTF-8.
func WriteBanner(w io.Writer, raw []byte) error {
	_, err := io.WriteString(w, strings.ToValidUTF8(string(raw), ""))
	return err
}
