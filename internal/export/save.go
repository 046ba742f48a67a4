// internal/export/save.go
package export

import (
	"os"

	"github.com/tamzrod/modbus-recon/internal/banner"
	"github.com/tamzrod/modbus-recon/internal/snapshot"
	"github.com/tamzrod/modbus-recon/internal/translate"
)

// Operation names used in artifact file names.
const (
	OpReadAll           = "read_all"
	OpReadAllTranslated = "read_all_translated"
	OpBanner            = "banner"
	OpScan              = "scan"
	OpBruteforce        = "bruteforce"
)

// SaveJSON writes v wrapped in a Document, plus a CBOR twin when enabled.
func SaveJSON[T any](e *Exporter, target, operation string, v T) ([]string, error) {
	doc := Document[T]{
		RunID:     e.RunID,
		Operation: operation,
		Created:   e.now().UTC(),
		Data:      v,
	}

	var paths []string
	p, err := e.save(target, operation, "json", func(f *os.File) error { return WriteJSON(f, doc) })
	if err != nil {
		return paths, err
	}
	paths = append(paths, p)

	if e.CBOR {
		p, err := e.save(target, operation, "cbor", func(f *os.File) error { return WriteCBOR(f, doc) })
		if err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// SaveSnapshot persists a read-all run: CSV and JSON of the raw snapshot,
// then JSON of its translation. Paths written so far are returned on error.
func (e *Exporter) SaveSnapshot(snap snapshot.Snapshot) ([]string, error) {
	var paths []string

	p, err := e.save(snap.Target, OpReadAll, "csv", func(f *os.File) error { return WriteCSV(f, snap) })
	if err != nil {
		return paths, err
	}
	paths = append(paths, p)

	ps, err := SaveJSON(e, snap.Target, OpReadAll, snap)
	paths = append(paths, ps...)
	if err != nil {
		return paths, err
	}

	ps, err = SaveJSON(e, snap.Target, OpReadAllTranslated, translate.Translate(snap))
	paths = append(paths, ps...)
	return paths, err
}

// SaveBanner writes the raw banner bytes as text.
func (e *Exporter) SaveBanner(target string, raw []byte) (string, error) {
	return e.save(target, OpBanner, "txt", func(f *os.File) error { return WriteBanner(f, raw) })
}

// SaveDeviceBanner writes the decoded banner as a JSON document.
func (e *Exporter) SaveDeviceBanner(target string, b *banner.DeviceBanner) ([]string, error) {
	return SaveJSON(e, target, OpBanner, b)
}
