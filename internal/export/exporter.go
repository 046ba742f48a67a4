// internal/export/exporter.go
package export

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultDir is where artifacts land unless configured otherwise.
const DefaultDir = "output_files"

// maxSuffix bounds the collision counter for one second.
const maxSuffix = 999

// Exporter persists artifacts under Dir without ever overwriting one.
type Exporter struct {
	Dir      string
	Now      func() time.Time
	Truncate int  // console width per cell; 0 disables
	CBOR     bool // also write a .cbor twin of every JSON artifact
	RunID    string

	log zerolog.Logger
}

// Config is the exporter part of the file config.
type Config struct {
	Dir      string
	Truncate int
	CBOR     bool
}

// New returns an exporter stamped with a fresh run id.
func New(cfg Config, log zerolog.Logger) *Exporter {
	dir := cfg.Dir
	if dir == "" {
		dir = DefaultDir
	}
	runID := uuid.NewString()
	return &Exporter{
		Dir:      dir,
		Now:      time.Now,
		Truncate: cfg.Truncate,
		CBOR:     cfg.CBOR,
		RunID:    runID,
		log:      log.With().Str("component", "export").Str("run_id", runID).Logger(),
	}
}

func (e *Exporter) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// Create reserves and opens a new file named
// <target>_<operation>_<YYYYMMDD_HHMMSS>[_NN].<ext> under Dir.
// The name is claimed with O_EXCL, so concurrent or repeated calls in the
// same second get _02, _03, ... instead of overwriting.
func (e *Exporter) Create(target, operation, ext string) (*os.File, error) {
	dir := e.Dir
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("export: create dir %s: %w", dir, err)
	}

	base := fmt.Sprintf("%s_%s_%s", sanitize(target), operation, e.now().Format("20060102_150405"))
	ext = strings.TrimPrefix(ext, ".")

	for n := 1; n <= maxSuffix; n++ {
		name := base + "." + ext
		if n > 1 {
			name = fmt.Sprintf("%s_%02d.%s", base, n, ext)
		}
		path := filepath.Join(dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("export: create %s: %w", path, err)
		}
	}
	return nil, fmt.Errorf("export: no free name for %s.%s after %d attempts", base, ext, maxSuffix)
}

// save creates a file and hands it to write, closing it on every path.
func (e *Exporter) save(target, operation, ext string, write func(f *os.File) error) (string, error) {
	f, err := e.Create(target, operation, ext)
	if err != nil {
		return "", err
	}
	path := f.Name()

	if err := write(f); err != nil {
		_ = f.Close()
		return path, fmt.Errorf("export: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return path, fmt.Errorf("export: close %s: %w", path, err)
	}

	e.log.Info().Str("path", path).Msg("artifact saved")
	return path, nil
}

// sanitize keeps target usable as a file name component.
func sanitize(target string) string {
	if target == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case ':', '/', '\\', ' ', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, target)
}
