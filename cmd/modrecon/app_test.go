// cmd/modrecon/app_test.go
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "modrecon.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestPrepare_FlagsOverrideFile(t *testing.T) {
	p := writeConfig(t, `
target:
  host: 10.0.0.5
  port: 5020
  unit_id: 9
export:
  dir: `+t.TempDir()+`
`)

	var out, errOut bytes.Buffer
	a := newApp(&out, &errOut)
	root := newRootCmd(a)
	require.NoError(t, root.ParseFlags([]string{"--config", p, "--port", "1502", "--timeout", "250ms"}))
	require.NoError(t, a.prepare(root))

	assert.Equal(t, "10.0.0.5", a.cfg.Target.Host)
	assert.Equal(t, 1502, a.cfg.Target.Port)
	assert.Equal(t, uint8(9), a.cfg.Target.UnitID, "unit not given on the command line keeps the file value")
	assert.Equal(t, 250*time.Millisecond, a.cfg.Target.Timeout())
	assert.Equal(t, "10.0.0.5:1502", a.sessionConfig().Address)
	assert.NotEmpty(t, a.exp.RunID)
}

func TestPrepare_DefaultsWithoutFile(t *testing.T) {
	a := newApp(&bytes.Buffer{}, &bytes.Buffer{})
	root := newRootCmd(a)
	require.NoError(t, root.ParseFlags([]string{"--host", "plc.local"}))
	require.NoError(t, a.prepare(root))

	assert.Equal(t, 502, a.cfg.Target.Port)
	assert.Equal(t, uint8(1), a.cfg.Target.UnitID)
	assert.Equal(t, time.Second, a.cfg.Target.Timeout())
	assert.Equal(t, "output_files", a.cfg.Export.Dir)
	assert.Equal(t, "shared", a.cfg.Scan.Mode)
}

func TestPrepare_MissingHost(t *testing.T) {
	a := newApp(&bytes.Buffer{}, &bytes.Buffer{})
	root := newRootCmd(a)
	require.NoError(t, root.ParseFlags(nil))

	err := a.prepare(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target.host is required")
}

func TestPrepare_BaseSurvivesLines(t *testing.T) {
	a := newApp(&bytes.Buffer{}, &bytes.Buffer{})

	first := newRootCmd(a)
	require.NoError(t, first.ParseFlags([]string{"--host", "plc.local", "--unit", "4"}))
	require.NoError(t, a.prepare(first))
	a.base = a.cfg

	// A later line only overrides what it names.
	next := newRootCmd(a)
	require.NoError(t, next.ParseFlags([]string{"--port", "1502"}))
	require.NoError(t, a.prepare(next))

	assert.Equal(t, "plc.local", a.cfg.Target.Host)
	assert.Equal(t, uint8(4), a.cfg.Target.UnitID)
	assert.Equal(t, 1502, a.cfg.Target.Port)
	assert.Equal(t, 502, a.base.Target.Port)
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd(newApp(&bytes.Buffer{}, &bytes.Buffer{}))

	for _, path := range [][]string{
		{"scan"},
		{"bruteforce"},
		{"banner"},
		{"shell"},
		{"read", "coils"},
		{"read", "discrete"},
		{"read", "input"},
		{"read", "holding"},
		{"read", "all"},
		{"read", "messages"},
		{"read", "probe"},
		{"write", "coils"},
		{"write", "holding"},
		{"write", "banner"},
		{"write", "unit-id"},
	} {
		cmd, rest, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Empty(t, rest, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestShellCompleter(t *testing.T) {
	line := []rune("read ho")
	got, length := shellCompleter().Do(line, len(line))

	require.Len(t, got, 1)
	assert.Equal(t, "lding ", string(got[0]))
	assert.Equal(t, 2, length)
}

func TestHelpDescribesJSONEnvelope(t *testing.T) {
	root := newRootCmd(newApp(&bytes.Buffer{}, &bytes.Buffer{}))
	assert.Contains(t, root.Long, `"data"`)
	assert.Contains(t, root.Long, "data.ranges")

	all, _, err := root.Find([]string{"read", "all"})
	require.NoError(t, err)
	assert.Contains(t, all.Long, "data.ranges")
}
