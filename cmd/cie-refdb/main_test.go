package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ciefunctions/internal/fsutil"
	"github.com/banshee-data/ciefunctions/internal/monitoring"
	"github.com/banshee-data/ciefunctions/internal/refdata"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

func runOK(t *testing.T, path string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), &out, path, args), "cie-refdb %v", args)
	return out.String()
}

func TestImportInspectExport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ref.db")

	assert.Contains(t, runOK(t, path, "import", "-analytic"), "Imported 5 tables from analytic")

	inspect := runOK(t, path, "inspect")
	assert.Contains(t, inspect, "schema version 2")
	for _, name := range refdata.Names {
		assert.Contains(t, inspect, name)
	}

	out := filepath.Join(dir, "csv")
	assert.Contains(t, runOK(t, path, "export", "-out", out), "Wrote 5 tables")

	got, err := refdata.LoadDir(fsutil.OSFileSystem{}, out)
	require.NoError(t, err)
	if diff := cmp.Diff(refdata.Analytic(), got, cmpopts.EquateNaNs(), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("exported tables mismatch (-want +got):\n%s", diff)
	}

	// Round trip through a CSV directory import.
	path2 := filepath.Join(dir, "ref2.db")
	assert.Contains(t, runOK(t, path2, "import", "-data", out), "Imported 5 tables from "+out)
}

func TestMigrateCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref.db")

	assert.Equal(t, "version 0\n", runOK(t, path, "migrate", "status"))
	runOK(t, path, "migrate", "up")
	assert.Equal(t, "version 2\n", runOK(t, path, "migrate", "status"))
	runOK(t, path, "migrate", "down")
	assert.Equal(t, "version 1\n", runOK(t, path, "migrate", "status"))
	assert.Contains(t, runOK(t, path, "migrate", "force", "2"), "Forced version 2")
	assert.Equal(t, "version 2\n", runOK(t, path, "migrate", "status"))
}

func TestVersionCommand(t *testing.T) {
	out := runOK(t, filepath.Join(t.TempDir(), "ref.db"), "version")
	assert.True(t, strings.HasPrefix(out, "cie-refdb dev"), out)
}

func TestRunErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref.db")
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown command", []string{"frobnicate"}, "unknown command"},
		{"migrate without action", []string{"migrate"}, "needs an action"},
		{"unknown migrate action", []string{"migrate", "sideways"}, "unknown migrate action"},
		{"force without version", []string{"migrate", "force"}, "usage"},
		{"force bad version", []string{"migrate", "force", "two"}, "invalid version"},
		{"import without source", []string{"import"}, "set -data or -analytic"},
		{"export without out", []string{"export", "-analytic"}, "needs -out"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), &bytes.Buffer{}, path, tt.args)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
