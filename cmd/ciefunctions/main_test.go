package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ciefunctions/internal/api"
	"github.com/banshee-data/ciefunctions/internal/colorimetry"
	"github.com/banshee-data/ciefunctions/internal/config"
	"github.com/banshee-data/ciefunctions/internal/fsutil"
	"github.com/banshee-data/ciefunctions/internal/monitoring"
	"github.com/banshee-data/ciefunctions/internal/refdata"
	"github.com/banshee-data/ciefunctions/internal/refdb"
	"github.com/banshee-data/ciefunctions/internal/testutil"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

func writeCSVDir(t *testing.T, tables *refdata.Tables) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, refdata.WriteDir(fsutil.OSFileSystem{}, dir, tables))
	return dir
}

func TestLoadTablesSources(t *testing.T) {
	ctx := context.Background()

	t.Run("none", func(t *testing.T) {
		_, _, err := loadTables(ctx, &config.ServerConfig{}, false)
		assert.ErrorContains(t, err, "no reference data")
	})

	t.Run("analytic", func(t *testing.T) {
		tables, db, err := loadTables(ctx, &config.ServerConfig{}, true)
		require.NoError(t, err)
		assert.Nil(t, db)
		assert.NoError(t, tables.Validate())
	})

	t.Run("csv directory", func(t *testing.T) {
		cfg := &config.ServerConfig{}
		cfg.ApplyFlags("", writeCSVDir(t, refdata.Analytic()), "", false)
		tables, db, err := loadTables(ctx, cfg, false)
		require.NoError(t, err)
		assert.Nil(t, db)
		assert.Len(t, tables.CIE1931, len(refdata.Analytic().CIE1931))
	})

	t.Run("database wins", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ref.db")
		db, err := refdb.Open(path)
		require.NoError(t, err)
		require.NoError(t, db.MigrateUp())
		require.NoError(t, db.Import(ctx, refdata.Analytic(), "test"))
		require.NoError(t, db.Close())

		cfg := &config.ServerConfig{}
		cfg.ApplyFlags("", "/does/not/exist", path, false)
		tables, got, err := loadTables(ctx, cfg, false)
		require.NoError(t, err)
		require.NotNil(t, got)
		defer got.Close()
		assert.NoError(t, tables.Validate())
	})

	t.Run("empty database", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.db")
		db, err := refdb.Open(path)
		require.NoError(t, err)
		require.NoError(t, db.MigrateUp())
		require.NoError(t, db.Close())

		cfg := &config.ServerConfig{}
		cfg.ApplyFlags("", "", path, false)
		_, _, err = loadTables(ctx, cfg, true)
		assert.ErrorIs(t, err, refdb.ErrEmpty)
	})
}

func TestNewHandler(t *testing.T) {
	engine := testutil.AnalyticEngine(t)

	cfg := &config.ServerConfig{}
	h, err := newHandler(engine, nil, cfg, api.Options{})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v2/status", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "debug routes must be off by default")
}

func TestNewHandlerDebug(t *testing.T) {
	ctx := context.Background()
	db, err := refdb.Open(filepath.Join(t.TempDir(), "ref.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.MigrateUp())
	require.NoError(t, db.Import(ctx, refdata.Analytic(), "test"))

	cfg := &config.ServerConfig{}
	cfg.ApplyFlags("", "", "", true)
	engine := colorimetry.NewEngine(refdata.NewObserverCache(refdata.Analytic()), cfg.GetSolverConfig())
	h, err := newHandler(engine, db, cfg, api.Options{})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/debug/refdata", nil)
	req.RemoteAddr = "127.0.0.1:4000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), refdata.NameCIE1931)
}
