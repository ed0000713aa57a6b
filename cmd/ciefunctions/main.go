package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"tailscale.com/tsweb"

	"github.com/banshee-data/ciefunctions/internal/api"
	"github.com/banshee-data/ciefunctions/internal/colorimetry"
	"github.com/banshee-data/ciefunctions/internal/config"
	"github.com/banshee-data/ciefunctions/internal/fsutil"
	"github.com/banshee-data/ciefunctions/internal/plotpage"
	"github.com/banshee-data/ciefunctions/internal/refdata"
	"github.com/banshee-data/ciefunctions/internal/refdb"
	"github.com/banshee-data/ciefunctions/internal/version"
)

var (
	listen      = flag.String("listen", "", "Listen address (default :8080)")
	configPath  = flag.String("config", "", "Path to a JSON server configuration file")
	dataDir     = flag.String("data", "", "Directory holding the reference CSV tables")
	refDBPath   = flag.String("refdb", "", "SQLite reference database (takes precedence over -data)")
	debug       = flag.Bool("debug", false, "Mount the tsweb debugger and tailsql under /debug/")
	analytic    = flag.Bool("analytic", false, "Serve the built-in analytic tables when no data source is configured")
	assetsHost  = flag.String("assets-host", "", "Base URL of the echarts assets for plot pages")
	showVersion = flag.Bool("version", false, "Print version information and exit")
)

// loadTables opens the configured reference data source. The returned
// database is nil unless the tables came from one.
func loadTables(ctx context.Context, cfg *config.ServerConfig, allowAnalytic bool) (*refdata.Tables, *refdb.DB, error) {
	switch {
	case cfg.GetRefDBPath() != "":
		db, err := refdb.Open(cfg.GetRefDBPath())
		if err != nil {
			return nil, nil, err
		}
		t, err := db.Load(ctx)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("load %s: %w", cfg.GetRefDBPath(), err)
		}
		return t, db, nil
	case cfg.GetDataDir() != "":
		t, err := refdata.LoadDir(fsutil.OSFileSystem{}, cfg.GetDataDir())
		return t, nil, err
	case allowAnalytic:
		return refdata.Analytic(), nil, nil
	}
	return nil, nil, errors.New("no reference data: set -data, -refdb or data_dir/refdb_path in the config file")
}

// newHandler builds the API routes plus, in debug mode, the admin routes.
func newHandler(engine *colorimetry.Engine, db *refdb.DB, cfg *config.ServerConfig, opts api.Options) (http.Handler, error) {
	mux := api.NewServer(engine, opts).ServeMux()
	if cfg.GetDebug() {
		if db != nil {
			if err := db.AttachAdminRoutes(mux); err != nil {
				return nil, err
			}
		} else {
			tsweb.Debugger(mux)
		}
	}
	return api.Wrap(mux), nil
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("ciefunctions"))
		return
	}

	cfg := &config.ServerConfig{}
	if *configPath != "" {
		var err error
		cfg, err = config.LoadServerConfig(fsutil.OSFileSystem{}, *configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	cfg.ApplyFlags(*listen, *dataDir, *refDBPath, *debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tables, db, err := loadTables(ctx, cfg, *analytic)
	if err != nil {
		log.Fatalf("failed to load reference tables: %v", err)
	}
	if db != nil {
		defer db.Close()
	}
	if err := tables.Validate(); err != nil {
		log.Fatalf("invalid reference tables: %v", err)
	}

	engine := colorimetry.NewEngine(refdata.NewObserverCacheSize(tables, cfg.GetObserverCacheSize()), cfg.GetSolverConfig())
	handler, err := newHandler(engine, db, cfg, api.Options{
		Plot: plotpage.Options{AssetsHost: *assetsHost},
	})
	if err != nil {
		log.Fatalf("failed to build handler: %v", err)
	}

	server := &http.Server{
		Addr:         cfg.GetListen(),
		Handler:      handler,
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	}

	// Start server in a goroutine so it doesn't block
	go func() {
		log.Printf("ciefunctions %s listening on %s", version.Version, server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}
	log.Printf("Graceful shutdown complete")
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\nServes the CIE functions API on /api/v2/.\n\nFlags:\n", os.Args[0])
		flag.PrintDefaults()
	}
}
