// Command cie-refdb manages the SQLite copy of the reference tables.
//
//	cie-refdb -db ref.db migrate up|down|status|force N
//	cie-refdb -db ref.db import -data ./cvrl
//	cie-refdb -db ref.db import -analytic
//	cie-refdb -db ref.db inspect
//	cie-refdb export -analytic -out ./tables
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/banshee-data/ciefunctions/internal/fsutil"
	"github.com/banshee-data/ciefunctions/internal/refdata"
	"github.com/banshee-data/ciefunctions/internal/refdb"
	"github.com/banshee-data/ciefunctions/internal/security"
	"github.com/banshee-data/ciefunctions/internal/version"
)

var dbPath = flag.String("db", "ciefunctions.db", "Path to the reference database")

func main() {
	flag.Usage = printHelp
	flag.Parse()
	if flag.NArg() < 1 {
		printHelp()
		os.Exit(1)
	}
	if err := run(context.Background(), os.Stdout, *dbPath, flag.Args()); err != nil {
		log.Fatal(err)
	}
}

func printHelp() {
	fmt.Fprint(os.Stderr, `Usage: cie-refdb [-db path] <command> [args]

Commands:
  migrate up        Apply all pending migrations
  migrate down      Roll back the most recent migration
  migrate status    Show the current migration version
  migrate force N   Mark version N as applied (recovers a dirty state)
  import            Replace the stored tables (-data dir or -analytic)
  inspect           List the stored tables
  export            Write the tables as CSV (-out dir, from -data, -analytic or the database)
  version           Print the build version
`)
}

// run dispatches one command. Output goes to w.
func run(ctx context.Context, w io.Writer, path string, args []string) error {
	switch args[0] {
	case "migrate":
		return runMigrate(w, path, args[1:])
	case "import":
		return runImport(ctx, w, path, args[1:])
	case "inspect":
		return runInspect(ctx, w, path)
	case "export":
		return runExport(ctx, w, path, args[1:])
	case "version":
		fmt.Fprintln(w, version.String("cie-refdb"))
		return nil
	case "help":
		printHelp()
		return nil
	}
	return fmt.Errorf("unknown command %q", args[0])
}

func runMigrate(w io.Writer, path string, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("migrate needs an action: up, down, status or force")
	}
	db, err := refdb.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	switch args[0] {
	case "up":
		if err := db.MigrateUp(); err != nil {
			return err
		}
		fmt.Fprintln(w, "✓ All migrations applied successfully")
	case "down":
		if err := db.MigrateDown(); err != nil {
			return err
		}
		fmt.Fprintln(w, "✓ Rolled back one migration")
	case "status":
		version, dirty, err := db.MigrateVersion()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "version %d", version)
		if dirty {
			fmt.Fprint(w, " (dirty)")
		}
		fmt.Fprintln(w)
	case "force":
		if len(args) < 2 {
			return fmt.Errorf("usage: cie-refdb migrate force <version>")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[1], err)
		}
		if err := db.MigrateForce(v); err != nil {
			return err
		}
		fmt.Fprintf(w, "✓ Forced version %d\n", v)
	default:
		return fmt.Errorf("unknown migrate action %q", args[0])
	}
	return nil
}

// sourceFlags parses the -data and -analytic flags shared by import and
// export.
func sourceFlags(name string, args []string) (*flag.FlagSet, *string, *bool, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	data := fs.String("data", "", "Directory holding the reference CSV tables")
	analytic := fs.Bool("analytic", false, "Use the built-in analytic tables")
	out := fs.String("out", "", "Output directory (export only)")
	return fs, data, analytic, out
}

func readSource(data string, analytic bool) (*refdata.Tables, string, error) {
	switch {
	case analytic:
		return refdata.Analytic(), "analytic", nil
	case data != "":
		t, err := refdata.LoadDir(fsutil.OSFileSystem{}, data)
		return t, data, err
	}
	return nil, "", fmt.Errorf("set -data or -analytic")
}

func runImport(ctx context.Context, w io.Writer, path string, args []string) error {
	fs, data, analytic, _ := sourceFlags("import", args)
	if err := fs.Parse(args); err != nil {
		return err
	}
	tables, source, err := readSource(*data, *analytic)
	if err != nil {
		return err
	}

	db, err := refdb.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.MigrateUp(); err != nil {
		return err
	}
	if err := db.Import(ctx, tables, source); err != nil {
		return err
	}
	fmt.Fprintf(w, "✓ Imported %d tables from %s into %s\n", len(refdata.Names), source, path)
	return nil
}

func runInspect(ctx context.Context, w io.Writer, path string) error {
	db, err := refdb.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	version, dirty, err := db.MigrateVersion()
	if err != nil {
		return err
	}
	summary, err := db.Summary(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s: schema version %d", path, version)
	if dirty {
		fmt.Fprint(w, " (dirty)")
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tCOLUMNS\tROWS\tRANGE (nm)\tSOURCE\tIMPORTED")
	for _, t := range summary {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f–%.1f\t%s\t%s\n",
			t.Name, t.Columns, t.Rows, t.MinLambda, t.MaxLambda, t.Source, t.ImportedAt.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}

func runExport(ctx context.Context, w io.Writer, path string, args []string) error {
	fs, data, analytic, out := sourceFlags("export", args)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return fmt.Errorf("export needs -out")
	}

	var tables *refdata.Tables
	if *data != "" || *analytic {
		t, _, err := readSource(*data, *analytic)
		if err != nil {
			return err
		}
		tables = t
	} else {
		db, err := refdb.Open(path)
		if err != nil {
			return err
		}
		defer db.Close()
		if tables, err = db.Load(ctx); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}
	for _, name := range refdata.Names {
		if err := security.ValidateOutputPath(filepath.Join(*out, name+".csv"), *out); err != nil {
			return err
		}
	}
	if err := refdata.WriteDir(fsutil.OSFileSystem{}, *out, tables); err != nil {
		return err
	}
	fmt.Fprintf(w, "✓ Wrote %d tables to %s\n", len(refdata.Names), *out)
	return nil
}
