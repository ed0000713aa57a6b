// Command cieplot computes colorimetric quantities and writes, per
// quantity, the serialized JSON, a CSV of the result rows and a PNG plot.
// It computes locally from reference tables or fetches from a running
// ciefunctions server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/ciefunctions/internal/colorimetry"
	"github.com/banshee-data/ciefunctions/internal/fsutil"
	"github.com/banshee-data/ciefunctions/internal/httputil"
	"github.com/banshee-data/ciefunctions/internal/monitoring"
	"github.com/banshee-data/ciefunctions/internal/refdata"
	"github.com/banshee-data/ciefunctions/internal/refdb"
	"github.com/banshee-data/ciefunctions/internal/version"
)

// options is the parsed command line.
type options struct {
	quantities []colorimetry.Quantity
	fieldSize  float64
	age        float64
	min        float64
	max        float64
	step       float64
	optional   []string
	outDir     string
	formats    map[string]bool
	server     string
	dataDir    string
	refDB      string
	jobs       int
}

func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet("cieplot", flag.ContinueOnError)
	quantities := fs.String("q", "lms,lms-mb,lms-mw,xyz,xy,xyz-p,xy-p", "Comma separated quantities to compute")
	fieldSize := fs.Float64("field-size", 2, "Field size in degrees")
	age := fs.Float64("age", 32, "Observer age in years")
	minL := fs.Float64("min", 390, "Lower wavelength bound in nm")
	maxL := fs.Float64("max", 830, "Upper wavelength bound in nm")
	step := fs.Float64("step", 1, "Wavelength step in nm")
	optional := fs.String("optional", "", "Comma separated flags (log,base,info,norm), applied to the quantities that accept them")
	outDir := fs.String("out", ".", "Output directory")
	formats := fs.String("formats", "json,csv,png", "Comma separated outputs: json, csv, png")
	server := fs.String("server", "", "Fetch from a ciefunctions server at this base URL instead of computing locally")
	dataDir := fs.String("data", "", "Directory holding the reference CSV tables")
	refDB := fs.String("refdb", "", "SQLite reference database")
	jobs := fs.Int("j", runtime.NumCPU(), "Quantities computed concurrently")
	showVersion := fs.Bool("version", false, "Print the version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *showVersion {
		fmt.Println(version.String("cieplot"))
		return nil, flag.ErrHelp
	}

	o := &options{
		fieldSize: *fieldSize, age: *age, min: *minL, max: *maxL, step: *step,
		outDir: *outDir, server: *server, dataDir: *dataDir, refDB: *refDB, jobs: *jobs,
		formats: map[string]bool{},
	}
	for _, s := range splitList(*quantities) {
		q, err := colorimetry.ParseQuantity(s)
		if err != nil {
			return nil, err
		}
		o.quantities = append(o.quantities, q)
	}
	if len(o.quantities) == 0 {
		return nil, fmt.Errorf("no quantities selected")
	}
	for _, f := range splitList(*formats) {
		switch f {
		case "json", "csv", "png":
			o.formats[f] = true
		default:
			return nil, fmt.Errorf("unknown format %q", f)
		}
	}
	o.optional = splitList(*optional)
	if o.jobs < 1 {
		o.jobs = 1
	}
	return o, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// accepts reports whether q takes the optional flag name.
func accepts(q colorimetry.Quantity, name string) bool {
	switch name {
	case "log", "base":
		return q == colorimetry.LMS
	case "info":
		return q.HasInfo()
	case "norm":
		return q == colorimetry.XYZ || q == colorimetry.XYZPurple || q == colorimetry.XY || q == colorimetry.XYPurple
	}
	return false
}

// query builds the API query of q from the options.
func (o *options) query(q colorimetry.Quantity) url.Values {
	v := url.Values{}
	v.Set("field_size", strconv.FormatFloat(o.fieldSize, 'g', -1, 64))
	if !q.Standard() {
		v.Set("age", strconv.FormatFloat(o.age, 'g', -1, 64))
		v.Set("min", strconv.FormatFloat(o.min, 'g', -1, 64))
		v.Set("max", strconv.FormatFloat(o.max, 'g', -1, 64))
		v.Set("step_size", strconv.FormatFloat(o.step, 'g', -1, 64))
	}
	var flags []string
	for _, f := range o.optional {
		if accepts(q, f) {
			flags = append(flags, f)
		}
	}
	if len(flags) > 0 {
		v.Set("optional", strings.Join(flags, ","))
	}
	return v
}

// newSource picks the server, the database, the CSV directory or the
// analytic tables, in that order.
func newSource(ctx context.Context, o *options) (source, error) {
	if o.server != "" {
		return &remoteSource{client: httputil.NewAPIClient(o.server, nil)}, nil
	}
	var tables *refdata.Tables
	switch {
	case o.refDB != "":
		db, err := refdb.Open(o.refDB)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		if tables, err = db.Load(ctx); err != nil {
			return nil, err
		}
	case o.dataDir != "":
		var err error
		if tables, err = refdata.LoadDir(fsutil.OSFileSystem{}, o.dataDir); err != nil {
			return nil, err
		}
	default:
		monitoring.Logf("no -data, -refdb or -server given; using the analytic tables")
		tables = refdata.Analytic()
	}
	engine := colorimetry.NewEngine(refdata.NewObserverCache(tables), colorimetry.DefaultSolverConfig())
	return &localSource{engine: engine}, nil
}

// run computes every selected quantity, o.jobs at a time, and writes the
// outputs. It returns the written file names.
func run(ctx context.Context, o *options) ([]string, error) {
	if err := os.MkdirAll(o.outDir, 0o755); err != nil {
		return nil, err
	}
	src, err := newSource(ctx, o)
	if err != nil {
		return nil, err
	}

	written := make([][]string, len(o.quantities))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.jobs)
	for i, q := range o.quantities {
		g.Go(func() error {
			out, err := src.fetch(gctx, q, o.query(q))
			if err != nil {
				return fmt.Errorf("%s: %w", q, err)
			}
			files, err := writeOutputs(o.outDir, baseName(q, o), q, out, o.formats)
			if err != nil {
				return fmt.Errorf("%s: %w", q, err)
			}
			written[i] = files
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []string
	for _, files := range written {
		all = append(all, files...)
	}
	return all, nil
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("cieplot: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	files, err := run(ctx, o)
	if err != nil {
		log.Fatalf("cieplot: %v", err)
	}
	for _, f := range files {
		fmt.Println(f)
	}
}
