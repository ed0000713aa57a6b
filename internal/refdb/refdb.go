// Package refdb stores the reference tables in a SQLite database so that a
// deployment can ship a single file instead of a CSV directory.
package refdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/ciefunctions/internal/refdata"
)

// ErrEmpty is returned by Load when the database holds no tables yet.
var ErrEmpty = errors.New("refdb: no reference tables imported")

type DB struct {
	*sql.DB
	path string
}

// Open opens the database at path without touching its schema. Use
// MigrateUp before the first Import.
func Open(path string) (*DB, error) {
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn += sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &DB{DB: db, path: path}, nil
}

// Path returns the file the database was opened from.
func (db *DB) Path() string { return db.path }

// TableInfo describes one imported table.
type TableInfo struct {
	Name       string
	Columns    int
	Rows       int
	Source     string
	ImportedAt time.Time
	MinLambda  float64
	MaxLambda  float64
}

func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// Import validates t and replaces every stored table with it in one
// transaction. source records where the tables came from.
func (db *DB) Import(ctx context.Context, t *refdata.Tables, source string) error {
	if err := t.Validate(); err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reference_rows`); err != nil {
		return fmt.Errorf("clear rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM reference_tables`); err != nil {
		return fmt.Errorf("clear tables: %w", err)
	}

	insert, err := tx.PrepareContext(ctx, `
		INSERT INTO reference_rows (table_name, row_index, wavelength, v1, v2, v3)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer insert.Close()

	for _, name := range refdata.Names {
		rows, _ := t.Table(name)
		cols, _ := refdata.Columns(name)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO reference_tables (name, columns, row_count, source) VALUES (?, ?, ?, ?)`,
			name, cols, len(rows), source); err != nil {
			return fmt.Errorf("insert table %s: %w", name, err)
		}
		for i, r := range rows {
			var v [3]sql.NullFloat64
			for j := 1; j < len(r) && j <= 3; j++ {
				v[j-1] = nullable(r[j])
			}
			if _, err := insert.ExecContext(ctx, name, i, r[0], v[0], v[1], v[2]); err != nil {
				return fmt.Errorf("insert %s row %d: %w", name, i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

// Load reads every table back and validates the result. NULL values are
// returned as NaN.
func (db *DB) Load(ctx context.Context) (*refdata.Tables, error) {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reference_tables`).Scan(&count); err != nil {
		return nil, fmt.Errorf("count tables: %w", err)
	}
	if count == 0 {
		return nil, ErrEmpty
	}

	t := &refdata.Tables{}
	for _, name := range refdata.Names {
		rows, err := db.loadTable(ctx, name)
		if err != nil {
			return nil, err
		}
		if err := t.SetTable(name, rows); err != nil {
			return nil, err
		}
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", db.path, err)
	}
	return t, nil
}

func (db *DB) loadTable(ctx context.Context, name string) ([][]float64, error) {
	var cols int
	err := db.QueryRowContext(ctx, `SELECT columns FROM reference_tables WHERE name = ?`, name).Scan(&cols)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s missing from %s", refdata.ErrInvalidTable, name, db.path)
	}
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", name, err)
	}
	if cols < 2 || cols > 4 {
		return nil, fmt.Errorf("%w: %s has %d columns", refdata.ErrInvalidTable, name, cols)
	}

	rs, err := db.QueryContext(ctx, `
		SELECT wavelength, v1, v2, v3 FROM reference_rows
		WHERE table_name = ? ORDER BY row_index`, name)
	if err != nil {
		return nil, fmt.Errorf("read rows of %s: %w", name, err)
	}
	defer rs.Close()

	var out [][]float64
	for rs.Next() {
		var lambda float64
		var v [3]sql.NullFloat64
		if err := rs.Scan(&lambda, &v[0], &v[1], &v[2]); err != nil {
			return nil, fmt.Errorf("scan %s: %w", name, err)
		}
		row := make([]float64, cols)
		row[0] = lambda
		for j := 1; j < cols; j++ {
			if v[j-1].Valid {
				row[j] = v[j-1].Float64
			} else {
				row[j] = math.NaN()
			}
		}
		out = append(out, row)
	}
	if err := rs.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Summary lists the imported tables with their wavelength range.
func (db *DB) Summary(ctx context.Context) ([]TableInfo, error) {
	rs, err := db.QueryContext(ctx, `
		SELECT t.name, t.columns, t.row_count, t.source, t.imported_at,
		       COALESCE(MIN(r.wavelength), 0), COALESCE(MAX(r.wavelength), 0)
		FROM reference_tables t
		LEFT JOIN reference_rows r ON r.table_name = t.name
		GROUP BY t.name
		ORDER BY t.name`)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	defer rs.Close()

	var out []TableInfo
	for rs.Next() {
		var ti TableInfo
		var imported sql.NullString
		if err := rs.Scan(&ti.Name, &ti.Columns, &ti.Rows, &ti.Source, &imported, &ti.MinLambda, &ti.MaxLambda); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		if imported.Valid {
			ti.ImportedAt = parseTimestamp(imported.String)
		}
		out = append(out, ti)
	}
	return out, rs.Err()
}

// parseTimestamp accepts the CURRENT_TIMESTAMP text of SQLite and the
// RFC 3339 form the driver may return.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
