// Package sqlite exports browser datasets to a single-file SQLite database
// and reads them back.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"browserdb/internal/browser"

	_ "modernc.org/sqlite"
)

const (
	tableName = "browsers"

	// Raw column values are kept as TEXT so an import reproduces the CSV
	// exactly; release_year and major_version are derived for querying.
	schema = `
CREATE TABLE browsers (
	browser_id TEXT NOT NULL,
	browser_name TEXT NOT NULL,
	developer TEXT NOT NULL,
	release_date TEXT NOT NULL,
	latest_version TEXT NOT NULL,
	engine TEXT NOT NULL,
	release_year INTEGER,
	major_version REAL
);

CREATE INDEX IF NOT EXISTS idx_browsers_developer ON browsers(developer);
CREATE INDEX IF NOT EXISTS idx_browsers_engine ON browsers(engine);
CREATE INDEX IF NOT EXISTS idx_browsers_release_year ON browsers(release_year);
`
	insertSQL = `INSERT INTO browsers (browser_id, browser_name, developer, release_date, latest_version, engine, release_year, major_version)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	selectSQL = `SELECT browser_id, browser_name, developer, release_date, latest_version, engine FROM browsers ORDER BY rowid`
)

func open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// Export writes records to a fresh database at path, replacing any file
// already there.
func Export(ctx context.Context, path string, records []browser.Record) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	db, err := open(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); err == nil {
			err = cerr
		}
	}()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, r := range records {
		args := []any{r.ID, r.Name, r.Developer, r.ReleaseYear, r.Version, r.Engine, nil, nil}
		if y, yerr := r.Year(); yerr == nil {
			args[6] = y
		}
		if v, verr := r.MajorVersion(); verr == nil {
			args[7] = v
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert row %d: %w", i+1, err)
		}
	}
	return tx.Commit()
}

// Import reads every record from the browsers table in insertion order.
func Import(ctx context.Context, path string) (records []browser.Record, err error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := db.Close(); err == nil {
			err = cerr
		}
	}()

	rows, err := db.QueryContext(ctx, selectSQL)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", tableName, err)
	}
	defer rows.Close()

	records = make([]browser.Record, 0)
	for rows.Next() {
		var r browser.Record
		if err := rows.Scan(&r.ID, &r.Name, &r.Developer, &r.ReleaseYear, &r.Version, &r.Engine); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// GroupCount is one row of a per-value count query.
type GroupCount struct {
	Value string
	Count int
}

// CountBy counts exported records per distinct value of f, most frequent
// first and then by value.
func CountBy(ctx context.Context, path string, f browser.Field) (counts []GroupCount, err error) {
	if !f.Valid() {
		return nil, &browser.UnknownFieldError{Name: f.String()}
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := db.Close(); err == nil {
			err = cerr
		}
	}()

	col := f.Column()
	q := fmt.Sprintf(`SELECT %q, COUNT(*) FROM browsers GROUP BY %q ORDER BY COUNT(*) DESC, %q`, col, col, col)
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("count by %s: %w", col, err)
	}
	defer rows.Close()
	for rows.Next() {
		var gc GroupCount
		if err := rows.Scan(&gc.Value, &gc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, gc)
	}
	return counts, rows.Err()
}
