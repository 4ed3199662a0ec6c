// Package csvio reads and writes browser datasets as CSV files.
package csvio

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"browserdb/internal/browser"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load reads a dataset file. See Read for the accepted layout.
func Load(path string) ([]browser.Record, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	rs, err := Read(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}

// Read parses CSV with a header row naming all six columns in any order.
// A leading BOM is dropped; extra columns are ignored; short rows are padded
// with empty values.
func Read(r io.Reader) ([]browser.Record, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	b = bytes.TrimPrefix(b, utf8BOM)
	cr := csv.NewReader(bytes.NewReader(b))
	cr.FieldsPerRecord = -1
	headers, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &browser.MissingColumnsError{Missing: browser.Columns}
		}
		return nil, err
	}

	pos := make(map[string]int, len(headers))
	for i, h := range headers {
		pos[strings.TrimSpace(h)] = i
	}
	var missing []string
	for _, c := range browser.Columns {
		if _, ok := pos[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &browser.MissingColumnsError{Missing: missing}
	}

	records := make([]browser.Record, 0)
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if isBlankRow(rec) {
			continue
		}
		var r browser.Record
		for _, f := range browser.Fields {
			if i := pos[f.Column()]; i < len(rec) {
				r.Set(f, normalizeCSVField(rec[i]))
			}
		}
		records = append(records, r)
	}
	return records, nil
}

// Save writes records to path, creating parent directories.
func Save(path string, records []browser.Record) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	var buf bytes.Buffer
	if err := Write(&buf, records); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Write emits the header and one row per record in canonical column order.
func Write(w io.Writer, records []browser.Record) error {
	if err := writeCSVRecordWithTerminator(w, browser.Columns, "\n"); err != nil {
		return err
	}
	for _, r := range records {
		if err := writeCSVRecordWithTerminator(w, r.Values(), "\n"); err != nil {
			return err
		}
	}
	return nil
}

func isBlankRow(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func normalizeCSVField(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimSpace(s)
}

func writeCSVRecordWithTerminator(w io.Writer, rec []string, terminator string) error {
	for i, field := range rec {
		if i > 0 {
			if _, err := io.WriteString(w, ","); err != nil {
				return err
			}
		}
		if needsCSVQuote(field) {
			field = `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
		}
		if _, err := io.WriteString(w, field); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, terminator)
	return err
}

func needsCSVQuote(s string) bool {
	return strings.ContainsAny(s, ",\"\n\r")
}
