// Package browser holds the browser record schema, its error kinds and the
// in-memory dataset the rest of the module operates on.
package browser

import (
	"strconv"
	"strings"
	"time"
)

// Record is one browser entry. Values keep their external text form; typed
// views are parsed on demand so malformed rows survive a load.
type Record struct {
	ID          string
	Name        string
	Developer   string
	ReleaseYear string
	Version     string
	Engine      string
}

// Get returns the raw text of field f.
func (r Record) Get(f Field) string {
	switch f {
	case FieldID:
		return r.ID
	case FieldName:
		return r.Name
	case FieldDeveloper:
		return r.Developer
	case FieldReleaseYear:
		return r.ReleaseYear
	case FieldVersion:
		return r.Version
	case FieldEngine:
		return r.Engine
	}
	return ""
}

// Set assigns the raw text of field f.
func (r *Record) Set(f Field, v string) {
	switch f {
	case FieldID:
		r.ID = v
	case FieldName:
		r.Name = v
	case FieldDeveloper:
		r.Developer = v
	case FieldReleaseYear:
		r.ReleaseYear = v
	case FieldVersion:
		r.Version = v
	case FieldEngine:
		r.Engine = v
	}
}

// Values returns the fields in column order.
func (r Record) Values() []string {
	return []string{r.ID, r.Name, r.Developer, r.ReleaseYear, r.Version, r.Engine}
}

// FromValues builds a record from values in column order.
func FromValues(vals []string) Record {
	var r Record
	for i, f := range Fields {
		if i < len(vals) {
			r.Set(f, vals[i])
		}
	}
	return r
}

// IntID parses the id.
func (r Record) IntID() (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(r.ID))
	if err != nil {
		return 0, &MalformedFieldError{Field: FieldID, Value: r.ID, Err: err}
	}
	return n, nil
}

// Year parses the release year. Besides a bare year it accepts an ISO date,
// taking its year component.
func (r Record) Year() (int, error) {
	t, ok := ParseReleaseDate(r.ReleaseYear)
	if !ok {
		return 0, &MalformedFieldError{Field: FieldReleaseYear, Value: r.ReleaseYear}
	}
	return t.Year(), nil
}

// MajorVersion returns the leading dot segment of the version as a number.
func (r Record) MajorVersion() (float64, error) {
	head, _, _ := strings.Cut(strings.TrimSpace(r.Version), ".")
	n, ok := ParseDigits(head)
	if !ok {
		return 0, &MalformedFieldError{Field: FieldVersion, Value: r.Version}
	}
	return float64(n), nil
}

// ParseDigits parses a non-empty run of ASCII digits. Signs, spaces and
// exponents are rejected.
func ParseDigits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseReleaseDate accepts a bare four digit year, read as January 1st, or
// an ISO date. ok is false for anything else.
func ParseReleaseDate(v string) (time.Time, bool) {
	s := strings.TrimSpace(v)
	if len(s) == 4 {
		if n, ok := ParseDigits(s); ok {
			return time.Date(n, time.January, 1, 0, 0, 0, 0, time.UTC), true
		}
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (r Record) Trimmed() Record {
	var out Record
	for _, f := range Fields {
		out.Set(f, strings.TrimSpace(r.Get(f)))
	}
	return out
}

// Validate reports the first blank field.
func (r Record) Validate() error {
	for _, f := range Fields {
		if strings.TrimSpace(r.Get(f)) == "" {
			return &EmptyFieldError{Field: f}
		}
	}
	return nil
}

// Clone copies a record slice.
func Clone(records []Record) []Record {
	return append([]Record(nil), records...)
}
