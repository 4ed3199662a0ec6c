package browser

import (
	"strconv"
	"strings"
)

// Field identifies one of the six record columns.
type Field int

const (
	FieldID Field = iota
	FieldName
	FieldDeveloper
	FieldReleaseYear
	FieldVersion
	FieldEngine
)

// Columns is the CSV header in canonical order.
var Columns = []string{
	"browser_id",
	"browser_name",
	"developer",
	"release_date",
	"latest_version",
	"engine",
}

// Fields lists every field in column order.
var Fields = []Field{FieldID, FieldName, FieldDeveloper, FieldReleaseYear, FieldVersion, FieldEngine}

var fieldAliases = map[string]Field{
	"browser_id":     FieldID,
	"id":             FieldID,
	"browser_name":   FieldName,
	"name":           FieldName,
	"developer":      FieldDeveloper,
	"release_date":   FieldReleaseYear,
	"release_year":   FieldReleaseYear,
	"year":           FieldReleaseYear,
	"latest_version": FieldVersion,
	"version":        FieldVersion,
	"engine":         FieldEngine,
}

// Valid reports whether f is one of the six known fields.
func (f Field) Valid() bool { return f >= FieldID && f <= FieldEngine }

// Column returns the CSV column name of f.
func (f Field) Column() string {
	if !f.Valid() {
		return ""
	}
	return Columns[f]
}

// Label is the human readable name used in printed reports.
func (f Field) Label() string {
	switch f {
	case FieldID:
		return "ID"
	case FieldName:
		return "Name"
	case FieldDeveloper:
		return "Developer"
	case FieldReleaseYear:
		return "Release year"
	case FieldVersion:
		return "Latest version"
	case FieldEngine:
		return "Engine"
	}
	return ""
}

func (f Field) String() string {
	if c := f.Column(); c != "" {
		return c
	}
	return "field(" + strconv.Itoa(int(f)) + ")"
}

// ParseField maps a column name or short alias to its Field.
func ParseField(name string) (Field, error) {
	f, ok := fieldAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, &UnknownFieldError{Name: name}
	}
	return f, nil
}
