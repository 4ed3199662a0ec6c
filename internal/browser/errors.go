package browser

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedField: a numeric, version or date field could not be parsed.
	ErrMalformedField = errors.New("malformed field")
	// ErrEmptyDataset: a range or mean was requested over zero records.
	ErrEmptyDataset = errors.New("empty dataset")
	// ErrDuplicateID: an insert or edit would produce two records with one id.
	ErrDuplicateID = errors.New("duplicate id")
	// ErrUnknownField: a field name outside the six known columns.
	ErrUnknownField = errors.New("unknown field")
	// ErrEmptyField: a required field is blank.
	ErrEmptyField = errors.New("empty field")
	// ErrMissingColumns: a CSV header lacks required columns.
	ErrMissingColumns = errors.New("missing columns")
	// ErrNotFound: no record carries the requested id.
	ErrNotFound = errors.New("record not found")
)

type MalformedFieldError struct {
	Field Field
	Value string
	Err   error
}

func (e *MalformedFieldError) Error() string {
	msg := fmt.Sprintf("malformed %s %q", e.Field, e.Value)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedFieldError) Is(target error) bool { return target == ErrMalformedField }
func (e *MalformedFieldError) Unwrap() error        { return e.Err }

type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("record with id %q already exists", e.ID)
}

func (e *DuplicateIDError) Is(target error) bool { return target == ErrDuplicateID }

type UnknownFieldError struct {
	Name string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %q (want one of %s)", e.Name, strings.Join(Columns, ", "))
}

func (e *UnknownFieldError) Is(target error) bool { return target == ErrUnknownField }

type EmptyFieldError struct {
	Field Field
}

func (e *EmptyFieldError) Error() string {
	return fmt.Sprintf("field %s must not be empty", e.Field)
}

func (e *EmptyFieldError) Is(target error) bool { return target == ErrEmptyField }

// MissingColumnsError lists the required columns absent from a header.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

func (e *MissingColumnsError) Is(target error) bool { return target == ErrMissingColumns }
