// Package sorting orders browser records by type-aware keys.
package sorting

import (
	"strconv"
	"strings"
	"time"

	"browserdb/internal/browser"
)

type keyKind int

const (
	kindInt keyKind = iota
	kindTuple
	kindTime
	kindText
)

// Key is a comparable sort key extracted from one record field. Keys are only
// compared with keys of the same field.
type Key struct {
	kind  keyKind
	num   int
	parts []int
	at    time.Time
	text  string
}

// Compare returns -1, 0 or +1.
func (k Key) Compare(o Key) int {
	switch k.kind {
	case kindInt:
		return cmpInt(k.num, o.num)
	case kindTuple:
		return compareTuple(k.parts, o.parts)
	case kindTime:
		switch {
		case k.at.Before(o.at):
			return -1
		case k.at.After(o.at):
			return 1
		}
		return 0
	default:
		return strings.Compare(k.text, o.text)
	}
}

// compareTuple walks both tuples segment by segment; when one runs out first
// it is the smaller, so "1.2" < "1.2.0".
func compareTuple(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := cmpInt(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmpInt(len(a), len(b))
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Resolver maps a record field to its Key. The zero value is lenient:
// unparsable ids become 0, non-numeric version segments become 0 and
// unreadable years sort before every real date. Strict reports those cases
// as *browser.MalformedFieldError instead.
type Resolver struct {
	Strict bool
}

// Resolve extracts the key of field f from r.
func (res Resolver) Resolve(r browser.Record, f browser.Field) (Key, error) {
	v := r.Get(f)
	switch f {
	case browser.FieldID:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			if res.Strict {
				return Key{}, &browser.MalformedFieldError{Field: f, Value: v, Err: err}
			}
			n = 0
		}
		return Key{kind: kindInt, num: n}, nil
	case browser.FieldVersion:
		segs := strings.Split(strings.TrimSpace(v), ".")
		parts := make([]int, len(segs))
		for i, s := range segs {
			n, ok := browser.ParseDigits(s)
			if !ok && res.Strict {
				return Key{}, &browser.MalformedFieldError{Field: f, Value: v}
			}
			parts[i] = n
		}
		return Key{kind: kindTuple, parts: parts}, nil
	case browser.FieldReleaseYear:
		t, ok := browser.ParseReleaseDate(v)
		if !ok && res.Strict {
			return Key{}, &browser.MalformedFieldError{Field: f, Value: v}
		}
		return Key{kind: kindTime, at: t}, nil
	case browser.FieldName, browser.FieldDeveloper, browser.FieldEngine:
		return Key{kind: kindText, text: strings.ToLower(v)}, nil
	}
	return Key{}, &browser.UnknownFieldError{Name: f.String()}
}

