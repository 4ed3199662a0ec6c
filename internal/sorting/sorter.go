package sorting

import (
	"fmt"
	"sort"
	"strings"

	"browserdb/internal/browser"
)

type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// ParseDirection accepts asc/ascending and desc/descending.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	}
	return Ascending, fmt.Errorf("unknown sort direction %q (want asc or desc)", s)
}

// Level is one sort criterion.
type Level struct {
	Field     browser.Field
	Direction Direction
}

// SortSpec describes one sort invocation. Each level keeps its own
// direction; the secondary one only breaks primary ties.
type SortSpec struct {
	Primary   Level
	Secondary *Level
}

func (s SortSpec) String() string {
	out := fmt.Sprintf("%s %s", s.Primary.Field, s.Primary.Direction)
	if s.Secondary != nil {
		out += fmt.Sprintf(", then %s %s", s.Secondary.Field, s.Secondary.Direction)
	}
	return out
}

func (s SortSpec) levels() []Level {
	if s.Secondary == nil {
		return []Level{s.Primary}
	}
	return []Level{s.Primary, *s.Secondary}
}

// Sorter produces stable orderings of record sequences.
type Sorter struct {
	Resolver Resolver
}

// Sort returns a new slice ordered by spec. The input is never modified;
// on error nothing is returned.
func (s Sorter) Sort(records []browser.Record, spec SortSpec) ([]browser.Record, error) {
	levels := spec.levels()
	keys := make([][]Key, len(levels))
	for li, lv := range levels {
		if !lv.Field.Valid() {
			return nil, &browser.UnknownFieldError{Name: lv.Field.String()}
		}
		keys[li] = make([]Key, len(records))
		for i, r := range records {
			k, err := s.Resolver.Resolve(r, lv.Field)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
			keys[li][i] = k
		}
	}

	idx := make([]int, len(records))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := idx[a], idx[b]
		for li, lv := range levels {
			c := keys[li][ia].Compare(keys[li][ib])
			if lv.Direction == Descending {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})

	out := make([]browser.Record, len(records))
	for i, j := range idx {
		out[i] = records[j]
	}
	return out, nil
}

// ColumnToggle remembers the last direction used per column so repeated
// clicks on a header alternate ascending and descending. The zero value
// sorts with a lenient Sorter.
type ColumnToggle struct {
	sorter Sorter
	desc   map[browser.Field]bool
}

func NewColumnToggle(s Sorter) *ColumnToggle {
	return &ColumnToggle{sorter: s, desc: make(map[browser.Field]bool)}
}

// SortByColumn flips the stored direction of f and sorts by it. The first
// call for a column sorts ascending. The toggle only advances when the
// sort succeeds.
func (t *ColumnToggle) SortByColumn(records []browser.Record, f browser.Field) ([]browser.Record, Direction, error) {
	next := Ascending
	if seen, ok := t.desc[f]; ok && !seen {
		next = Descending
	}
	out, err := t.sorter.Sort(records, SortSpec{Primary: Level{Field: f, Direction: next}})
	if err != nil {
		return nil, next, err
	}
	if t.desc == nil {
		t.desc = make(map[browser.Field]bool)
	}
	t.desc[f] = next == Descending
	return out, next, nil
}

// Direction returns the direction last applied to f.
func (t *ColumnToggle) Direction(f browser.Field) (Direction, bool) {
	d, ok := t.desc[f]
	if !ok {
		return Ascending, false
	}
	if d {
		return Descending, true
	}
	return Ascending, true
}

// Reset forgets every remembered direction.
func (t *ColumnToggle) Reset() {
	t.desc = make(map[browser.Field]bool)
}
