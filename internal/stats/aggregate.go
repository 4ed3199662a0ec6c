// Package stats computes group rollups, the synthetic market share and the
// corpus-wide metrics used by the report generator.
package stats

import (
	"math"
	"sort"

	"browserdb/internal/browser"
)

// GroupStats aggregates the records that share one value of the grouping
// field. Records whose release year does not parse count as members but are
// left out of the year statistics.
type GroupStats struct {
	Key      string
	Members  []browser.Record
	Names    []string
	Count    int
	MinYear  int
	MaxYear  int
	MeanYear float64
	YearSpan int
	Distinct map[browser.Field][]string

	years []int
}

// HasYears reports whether at least one member had a usable year.
func (g *GroupStats) HasYears() bool { return len(g.years) > 0 }

// MembersByYear returns the members ordered by release year, oldest first.
// Members with an unreadable year come first; ties keep input order.
func (g *GroupStats) MembersByYear() []browser.Record {
	out := browser.Clone(g.Members)
	sort.SliceStable(out, func(i, j int) bool {
		yi, erri := out[i].Year()
		yj, errj := out[j].Year()
		if (erri != nil) != (errj != nil) {
			return erri != nil
		}
		return yi < yj
	})
	return out
}

// GroupBy partitions records by field. Every record lands in exactly one
// group; subFields name the columns whose distinct values are collected per
// group, e.g. engines inside a developer group.
func GroupBy(records []browser.Record, field browser.Field, subFields ...browser.Field) (map[string]*GroupStats, error) {
	if !field.Valid() {
		return nil, &browser.UnknownFieldError{Name: field.String()}
	}
	for _, f := range subFields {
		if !f.Valid() {
			return nil, &browser.UnknownFieldError{Name: f.String()}
		}
	}

	groups := make(map[string]*GroupStats)
	for _, r := range records {
		k := r.Get(field)
		g, ok := groups[k]
		if !ok {
			g = &GroupStats{Key: k}
			groups[k] = g
		}
		g.Members = append(g.Members, r)
		g.Names = append(g.Names, r.Name)
		if y, err := r.Year(); err == nil {
			g.years = append(g.years, y)
		}
	}

	for _, g := range groups {
		g.Count = len(g.Members)
		if g.HasYears() {
			g.MinYear, g.MaxYear = minMax(g.years)
			g.YearSpan = g.MaxYear - g.MinYear
			g.MeanYear = meanInts(g.years)
		}
		if len(subFields) > 0 {
			g.Distinct = make(map[browser.Field][]string, len(subFields))
			for _, f := range subFields {
				g.Distinct[f] = browser.Distinct(g.Members, f)
			}
		}
	}
	return groups, nil
}

// SortedKeys returns the group keys in ascending order.
func SortedKeys(groups map[string]*GroupStats) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Years returns the parsable release years in record order.
func Years(records []browser.Record) []int {
	out := make([]int, 0, len(records))
	for _, r := range records {
		if y, err := r.Year(); err == nil {
			out = append(out, y)
		}
	}
	return out
}

// YearRange returns the earliest and latest release year.
func YearRange(records []browser.Record) (int, int, error) {
	ys := Years(records)
	if len(ys) == 0 {
		return 0, 0, browser.ErrEmptyDataset
	}
	lo, hi := minMax(ys)
	return lo, hi, nil
}

// MeanYear is the arithmetic mean of the release years.
func MeanYear(records []browser.Record) (float64, error) {
	ys := Years(records)
	if len(ys) == 0 {
		return 0, browser.ErrEmptyDataset
	}
	return meanInts(ys), nil
}

func minMax(xs []int) (int, int) {
	lo, hi := xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return lo, hi
}

func meanInts(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += float64(x)
	}
	return sum / float64(len(xs))
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStdDev uses the n-1 denominator and is 0 below two values.
func sampleStdDev(xs []int) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := meanInts(xs)
	ss := 0.0
	for _, x := range xs {
		d := float64(x) - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
