package stats

import (
	"sort"
	"strings"

	"browserdb/internal/browser"
)

// VersionStats summarizes the numeric major versions.
type VersionStats struct {
	Count int
	Mean  float64
	Min   float64
	Max   float64
	Range float64
}

// Metrics is the full analysis of one record set.
type Metrics struct {
	Total      int
	Developers int
	Engines    int

	HasYears bool
	MinYear  int
	MaxYear  int
	MeanYear float64
	StdDev   float64
	Decades  map[int]int
	Oldest   browser.Record
	Newest   browser.Record

	ByDeveloper map[string]*GroupStats
	ByEngine    map[string]*GroupStats

	// Versions is nil when no record has a numeric major version.
	Versions *VersionStats
	Shares   Shares

	ModernPercent float64
	WebKitPercent float64
}

// Compute runs every analysis over records using est for the market share.
func Compute(records []browser.Record, est Estimator) (*Metrics, error) {
	if len(records) == 0 {
		return nil, browser.ErrEmptyDataset
	}
	m := &Metrics{
		Total:      len(records),
		Developers: len(browser.Distinct(records, browser.FieldDeveloper)),
		Engines:    len(browser.Distinct(records, browser.FieldEngine)),
		Decades:    make(map[int]int),
	}

	var err error
	if m.ByDeveloper, err = GroupBy(records, browser.FieldDeveloper, browser.FieldEngine); err != nil {
		return nil, err
	}
	if m.ByEngine, err = GroupBy(records, browser.FieldEngine, browser.FieldDeveloper); err != nil {
		return nil, err
	}

	years := Years(records)
	if len(years) > 0 {
		m.HasYears = true
		m.MinYear, m.MaxYear = minMax(years)
		m.MeanYear = meanInts(years)
		m.StdDev = sampleStdDev(years)
		for _, y := range years {
			m.Decades[Decade(y)]++
		}
		m.Oldest, m.Newest = extremes(records)
	}

	m.Versions = versionStats(records)

	if m.Shares, err = est.Estimate(records); err != nil {
		return nil, err
	}

	modern, webkit := 0, 0
	for _, r := range records {
		if y, err := r.Year(); err == nil && y >= est.ModernYear {
			modern++
		}
		if strings.Contains(strings.ToLower(r.Engine), "webkit") {
			webkit++
		}
	}
	m.ModernPercent = safeDiv(float64(modern)*100, float64(m.Total))
	m.WebKitPercent = safeDiv(float64(webkit)*100, float64(m.Total))
	return m, nil
}

// Decade floors a year to its decade, 1995 -> 1990.
func Decade(year int) int {
	d := year / 10 * 10
	if year < 0 && year%10 != 0 {
		d -= 10
	}
	return d
}

// SortedDecades returns the decade keys ascending.
func (m *Metrics) SortedDecades() []int {
	out := make([]int, 0, len(m.Decades))
	for d := range m.Decades {
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}

// extremes returns the first record with the earliest year and the first
// with the latest, ignoring unreadable years.
func extremes(records []browser.Record) (oldest, newest browser.Record) {
	found := false
	var lo, hi int
	for _, r := range records {
		y, err := r.Year()
		if err != nil {
			continue
		}
		if !found {
			oldest, newest, lo, hi, found = r, r, y, y, true
			continue
		}
		if y < lo {
			oldest, lo = r, y
		}
		if y > hi {
			newest, hi = r, y
		}
	}
	return oldest, newest
}

func versionStats(records []browser.Record) *VersionStats {
	var majors []float64
	for _, r := range records {
		if v, err := r.MajorVersion(); err == nil {
			majors = append(majors, v)
		}
	}
	if len(majors) == 0 {
		return nil
	}
	vs := &VersionStats{Count: len(majors), Mean: mean(majors), Min: majors[0], Max: majors[0]}
	for _, v := range majors[1:] {
		if v < vs.Min {
			vs.Min = v
		}
		if v > vs.Max {
			vs.Max = v
		}
	}
	vs.Range = vs.Max - vs.Min
	return vs
}
