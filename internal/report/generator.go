// Package report renders browser datasets as textual reports.
package report

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"browserdb/internal/browser"
	"browserdb/internal/stats"
)

type Type string

const (
	Summary     Type = "summary"
	Detailed    Type = "detailed"
	Statistical Type = "statistical"
	ByDeveloper Type = "by_developer"
	ByEngine    Type = "by_engine"
	Metrics     Type = "metrics"
)

// Types lists every report type in menu order.
var Types = []Type{Summary, Detailed, Statistical, ByDeveloper, ByEngine, Metrics}

var ErrUnknownReportType = errors.New("unknown report type")

// ParseType accepts the type names above, case-insensitively.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Types {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownReportType, s)
}

// Filters restrict the records a report covers. Both match by equality;
// empty or "all" disables a filter.
type Filters struct {
	Developer string
	Engine    string
}

func (f Filters) Apply(records []browser.Record) []browser.Record {
	return browser.Filter(records, f.Developer, f.Engine)
}

func (f Filters) active() bool {
	return isSet(f.Developer) || isSet(f.Engine)
}

func isSet(v string) bool {
	return v != "" && !strings.EqualFold(v, browser.AllValue)
}

// Report is a generated body plus the filtered records it was built from.
type Report struct {
	Type        Type
	Filters     Filters
	GeneratedAt time.Time
	Records     []browser.Record
	Lines       []string
}

func (r *Report) Text() string { return strings.Join(r.Lines, "\n") }

const timestampLayout = "02.01.2006 15:04:05"

// Generator builds report bodies. Now is injectable for reproducible output.
type Generator struct {
	Now       func() time.Time
	Estimator stats.Estimator
}

func NewGenerator(est stats.Estimator) *Generator {
	return &Generator{Now: time.Now, Estimator: est}
}

// Generate filters records and renders the requested report. An empty
// filtered set still yields a valid report with zero counts and no ranges.
func (g *Generator) Generate(records []browser.Record, typ Type, filters Filters) (*Report, error) {
	now := time.Now()
	if g.Now != nil {
		now = g.Now()
	}
	rep := &Report{
		Type:        typ,
		Filters:     filters,
		GeneratedAt: now,
		Records:     filters.Apply(records),
	}
	w := &lineWriter{}
	var err error
	switch typ {
	case Summary:
		g.summary(w, rep)
	case Detailed:
		g.detailed(w, rep)
	case Statistical:
		err = g.statistical(w, rep)
	case ByDeveloper:
		err = g.grouped(w, rep, browser.FieldDeveloper)
	case ByEngine:
		err = g.grouped(w, rep, browser.FieldEngine)
	case Metrics:
		err = g.metrics(w, rep)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownReportType, typ)
	}
	if err != nil {
		return nil, err
	}
	rep.Lines = w.lines
	return rep, nil
}

type lineWriter struct {
	lines []string
}

func (w *lineWriter) add(format string, args ...any) {
	w.lines = append(w.lines, fmt.Sprintf(format, args...))
}

func (w *lineWriter) line(s string) { w.lines = append(w.lines, s) }

func (w *lineWriter) blank() { w.lines = append(w.lines, "") }

func (w *lineWriter) rule(ch string, n int) { w.lines = append(w.lines, strings.Repeat(ch, n)) }

// heading writes text followed by an underline of the same width.
func (w *lineWriter) heading(text, ch string) {
	w.line(text)
	w.rule(ch, utf8.RuneCountInString(text))
}

func (g *Generator) header(w *lineWriter, rep *Report, title string, width int, withCount bool) {
	w.line(title)
	w.rule("=", width)
	w.add("Generated: %s", rep.GeneratedAt.Format(timestampLayout))
	if withCount {
		w.add("Total records: %d", len(rep.Records))
	}
	w.blank()
}

func (g *Generator) summary(w *lineWriter, rep *Report) {
	g.header(w, rep, "BROWSER SUMMARY REPORT", 50, true)

	if isSet(rep.Filters.Developer) {
		w.add("Developer filter: %s", rep.Filters.Developer)
	}
	if isSet(rep.Filters.Engine) {
		w.add("Engine filter: %s", rep.Filters.Engine)
	}
	if rep.Filters.active() {
		w.blank()
	}

	w.line("KEY FIGURES:")
	w.rule("-", 25)
	w.add("Distinct developers: %d", len(browser.Distinct(rep.Records, browser.FieldDeveloper)))
	w.add("Distinct engines: %d", len(browser.Distinct(rep.Records, browser.FieldEngine)))
	if lo, hi, err := stats.YearRange(rep.Records); err == nil {
		w.add("Year range: %d-%d", lo, hi)
	}
	w.blank()

	w.line("BROWSERS:")
	w.rule("-", 20)
	for i, r := range rep.Records {
		w.add("%2d. %s (%s, %s)", i+1, r.Name, r.Developer, r.ReleaseYear)
	}
}

func (g *Generator) detailed(w *lineWriter, rep *Report) {
	g.header(w, rep, "DETAILED BROWSER REPORT", 60, true)
	for i, r := range rep.Records {
		w.heading(fmt.Sprintf("%d. %s", i+1, strings.ToUpper(r.Name)), "-")
		for _, f := range []browser.Field{browser.FieldID, browser.FieldDeveloper, browser.FieldReleaseYear, browser.FieldEngine, browser.FieldVersion} {
			w.add("   %s: %s", f.Label(), r.Get(f))
		}
		w.blank()
	}
}

func (g *Generator) statistical(w *lineWriter, rep *Report) error {
	g.header(w, rep, "STATISTICAL REPORT", 40, true)

	devs, err := stats.GroupBy(rep.Records, browser.FieldDeveloper, browser.FieldEngine)
	if err != nil {
		return err
	}
	w.line("DEVELOPER STATISTICS:")
	w.rule("-", 35)
	for _, k := range stats.SortedKeys(devs) {
		gs := devs[k]
		w.add("%s: %d browsers", k, gs.Count)
		writeYearLines(w, gs, "   ")
		w.add("   Engines: %s", strings.Join(gs.Distinct[browser.FieldEngine], ", "))
		w.blank()
	}

	engines, err := stats.GroupBy(rep.Records, browser.FieldEngine, browser.FieldDeveloper)
	if err != nil {
		return err
	}
	w.line("ENGINE STATISTICS:")
	w.rule("-", 30)
	for _, k := range stats.SortedKeys(engines) {
		gs := engines[k]
		w.add("%s: %d browsers", k, gs.Count)
		w.add("   Developers: %d", len(gs.Distinct[browser.FieldDeveloper]))
		writeYearLines(w, gs, "   ")
		w.blank()
	}
	return nil
}

func writeYearLines(w *lineWriter, gs *stats.GroupStats, indent string) {
	if !gs.HasYears() {
		return
	}
	w.add("%sMean release year: %.1f", indent, gs.MeanYear)
	w.add("%sRange: %d-%d (%d years)", indent, gs.MinYear, gs.MaxYear, gs.YearSpan)
}

func (g *Generator) grouped(w *lineWriter, rep *Report, field browser.Field) error {
	sub := browser.FieldEngine
	title, label, subLabel, period := "DEVELOPER REPORT", "DEVELOPER", "Engines used", "Active"
	if field == browser.FieldEngine {
		sub = browser.FieldDeveloper
		title, label, subLabel, period = "ENGINE REPORT", "ENGINE", "Developers", "In use"
	}
	g.header(w, rep, title, 40, false)

	groups, err := stats.GroupBy(rep.Records, field, sub)
	if err != nil {
		return err
	}
	for _, k := range stats.SortedKeys(groups) {
		gs := groups[k]
		w.add("%s: %s", label, strings.ToUpper(k))
		w.rule("=", utf8.RuneCountInString(label)+2+utf8.RuneCountInString(k))
		w.add("Browsers: %d", gs.Count)
		if gs.HasYears() {
			w.add("%s: %d-%d", period, gs.MinYear, gs.MaxYear)
		}
		w.add("%s: %s", subLabel, strings.Join(gs.Distinct[sub], ", "))
		w.blank()

		w.line("Members:")
		for _, r := range gs.MembersByYear() {
			if field == browser.FieldEngine {
				w.add("  • %s (%s, %s)", r.Name, r.Developer, r.ReleaseYear)
			} else {
				w.add("  • %s (%s) - %s", r.Name, r.ReleaseYear, r.Engine)
			}
		}
		w.blank()
		w.blank()
	}
	return nil
}

func (g *Generator) metrics(w *lineWriter, rep *Report) error {
	w.rule("=", 80)
	w.line("BROWSER ANALYSIS REPORT")
	w.add("Generated: %s", rep.GeneratedAt.Format(timestampLayout))
	w.rule("=", 80)
	w.blank()

	m, err := stats.Compute(rep.Records, g.Estimator)
	if errors.Is(err, browser.ErrEmptyDataset) {
		w.line("1. KEY FIGURES")
		w.rule("-", 30)
		w.line("Total browsers: 0")
		w.line("Distinct developers: 0")
		w.line("Distinct engines: 0")
		w.blank()
		g.metricsFooter(w)
		return nil
	}
	if err != nil {
		return err
	}

	w.line("1. KEY FIGURES")
	w.rule("-", 30)
	w.add("Total browsers: %d", m.Total)
	w.add("Distinct developers: %d", m.Developers)
	w.add("Distinct engines: %d", m.Engines)
	if m.HasYears {
		w.add("Release years: %d-%d", m.MinYear, m.MaxYear)
	}
	w.blank()

	w.line("2. BY DEVELOPER")
	w.rule("-", 30)
	for _, k := range stats.SortedKeys(m.ByDeveloper) {
		gs := m.ByDeveloper[k]
		w.add("Developer: %s", k)
		w.add("  Browsers: %d", gs.Count)
		w.add("  Names: %s", strings.Join(gs.Names, ", "))
		if gs.HasYears() {
			w.add("  Mean release year: %.1f", gs.MeanYear)
			w.add("  Year span: %d years", gs.YearSpan)
		}
		w.blank()
	}

	w.line("3. BY ENGINE")
	w.rule("-", 30)
	for _, k := range stats.SortedKeys(m.ByEngine) {
		gs := m.ByEngine[k]
		w.add("Engine: %s", k)
		w.add("  Browsers: %d", gs.Count)
		w.add("  Names: %s", strings.Join(gs.Names, ", "))
		w.add("  Developers: %s", strings.Join(gs.Distinct[browser.FieldDeveloper], ", "))
		if gs.HasYears() {
			w.add("  Mean release year: %.1f", gs.MeanYear)
		}
		w.blank()
	}

	if m.HasYears {
		w.line("4. TIMELINE")
		w.rule("-", 30)
		w.add("Mean release year: %.1f", m.MeanYear)
		w.add("Standard deviation: %.1f", m.StdDev)
		w.blank()
		w.line("Releases per decade:")
		for _, d := range m.SortedDecades() {
			w.add("  %ds: %d browsers", d, m.Decades[d])
		}
		w.blank()
		w.add("Oldest browser: %s (%s)", m.Oldest.Name, m.Oldest.ReleaseYear)
		w.add("Newest browser: %s (%s)", m.Newest.Name, m.Newest.ReleaseYear)
		w.blank()
	}

	if v := m.Versions; v != nil {
		w.line("5. VERSIONS")
		w.rule("-", 30)
		w.add("Mean major version: %.1f", v.Mean)
		w.add("Highest major version: %.0f", v.Max)
		w.add("Lowest major version: %.0f", v.Min)
		w.add("Major version range: %.0f", v.Range)
		w.blank()
	}

	w.line("6. ESTIMATED MARKET SHARE")
	w.rule("-", 30)
	for _, sh := range m.Shares.Ranked() {
		w.add("%s: %.1f%%", sh.Record.Name, sh.Percent)
	}
	w.line("(heuristic weighting by developer and release year, not measured usage)")
	w.blank()

	w.line("7. CONCLUSION")
	w.rule("-", 30)
	w.add("Modern browsers (%d+): %.1f%%", g.Estimator.ModernYear, m.ModernPercent)
	w.add("WebKit-based browsers: %.1f%%", m.WebKitPercent)
	w.blank()
	g.metricsFooter(w)
	return nil
}

func (g *Generator) metricsFooter(w *lineWriter) {
	w.rule("=", 80)
	w.line("END OF REPORT")
	w.rule("=", 80)
}
