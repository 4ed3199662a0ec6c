// Package table prints browser records as an aligned terminal table.
package table

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"browserdb/internal/browser"
)

// Styles controls how a table is drawn.
type Styles struct {
	Title  lipgloss.Style
	Header lipgloss.Style
	Cell   lipgloss.Style
	Muted  lipgloss.Style
}

// PlainStyles draws without color or emphasis.
func PlainStyles() Styles {
	return Styles{
		Title:  lipgloss.NewStyle(),
		Header: lipgloss.NewStyle(),
		Cell:   lipgloss.NewStyle(),
		Muted:  lipgloss.NewStyle(),
	}
}

func DefaultStyles() Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		Header: lipgloss.NewStyle().Bold(true),
		Cell:   lipgloss.NewStyle(),
		Muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// Table is a titled grid of string cells.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// FromRecords builds a table with one row per record in column order.
func FromRecords(title string, records []browser.Record) *Table {
	t := &Table{Title: title, Rows: make([][]string, 0, len(records))}
	for _, f := range browser.Fields {
		t.Headers = append(t.Headers, f.Label())
	}
	for _, r := range records {
		t.Rows = append(t.Rows, r.Values())
	}
	return t
}

// Render draws the header, a divider and every row. An empty table still
// shows its header so the columns are visible.
func (t *Table) Render(styles Styles) string {
	var sb strings.Builder
	if t.Title != "" {
		sb.WriteString(styles.Title.Render(t.Title))
		sb.WriteString("\n")
	}

	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}
	// room for one cell of padding each side
	for i := range widths {
		widths[i] += 2
	}

	header := styles.Header.Padding(0, 1)
	cell := styles.Cell.Padding(0, 1)
	sep := styles.Muted.Render("|")

	writeRow := func(vals []string, st lipgloss.Style) {
		for i := range widths {
			v := ""
			if i < len(vals) {
				v = vals[i]
			}
			sb.WriteString(st.Width(widths[i]).Render(v))
			if i < len(widths)-1 {
				sb.WriteString(sep)
			}
		}
		sb.WriteString("\n")
	}

	writeRow(t.Headers, header)
	total := len(widths) - 1
	for _, w := range widths {
		total += w
	}
	if total > 0 {
		sb.WriteString(styles.Muted.Render(strings.Repeat("-", total)))
		sb.WriteString("\n")
	}
	for _, row := range t.Rows {
		writeRow(row, cell)
	}
	return sb.String()
}

// StatsLine is the one-line overview printed under a record table.
func StatsLine(qs browser.QuickStats) string {
	if qs.Total == 0 {
		return "Total: 0"
	}
	return fmt.Sprintf("Total: %d | Developers: %d | Engines: %d | Top developer: %s (%d) | Top engine: %s (%d)",
		qs.Total, qs.Developers, qs.Engines, qs.TopDeveloper, qs.TopDeveloperN, qs.TopEngine, qs.TopEngineN)
}
