package table

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"browserdb/internal/browser"
)

func TestRenderAlignsColumns(t *testing.T) {
	out := FromRecords("Browsers", browser.SampleRecords()).Render(PlainStyles())
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 1+1+1+5)

	assert.Equal(t, "Browsers", lines[0])
	assert.Contains(t, lines[1], "Release year")
	assert.True(t, strings.HasPrefix(lines[2], "---"))
	assert.Contains(t, lines[3], "Mozilla Firefox")
	assert.Contains(t, lines[7], "105.0.4970.21")

	width := lipgloss.Width(lines[1])
	for i, l := range lines[1:] {
		assert.Equal(t, width, lipgloss.Width(l), "line %d", i+1)
	}
}

func TestRenderEmptyKeepsHeader(t *testing.T) {
	out := FromRecords("", nil).Render(PlainStyles())
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "ID")
	assert.Contains(t, lines[0], "Engine")
}

func TestStatsLine(t *testing.T) {
	got := StatsLine(browser.Summarize(browser.SampleRecords()))
	assert.Equal(t, "Total: 5 | Developers: 5 | Engines: 3 | Top developer: Apple (1) | Top engine: Blink (3)", got)
	assert.Equal(t, "Total: 0", StatsLine(browser.Summarize(nil)))
}
