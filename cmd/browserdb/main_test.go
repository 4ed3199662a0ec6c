package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"browserdb/internal/browser"
	"browserdb/internal/csvio"
	"browserdb/internal/sorting"
)

type harness struct {
	t    *testing.T
	dir  string
	data string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("BROWSERDB_OUTPUT_DIR", filepath.Join(dir, "reports"))
	return &harness{t: t, dir: dir, data: filepath.Join(dir, "browsers.csv")}
}

func (h *harness) runWithInput(stdin string, args ...string) (string, error) {
	h.t.Helper()
	a := &app{
		logger: zap.NewNop(),
		now:    func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) },
	}
	root := newRootCmd(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", filepath.Join(h.dir, "browserdb.yaml"), "--data", h.data}, args...))
	err := root.Execute()
	return out.String(), err
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	return h.runWithInput("", args...)
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, "browserdb %s", strings.Join(args, " "))
	return out
}

func (h *harness) records() []browser.Record {
	h.t.Helper()
	rs, err := csvio.Load(h.data)
	require.NoError(h.t, err)
	return rs
}

func recordIDs(rs []browser.Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func TestCreateAndPrint(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("create", "--sample")
	assert.Contains(t, out, "with 5 records")

	_, err := h.run("create")
	assert.ErrorContains(t, err, "already exists")
	h.mustRun("create", "--force")
	assert.Empty(t, h.records())

	h.mustRun("create", "--sample", "--force")
	out = h.mustRun("print")
	assert.Contains(t, out, "Mozilla Firefox")
	assert.Contains(t, out, "Total: 5 | Developers: 5 | Engines: 3")

	out = h.mustRun("print", "--engine", "Blink", "--search", "o")
	assert.Contains(t, out, "Google Chrome")
	assert.NotContains(t, out, "Safari")
	assert.Contains(t, out, "Total: 3")
}

func TestPrintWithoutDataFile(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("print")
	assert.ErrorContains(t, err, "does not exist")
}

func TestAddEditDelete(t *testing.T) {
	h := newHarness(t)
	h.mustRun("create", "--sample")

	out := h.mustRun("add", "--name", "Vivaldi", "--developer", "Vivaldi Technologies", "--year", "2016", "--version", "6.4", "--engine", "Blink")
	assert.Contains(t, out, "added Vivaldi (id 6)")

	_, err := h.run("add", "--name", "Half")
	assert.ErrorIs(t, err, browser.ErrEmptyField)
	_, err = h.run("add", "--id", "1", "--name", "X", "--developer", "X", "--year", "2000", "--version", "1", "--engine", "X")
	assert.ErrorIs(t, err, browser.ErrDuplicateID)

	h.mustRun("edit", "4", "--version", "18.0")
	rs := h.records()
	require.Len(t, rs, 6)
	assert.Equal(t, "18.0", rs[3].Version)
	assert.Equal(t, "Safari", rs[3].Name)

	_, err = h.run("edit", "99", "--name", "Ghost")
	assert.ErrorIs(t, err, browser.ErrNotFound)
	_, err = h.run("edit", "4", "--id", "1")
	assert.ErrorIs(t, err, browser.ErrDuplicateID)

	out = h.mustRun("delete", "--developer", "Microsoft")
	assert.Contains(t, out, "deleted 1 records")
	out = h.mustRun("delete", "--name", "FIRE")
	assert.Contains(t, out, "deleted 1 records")
	h.mustRun("delete", "2", "3")
	assert.Equal(t, []string{"4", "5", "6"}, recordIDs(h.records()))

	_, err = h.run("delete")
	assert.ErrorContains(t, err, "nothing to delete")
	h.mustRun("delete", "--all")
	assert.Empty(t, h.records())
}

func TestSortCommand(t *testing.T) {
	h := newHarness(t)
	h.mustRun("create", "--sample")

	out := h.mustRun("sort", "--by", "year", "--dir", "desc")
	assert.Contains(t, out, "Sorted by release_date desc")
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, recordIDs(h.records()), "no --write keeps the file")

	h.mustRun("sort", "--by", "engine", "--then", "release_date", "--then-dir", "desc", "--write")
	assert.Equal(t, []string{"3", "2", "5", "1", "4"}, recordIDs(h.records()))

	_, err := h.run("sort", "--by", "colour")
	assert.ErrorIs(t, err, browser.ErrUnknownField)
	_, err = h.run("sort", "--dir", "sideways")
	assert.ErrorContains(t, err, "unknown sort direction")
}

func TestReportCommands(t *testing.T) {
	h := newHarness(t)
	h.mustRun("create", "--sample")

	out := h.mustRun("report")
	assert.Contains(t, out, "BROWSER SUMMARY REPORT")
	assert.Contains(t, out, "Generated: 19.10.2026 12:00:00")
	assert.Contains(t, out, "Total records: 5")

	out = h.mustRun("report", "-t", "by_engine", "--engine", "Blink")
	assert.Contains(t, out, "ENGINE: BLINK")
	assert.NotContains(t, out, "ENGINE: GECKO")

	htmlPath := filepath.Join(h.dir, "out", "r.html")
	h.mustRun("report", "--type", "detailed", "--format", "html", "--out", htmlPath)
	b, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), "<pre>DETAILED BROWSER REPORT")

	out = h.mustRun("report", "--type", "statistical", "--format", "csv", "--save")
	saved := filepath.Join(h.dir, "reports", "report_statistical_20261019_120000.csv")
	assert.Contains(t, out, saved)
	b, err = os.ReadFile(saved)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSuffix(string(b), "\n"), "\n"), 6)

	_, err = h.run("report", "--type", "pie")
	assert.Error(t, err)
	_, err = h.run("report", "--format", "pdf")
	assert.Error(t, err)

	out = h.mustRun("metrics")
	assert.Contains(t, out, "BROWSER ANALYSIS REPORT")
	assert.Contains(t, out, "END OF REPORT")
}

func TestShareCommand(t *testing.T) {
	h := newHarness(t)
	h.mustRun("create", "--sample")
	out := h.mustRun("share")
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], " 1. Mozilla Firefox"), lines[0])

	h.mustRun("create", "--force")
	out = h.mustRun("share")
	assert.Equal(t, "no records\n", out)
}

func TestSQLiteExportImport(t *testing.T) {
	h := newHarness(t)
	h.mustRun("create", "--sample")
	db := filepath.Join(h.dir, "browsers.db")

	out := h.mustRun("export-sqlite", db)
	assert.Contains(t, out, "exported 5 records")
	assert.Contains(t, out, "  Blink: 3\n  Gecko: 1\n  WebKit: 1\n")

	h.mustRun("delete", "--all")
	out = h.mustRun("import-sqlite", db)
	assert.Contains(t, out, "imported 5 records")
	if diff := cmp.Diff(browser.SampleRecords(), h.records()); diff != "" {
		t.Fatalf("import mismatch (-want +got):\n%s", diff)
	}

	_, err := h.run("import-sqlite", filepath.Join(h.dir, "missing.db"))
	assert.Error(t, err)
}

func TestInvalidConfig(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "browserdb.yaml"), []byte("logging:\n  level: loud\n"), 0o644))
	_, err := h.run("print")
	assert.ErrorContains(t, err, "invalid config")
}

func TestShellSession(t *testing.T) {
	h := newHarness(t)
	h.mustRun("create", "--sample")

	script := strings.Join([]string{
		"help",
		"quick date",
		"search fox",
		"add Lynx|University of Kansas|1992|2.9.0|none",
		"add broken",
		"sortcol id",
		"sortcol id",
		"bogus",
		"report summary",
		"save",
		"quit",
		"list",
	}, "\n")
	out, err := h.runWithInput(script, "shell")
	require.NoError(t, err)

	assert.Contains(t, out, "5 records from")
	assert.Contains(t, out, "sorted by date")
	assert.Contains(t, out, "Mozilla Firefox")
	assert.Contains(t, out, "added Lynx (id 6)")
	assert.Contains(t, out, "error: usage: add")
	assert.Contains(t, out, "sorted by browser_id asc")
	assert.Contains(t, out, "sorted by browser_id desc")
	assert.Contains(t, out, `error: unknown command "bogus"`)
	assert.Contains(t, out, "Total records: 6")
	assert.Contains(t, out, "saved 6 records")
	assert.NotContains(t, out, "unsaved changes")

	assert.Equal(t, []string{"6", "5", "4", "3", "2", "1"}, recordIDs(h.records()))
}

func TestShellWarnsAboutUnsavedChanges(t *testing.T) {
	h := newHarness(t)
	h.mustRun("create", "--sample")
	out, err := h.runWithInput("delete 1\n", "shell")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted 1 records")
	assert.Contains(t, out, "unsaved changes discarded")
	assert.Len(t, h.records(), 5)
}

func TestShellClearAndReload(t *testing.T) {
	h := newHarness(t)
	h.mustRun("create", "--sample")
	out, err := h.runWithInput("clear\nlist\nreload\nlist\n", "shell")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted 5 records")
	assert.Contains(t, out, "Total: 0")
	assert.Contains(t, out, "reloaded 5 records")
	assert.Contains(t, out, "Total: 5")
	assert.NotContains(t, out, "unsaved changes")
	assert.Len(t, h.records(), 5)
}

func TestPrintPlain(t *testing.T) {
	h := newHarness(t)
	h.mustRun("create", "--sample")
	out := h.mustRun("print", "--plain")
	assert.NotContains(t, out, "\x1b[")
	assert.Contains(t, out, "| Mozilla Firefox")
	assert.Contains(t, out, "Total: 5 |")
}

func TestParseSortArgs(t *testing.T) {
	spec, err := parseSortArgs([]string{"engine", "then", "year", "desc"})
	require.NoError(t, err)
	assert.Equal(t, sorting.Level{Field: browser.FieldEngine}, spec.Primary)
	require.NotNil(t, spec.Secondary)
	assert.Equal(t, sorting.Level{Field: browser.FieldReleaseYear, Direction: sorting.Descending}, *spec.Secondary)

	spec, err = parseSortArgs([]string{"version", "desc"})
	require.NoError(t, err)
	assert.Nil(t, spec.Secondary)
	assert.Equal(t, sorting.Descending, spec.Primary.Direction)

	for _, bad := range [][]string{nil, {"name", "desc", "then"}, {"name", "up"}, {"name", "asc", "then", "id", "asc", "extra"}, {"name", "asc", "id"}} {
		_, err := parseSortArgs(bad)
		assert.Error(t, err, "%v", bad)
	}
}

func TestCompareCommand(t *testing.T) {
	h := newHarness(t)
	h.mustRun("create", "--sample")

	cand := browser.SampleRecords()[:4]
	cand[3].Version = "18.0"
	candPath := filepath.Join(h.dir, "candidate.csv")
	require.NoError(t, csvio.Save(candPath, cand))

	jsonPath := filepath.Join(h.dir, "cmp", "result.json")
	out := h.mustRun("compare", candPath, "--json", jsonPath)
	assert.Contains(t, out, "Status: partial_key_match")
	assert.Contains(t, out, "Removed ids: 5")
	assert.Contains(t, out, `id 4 latest_version: "17.1" -> "18.0"`)

	b, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"matched_rows": 4`)

	out = h.mustRun("compare", h.data)
	assert.Contains(t, out, "Status: ok")
	assert.Contains(t, out, "Similarity: 1.000000")

	h.mustRun("compare", h.data, "--fail-on-diff")
	_, err = h.run("compare", candPath, "--fail-on-diff")
	assert.ErrorContains(t, err, "datasets differ: 1 changed, 0 added, 1 removed")
}

func TestShuffleCommand(t *testing.T) {
	h := newHarness(t)
	h.mustRun("create", "--sample")

	out := h.mustRun("shuffle", "--seed", "7", "--sample-rows", "3")
	assert.Contains(t, out, "Shuffled (seed 7)")
	assert.Contains(t, out, "Total: 3")
	assert.Len(t, h.records(), 5)

	h.mustRun("shuffle", "--seed", "7", "--write")
	want := recordIDs(sorting.Shuffle(browser.SampleRecords(), 7, 0))
	assert.Equal(t, want, recordIDs(h.records()))
}
