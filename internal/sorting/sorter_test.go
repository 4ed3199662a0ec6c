package sorting

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"browserdb/internal/browser"
)

func rec(id, name, dev, year, version, engine string) browser.Record {
	return browser.Record{ID: id, Name: name, Developer: dev, ReleaseYear: year, Version: version, Engine: engine}
}

func ids(rs []browser.Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func reversed(rs []browser.Record) []browser.Record {
	out := make([]browser.Record, len(rs))
	for i, r := range rs {
		out[len(rs)-1-i] = r
	}
	return out
}

func TestVersionKeyNumericOrdering(t *testing.T) {
	var res Resolver
	a, err := res.Resolve(rec("1", "a", "d", "2000", "2.0", "e"), browser.FieldVersion)
	require.NoError(t, err)
	b, err := res.Resolve(rec("2", "b", "d", "2000", "10.0", "e"), browser.FieldVersion)
	require.NoError(t, err)
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
}

func TestVersionKeyMissingSegmentsSortFirst(t *testing.T) {
	var res Resolver
	short, _ := res.Resolve(rec("1", "", "", "", "1.2", ""), browser.FieldVersion)
	long, _ := res.Resolve(rec("2", "", "", "", "1.2.0", ""), browser.FieldVersion)
	assert.Equal(t, -1, short.Compare(long))

	beta, _ := res.Resolve(rec("3", "", "", "", "1.beta", ""), browser.FieldVersion)
	zero, _ := res.Resolve(rec("4", "", "", "", "1.0", ""), browser.FieldVersion)
	assert.Equal(t, 0, beta.Compare(zero))
}

func TestLenientFallbacks(t *testing.T) {
	var res Resolver
	bad := rec("x", "n", "d", "someday", "v.1", "e")

	k, err := res.Resolve(bad, browser.FieldID)
	require.NoError(t, err)
	zero, _ := res.Resolve(rec("0", "", "", "", "", ""), browser.FieldID)
	assert.Equal(t, 0, k.Compare(zero))

	yk, err := res.Resolve(bad, browser.FieldReleaseYear)
	require.NoError(t, err)
	early, _ := res.Resolve(rec("1", "", "", "0001-01-02", "", ""), browser.FieldReleaseYear)
	assert.Equal(t, -1, yk.Compare(early))
}

func TestStrictResolverReportsMalformed(t *testing.T) {
	res := Resolver{Strict: true}
	bad := rec("x", "n", "d", "someday", "1.b", "e")
	for _, f := range []browser.Field{browser.FieldID, browser.FieldReleaseYear, browser.FieldVersion} {
		_, err := res.Resolve(bad, f)
		var mfe *browser.MalformedFieldError
		require.True(t, errors.As(err, &mfe), f.String())
		assert.Equal(t, f, mfe.Field)
	}
	_, err := res.Resolve(bad, browser.FieldName)
	assert.NoError(t, err)
}

func TestReleaseYearAcceptsISODates(t *testing.T) {
	var res Resolver
	a, _ := res.Resolve(rec("1", "", "", "2008", "", ""), browser.FieldReleaseYear)
	b, _ := res.Resolve(rec("2", "", "", "2008-09-02", "", ""), browser.FieldReleaseYear)
	c, _ := res.Resolve(rec("3", "", "", "2009", "", ""), browser.FieldReleaseYear)
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, -1, b.Compare(c))
}

func sample() []browser.Record {
	return []browser.Record{
		rec("3", "opera", "Opera Software", "1995", "105.0.4970.21", "Blink"),
		rec("10", "Safari", "Apple", "2003", "17.1", "WebKit"),
		rec("2", "Chrome", "Google", "2008", "119.0.6045.199", "Blink"),
		rec("1", "firefox", "Mozilla Foundation", "2004", "120.0", "Gecko"),
		rec("7", "Edge", "Microsoft", "2015", "119.0.2151.97", "Blink"),
	}
}

func TestSortAscendingIsReverseOfDescending(t *testing.T) {
	s := Sorter{}
	for _, f := range browser.Fields {
		if f == browser.FieldEngine {
			continue // three Blink rows
		}
		asc, err := s.Sort(sample(), SortSpec{Primary: Level{Field: f}})
		require.NoError(t, err)
		desc, err := s.Sort(sample(), SortSpec{Primary: Level{Field: f, Direction: Descending}})
		require.NoError(t, err)
		if diff := cmp.Diff(asc, reversed(desc)); diff != "" {
			t.Fatalf("%s: asc != reverse(desc) (-asc +rev):\n%s", f, diff)
		}
	}
}

func TestSortByFieldOrders(t *testing.T) {
	s := Sorter{}
	cases := []struct {
		field browser.Field
		want  []string
	}{
		{browser.FieldID, []string{"1", "2", "3", "7", "10"}},
		{browser.FieldName, []string{"2", "7", "1", "3", "10"}},
		{browser.FieldReleaseYear, []string{"3", "10", "1", "2", "7"}},
		{browser.FieldVersion, []string{"10", "3", "7", "2", "1"}},
	}
	for _, tc := range cases {
		got, err := s.Sort(sample(), SortSpec{Primary: Level{Field: tc.field}})
		require.NoError(t, err)
		assert.Equal(t, tc.want, ids(got), tc.field.String())
	}
}

func TestSortIsStable(t *testing.T) {
	s := Sorter{}
	got, err := s.Sort(sample(), SortSpec{Primary: Level{Field: browser.FieldEngine}})
	require.NoError(t, err)
	// Blink rows keep their input order 3, 2, 7.
	assert.Equal(t, []string{"3", "2", "7", "1", "10"}, ids(got))

	got, err = s.Sort(sample(), SortSpec{Primary: Level{Field: browser.FieldEngine, Direction: Descending}})
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "1", "3", "2", "7"}, ids(got))
}

func TestSortSecondaryHonorsOwnDirection(t *testing.T) {
	s := Sorter{}
	spec := SortSpec{
		Primary:   Level{Field: browser.FieldEngine},
		Secondary: &Level{Field: browser.FieldReleaseYear, Direction: Descending},
	}
	got, err := s.Sort(sample(), spec)
	require.NoError(t, err)
	assert.Equal(t, []string{"7", "2", "3", "1", "10"}, ids(got))
	assert.Equal(t, "engine asc, then release_date desc", spec.String())

	spec.Secondary.Direction = Ascending
	got, err = s.Sort(sample(), spec)
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "2", "7", "1", "10"}, ids(got))
}

func TestSortDoesNotMutateInput(t *testing.T) {
	in := sample()
	before := browser.Clone(in)
	_, err := Sorter{}.Sort(in, SortSpec{Primary: Level{Field: browser.FieldID, Direction: Descending}})
	require.NoError(t, err)
	if diff := cmp.Diff(before, in); diff != "" {
		t.Fatalf("input mutated:\n%s", diff)
	}
}

func TestSortErrors(t *testing.T) {
	_, err := Sorter{}.Sort(sample(), SortSpec{Primary: Level{Field: browser.Field(99)}})
	assert.ErrorIs(t, err, browser.ErrUnknownField)

	in := append(sample(), rec("bad", "x", "y", "2001", "1", "z"))
	out, err := Sorter{Resolver: Resolver{Strict: true}}.Sort(in, SortSpec{Primary: Level{Field: browser.FieldID}})
	assert.ErrorIs(t, err, browser.ErrMalformedField)
	assert.Nil(t, out)

	out, err = Sorter{}.Sort(in, SortSpec{Primary: Level{Field: browser.FieldID}})
	require.NoError(t, err)
	assert.Equal(t, "bad", out[0].ID)
}

func TestColumnToggle(t *testing.T) {
	tg := NewColumnToggle(Sorter{})

	_, ok := tg.Direction(browser.FieldID)
	assert.False(t, ok)

	got, dir, err := tg.SortByColumn(sample(), browser.FieldID)
	require.NoError(t, err)
	assert.Equal(t, Ascending, dir)
	assert.Equal(t, []string{"1", "2", "3", "7", "10"}, ids(got))

	got, dir, err = tg.SortByColumn(got, browser.FieldID)
	require.NoError(t, err)
	assert.Equal(t, Descending, dir)
	assert.Equal(t, []string{"10", "7", "3", "2", "1"}, ids(got))

	// other columns keep independent state
	_, dir, err = tg.SortByColumn(got, browser.FieldName)
	require.NoError(t, err)
	assert.Equal(t, Ascending, dir)

	_, dir, err = tg.SortByColumn(got, browser.FieldID)
	require.NoError(t, err)
	assert.Equal(t, Ascending, dir)

	tg.Reset()
	_, ok = tg.Direction(browser.FieldName)
	assert.False(t, ok)
}

func TestColumnToggleKeepsStateOnError(t *testing.T) {
	tg := NewColumnToggle(Sorter{Resolver: Resolver{Strict: true}})
	in := []browser.Record{rec("a", "n", "d", "2000", "1", "e")}
	_, _, err := tg.SortByColumn(in, browser.FieldID)
	require.Error(t, err)
	_, ok := tg.Direction(browser.FieldID)
	assert.False(t, ok)
}

func TestColumnToggleZeroValue(t *testing.T) {
	var tg ColumnToggle
	_, ok := tg.Direction(browser.FieldName)
	assert.False(t, ok)

	_, dir, err := tg.SortByColumn(sample(), browser.FieldName)
	require.NoError(t, err)
	assert.Equal(t, Ascending, dir)
	_, dir, err = tg.SortByColumn(sample(), browser.FieldName)
	require.NoError(t, err)
	assert.Equal(t, Descending, dir)
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("DESC")
	require.NoError(t, err)
	assert.Equal(t, Descending, d)
	d, err = ParseDirection("")
	require.NoError(t, err)
	assert.Equal(t, Ascending, d)
	_, err = ParseDirection("sideways")
	assert.Error(t, err)
}

func TestShuffleIsDeterministicPermutation(t *testing.T) {
	in := browser.SampleRecords()
	a := Shuffle(in, 42, 0)
	b := Shuffle(in, 42, 0)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("same seed, different order:\n%s", diff)
	}
	assert.ElementsMatch(t, ids(in), ids(a))
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(in))

	back, err := Sorter{}.Sort(a, SortSpec{Primary: Level{Field: browser.FieldID}})
	require.NoError(t, err)
	assert.Equal(t, in, back)

	assert.Len(t, Shuffle(in, DefaultShuffleSeed, 2), 2)
	assert.Len(t, Shuffle(in, DefaultShuffleSeed, 9), 5)
	assert.Empty(t, Shuffle(nil, 1, 0))
}
