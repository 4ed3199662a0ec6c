package browser

import (
	"sort"
	"strings"
)

// AllValue disables a developer or engine filter.
const AllValue = "all"

// Dataset is the insertion-ordered working set of one session.
type Dataset struct {
	records []Record
}

// NewDataset wraps records without validating them; uniqueness is only
// enforced on later inserts.
func NewDataset(records []Record) *Dataset {
	return &Dataset{records: Clone(records)}
}

func (d *Dataset) Len() int { return len(d.records) }

// Records returns a copy of the current sequence.
func (d *Dataset) Records() []Record { return Clone(d.records) }

// Replace swaps the whole sequence, e.g. after a sort.
func (d *Dataset) Replace(records []Record) { d.records = Clone(records) }

func (d *Dataset) indexOf(id string) int {
	for i, r := range d.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// Get returns the record with the given id.
func (d *Dataset) Get(id string) (Record, error) {
	i := d.indexOf(strings.TrimSpace(id))
	if i < 0 {
		return Record{}, ErrNotFound
	}
	return d.records[i], nil
}

// Add appends r after checking that every field is set and the id is free.
func (d *Dataset) Add(r Record) error {
	r = r.Trimmed()
	if err := r.Validate(); err != nil {
		return err
	}
	if d.indexOf(r.ID) >= 0 {
		return &DuplicateIDError{ID: r.ID}
	}
	d.records = append(d.records, r)
	return nil
}

// Update replaces the record stored under id. Changing the id is allowed as
// long as the new one is free.
func (d *Dataset) Update(id string, r Record) error {
	i := d.indexOf(strings.TrimSpace(id))
	if i < 0 {
		return ErrNotFound
	}
	r = r.Trimmed()
	if err := r.Validate(); err != nil {
		return err
	}
	if j := d.indexOf(r.ID); j >= 0 && j != i {
		return &DuplicateIDError{ID: r.ID}
	}
	d.records[i] = r
	return nil
}

// Delete removes every record whose id is listed and returns how many went.
func (d *Dataset) Delete(ids ...string) int {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[strings.TrimSpace(id)] = struct{}{}
	}
	kept := d.records[:0:0]
	for _, r := range d.records {
		if _, ok := drop[r.ID]; ok {
			continue
		}
		kept = append(kept, r)
	}
	n := len(d.records) - len(kept)
	d.records = kept
	return n
}

func (d *Dataset) Clear() { d.records = nil }

// NextID returns one past the largest numeric id, skipping ids that do not
// parse.
func (d *Dataset) NextID() int {
	maxID := 0
	for _, r := range d.records {
		if n, err := r.IntID(); err == nil && n > maxID {
			maxID = n
		}
	}
	return maxID + 1
}

// Search keeps records whose name contains query, ignoring case.
func Search(records []Record, query string) []Record {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if q == "" || strings.Contains(strings.ToLower(r.Name), q) {
			out = append(out, r)
		}
	}
	return out
}

// Filter narrows records by exact developer and engine. Empty or "all"
// leaves that dimension unfiltered.
func Filter(records []Record, developer, engine string) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if active(developer) && r.Developer != developer {
			continue
		}
		if active(engine) && r.Engine != engine {
			continue
		}
		out = append(out, r)
	}
	return out
}

func active(v string) bool {
	return v != "" && !strings.EqualFold(v, AllValue)
}

// Distinct returns the sorted distinct values of f.
func Distinct(records []Record, f Field) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		seen[r.Get(f)] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// QuickStats is the one-line overview shown above a printed table.
type QuickStats struct {
	Total         int
	Developers    int
	Engines       int
	TopDeveloper  string
	TopDeveloperN int
	TopEngine     string
	TopEngineN    int
}

// Summarize counts records per developer and engine and picks the most
// frequent of each. Ties go to the alphabetically first value.
func Summarize(records []Record) QuickStats {
	devs := map[string]int{}
	engines := map[string]int{}
	for _, r := range records {
		devs[r.Developer]++
		engines[r.Engine]++
	}
	qs := QuickStats{Total: len(records), Developers: len(devs), Engines: len(engines)}
	qs.TopDeveloper, qs.TopDeveloperN = top(devs)
	qs.TopEngine, qs.TopEngineN = top(engines)
	return qs
}

func top(counts map[string]int) (string, int) {
	best, bestN := "", 0
	for k, n := range counts {
		if n > bestN || (n == bestN && k < best) {
			best, bestN = k, n
		}
	}
	return best, bestN
}

// SampleRecords is the starter dataset offered when creating a new file.
func SampleRecords() []Record {
	return []Record{
		{ID: "1", Name: "Mozilla Firefox", Developer: "Mozilla Foundation", ReleaseYear: "2004", Version: "120.0", Engine: "Gecko"},
		{ID: "2", Name: "Google Chrome", Developer: "Google LLC", ReleaseYear: "2008", Version: "119.0.6045.199", Engine: "Blink"},
		{ID: "3", Name: "Microsoft Edge", Developer: "Microsoft", ReleaseYear: "2015", Version: "119.0.2151.97", Engine: "Blink"},
		{ID: "4", Name: "Safari", Developer: "Apple", ReleaseYear: "2003", Version: "17.1", Engine: "WebKit"},
		{ID: "5", Name: "Opera", Developer: "Opera Software", ReleaseYear: "1995", Version: "105.0.4970.21", Engine: "Blink"},
	}
}
