// Package compare diffs two browser datasets aligned by record id.
package compare

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"browserdb/internal/browser"
)

// Change is one field that differs between aligned records.
type Change struct {
	ID         string  `json:"id"`
	Field      string  `json:"field"`
	Reference  string  `json:"reference"`
	Candidate  string  `json:"candidate"`
	Similarity float64 `json:"similarity"`
}

// FieldScore is the mean similarity of one column over aligned records.
type FieldScore struct {
	Field      string  `json:"field"`
	Similarity float64 `json:"similarity"`
	Exact      int     `json:"exact_matches"`
}

// Result describes how a candidate dataset differs from a reference.
type Result struct {
	Status string `json:"status"`

	ReferenceRows     int     `json:"reference_rows"`
	CandidateRows     int     `json:"candidate_rows"`
	MatchedRows       int     `json:"matched_rows"`
	CoverageReference float64 `json:"coverage_reference"`
	CoverageCandidate float64 `json:"coverage_candidate"`

	DuplicateReferenceIDs     int `json:"duplicate_reference_ids"`
	DuplicateCandidateMatches int `json:"duplicate_candidate_matches"`

	Added   []string `json:"added"`
	Removed []string `json:"removed"`
	Changed []Change `json:"changed"`

	Fields                   []FieldScore `json:"fields"`
	Similarity               float64      `json:"similarity"`
	OverallScoreWithCoverage float64      `json:"overall_score_with_coverage"`
}

// Identical reports whether both sides hold the same records by id.
func (r *Result) Identical() bool {
	return r.Status == "ok" && len(r.Changed) == 0
}

type pair struct{ ref, cand int }

// Datasets aligns cand against ref by id. Ids compare after trimming and
// numeric canonicalization, so "007" matches "7". The first occurrence of a
// duplicated id wins.
func Datasets(ref, cand []browser.Record) *Result {
	res := &Result{
		ReferenceRows: len(ref),
		CandidateRows: len(cand),
		Added:         []string{},
		Removed:       []string{},
		Changed:       []Change{},
	}

	refIndex := make(map[string]int, len(ref))
	for i, r := range ref {
		k := canonicalID(r.ID)
		if k == "" {
			continue
		}
		if _, exists := refIndex[k]; exists {
			res.DuplicateReferenceIDs++
			continue
		}
		refIndex[k] = i
	}

	pairs := make([]pair, 0, len(cand))
	seenRef := make(map[int]struct{}, len(cand))
	for ci, c := range cand {
		ri, ok := refIndex[canonicalID(c.ID)]
		if !ok {
			res.Added = append(res.Added, c.ID)
			continue
		}
		if _, exists := seenRef[ri]; exists {
			res.DuplicateCandidateMatches++
			continue
		}
		seenRef[ri] = struct{}{}
		pairs = append(pairs, pair{ri, ci})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].ref < pairs[j].ref })
	for i, r := range ref {
		first, ok := refIndex[canonicalID(r.ID)]
		if !ok || first != i {
			continue
		}
		if _, matched := seenRef[i]; !matched {
			res.Removed = append(res.Removed, r.ID)
		}
	}

	res.MatchedRows = len(pairs)
	res.CoverageReference = safeDiv(float64(len(pairs)), float64(len(ref)))
	res.CoverageCandidate = safeDiv(float64(len(pairs)), float64(len(cand)))

	total := 0.0
	for _, f := range browser.Fields {
		fs := FieldScore{Field: f.Column()}
		sum := 0.0
		for _, p := range pairs {
			rv, cv := ref[p.ref].Get(f), cand[p.cand].Get(f)
			s := valueSimilarity(rv, cv)
			sum += s
			if normalizeText(rv) == normalizeText(cv) {
				fs.Exact++
				continue
			}
			if f != browser.FieldID {
				res.Changed = append(res.Changed, Change{ID: ref[p.ref].ID, Field: f.Column(), Reference: rv, Candidate: cv, Similarity: round6(s)})
			}
		}
		fs.Similarity = round6(safeDiv(sum, float64(len(pairs))))
		total += fs.Similarity
		res.Fields = append(res.Fields, fs)
	}
	res.Similarity = round6(safeDiv(total, float64(len(browser.Fields))))
	res.OverallScoreWithCoverage = round6(res.Similarity * res.CoverageReference)

	complete := res.DuplicateReferenceIDs == 0 && res.DuplicateCandidateMatches == 0 &&
		len(res.Added) == 0 && len(res.Removed) == 0
	res.Status = "ok"
	if !complete {
		res.Status = "partial_key_match"
	}
	return res
}

func canonicalID(v string) string {
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		return strconv.Itoa(n)
	}
	return v
}

func normalizeText(v string) string { return strings.TrimSpace(v) }

func isEmpty(v string) bool { return strings.TrimSpace(v) == "" }

// valueSimilarity scores two cell values in [0,1]: equal text is 1, numbers
// by relative distance, anything else by normalized edit distance.
func valueSimilarity(a, b string) float64 {
	if isEmpty(a) && isEmpty(b) {
		return 1
	}
	if isEmpty(a) || isEmpty(b) {
		return 0
	}
	an, bn := normalizeText(a), normalizeText(b)
	if an == bn {
		return 1
	}
	if af, err := strconv.ParseFloat(an, 64); err == nil {
		if bf, err := strconv.ParseFloat(bn, 64); err == nil {
			if af == bf {
				return 1
			}
			denom := math.Max(math.Max(math.Abs(af), math.Abs(bf)), 1)
			return math.Max(0, 1-(math.Abs(af-bf)/denom))
		}
	}
	return normalizedLevenshteinSimilarity(an, bn)
}

func normalizedLevenshteinSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	dist := levenshteinDistance(a, b)
	denom := max(len([]rune(a)), len([]rune(b)))
	if denom == 0 {
		return 1
	}
	return math.Max(0, 1-(float64(dist)/float64(denom)))
}

func levenshteinDistance(a, b string) int {
	ar, br := []rune(a), []rune(b)
	if len(ar) < len(br) {
		ar, br = br, ar
	}
	if len(br) == 0 {
		return len(ar)
	}
	prev := make([]int, len(br)+1)
	for j := range prev {
		prev[j] = j
	}
	for i, ca := range ar {
		curr := make([]int, len(br)+1)
		curr[0] = i + 1
		for j, cb := range br {
			sub := prev[j]
			if ca != cb {
				sub++
			}
			curr[j+1] = min(curr[j]+1, prev[j+1]+1, sub)
		}
		prev = curr
	}
	return prev[len(prev)-1]
}

func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
