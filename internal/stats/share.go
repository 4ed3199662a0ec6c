package stats

import (
	"errors"
	"sort"

	"browserdb/internal/browser"
)

// DefaultWeights is the popularity table behind the synthetic market share.
// It is an illustrative heuristic, not measured usage data.
var DefaultWeights = map[string]float64{
	"Google":             0.65,
	"Mozilla Foundation": 0.15,
	"Microsoft":          0.10,
	"Apple":              0.07,
	"Opera Software":     0.03,
}

const (
	DefaultUnknownWeight = 0.01
	DefaultModernYear    = 2000
	DefaultModernBonus   = 1.5
)

// Estimator assigns every record a weight from its developer, boosts
// records released in or after ModernYear and normalizes to 100%.
type Estimator struct {
	Weights       map[string]float64
	UnknownWeight float64
	ModernYear    int
	ModernBonus   float64
}

func DefaultEstimator() Estimator {
	return Estimator{
		Weights:       DefaultWeights,
		UnknownWeight: DefaultUnknownWeight,
		ModernYear:    DefaultModernYear,
		ModernBonus:   DefaultModernBonus,
	}
}

// Share is the estimate for one record.
type Share struct {
	Record  browser.Record
	Weight  float64
	Percent float64
}

type Shares []Share

// Weight returns the unnormalized weight of r. A year that does not parse
// earns no modern bonus.
func (e Estimator) Weight(r browser.Record) float64 {
	w, ok := e.Weights[r.Developer]
	if !ok {
		w = e.UnknownWeight
	}
	if y, err := r.Year(); err == nil && y >= e.ModernYear {
		w *= e.ModernBonus
	}
	return w
}

// Estimate returns one share per record, in input order. Records are never
// merged, so two browsers with the same name keep separate shares.
func (e Estimator) Estimate(records []browser.Record) (Shares, error) {
	if len(records) == 0 {
		return nil, browser.ErrEmptyDataset
	}
	out := make(Shares, len(records))
	total := 0.0
	for i, r := range records {
		w := e.Weight(r)
		out[i] = Share{Record: r, Weight: w}
		total += w
	}
	if total <= 0 {
		return nil, errors.New("market share weights sum to zero")
	}
	for i := range out {
		out[i].Percent = out[i].Weight / total * 100
	}
	return out, nil
}

// ByID projects the shares onto record ids.
func (s Shares) ByID() map[string]float64 {
	m := make(map[string]float64, len(s))
	for _, sh := range s {
		m[sh.Record.ID] += sh.Percent
	}
	return m
}

// Total sums every percentage; 100 up to rounding for a non-empty estimate.
func (s Shares) Total() float64 {
	sum := 0.0
	for _, sh := range s {
		sum += sh.Percent
	}
	return sum
}

// Ranked returns a copy ordered by share, largest first.
func (s Shares) Ranked() Shares {
	out := append(Shares(nil), s...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Percent > out[j].Percent })
	return out
}
