package sorting

import (
	"math/rand"

	"browserdb/internal/browser"
)

// DefaultShuffleSeed makes shuffles reproducible unless a seed is given.
const DefaultShuffleSeed = int64(20260224)

// Shuffle returns a deterministic permutation of records for seed. When
// keep is positive and smaller than the input, only the first keep
// shuffled records are returned.
func Shuffle(records []browser.Record, seed int64, keep int) []browser.Record {
	out := browser.Clone(records)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if keep > 0 && keep < len(out) {
		out = out[:keep]
	}
	return out
}
