// Package shuffle produces the randomized drill order for a quiz session.
package shuffle

import (
	"math/rand/v2"

	"github.com/minhvt/gongbu/internal/domain"
)

// Items returns a uniformly shuffled copy of items. The input is never
// mutated; callers shuffle once per candidate set, not per answer.
func Items(items []domain.Item) []domain.Item {
	return ItemsWith(nil, items)
}

// ItemsWith shuffles with an explicit source, letting tests fix the
// permutation. A nil source uses the shared generator.
func ItemsWith(r *rand.Rand, items []domain.Item) []domain.Item {
	out := make([]domain.Item, len(items))
	copy(out, items)
	swap := func(i, j int) { out[i], out[j] = out[j], out[i] }
	if r != nil {
		r.Shuffle(len(out), swap)
	} else {
		rand.Shuffle(len(out), swap)
	}
	return out
}
