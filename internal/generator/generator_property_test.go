package generator

import (
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestGenerateMatchCount_PropertyBased checks that every valid shape yields
// exactly matchCount lag-N matches and no accidental ones.
func TestGenerateMatchCount_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("exact lag-N match count", prop.ForAll(
		func(total, n, matchPct int, seed int64) bool {
			if n >= total {
				n = total - 1
			}
			matches := (total - n) * matchPct / 100
			seq, err := NewWithSource(rand.NewSource(seed)).Generate(n, total, matches)
			if err != nil {
				t.Logf("generate(%d, %d, %d): %v", n, total, matches, err)
				return false
			}
			if len(seq) != total {
				return false
			}
			return len(LagMatches(seq, n)) == matches
		},
		gen.IntRange(2, 80),
		gen.IntRange(1, 79),
		gen.IntRange(0, 100),
		gen.Int64(),
	))

	properties.Property("same seed gives same sequence", prop.ForAll(
		func(n int, seed int64) bool {
			a, errA := NewWithSource(rand.NewSource(seed)).Generate(n, 30, 10)
			b, errB := NewWithSource(rand.NewSource(seed)).Generate(n, 30, 10)
			if errA != nil || errB != nil {
				return false
			}
			return string(runes(a)) == string(runes(b))
		},
		gen.IntRange(1, 20),
		gen.Int64(),
	))

	properties.TestingRun(t)
}
