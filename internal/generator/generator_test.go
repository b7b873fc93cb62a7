package generator

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/verte-zerg/nback/internal/model"
)

func TestGenerateTwoBackScenario(t *testing.T) {
	gen := NewWithSource(rand.NewSource(42))
	seq, err := gen.Generate(2, 30, 10)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(seq) != 30 {
		t.Fatalf("expected 30 stimuli, got %d", len(seq))
	}
	matches := LagMatches(seq, 2)
	if len(matches) != 10 {
		t.Fatalf("expected 10 lag-2 matches, got %d (%v)", len(matches), matches)
	}
	matchSet := map[int]bool{}
	for _, i := range matches {
		matchSet[i] = true
	}
	for i := 2; i < len(seq); i++ {
		if !matchSet[i] && seq[i] == seq[i-2] {
			t.Fatalf("unexpected match at %d", i)
		}
	}
}

func TestGenerateUsesAlphabet(t *testing.T) {
	gen := NewWithSource(rand.NewSource(7))
	seq, err := gen.Generate(3, 30, 10)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for i, s := range seq {
		if !strings.ContainsRune(Alphabet, rune(s)) {
			t.Fatalf("stimulus %q at %d not in alphabet", s.String(), i)
		}
	}
}

func TestGenerateDeterministicWithSameSource(t *testing.T) {
	a, err := NewWithSource(rand.NewSource(99)).Generate(2, 30, 10)
	if err != nil {
		t.Fatalf("generate a: %v", err)
	}
	b, err := NewWithSource(rand.NewSource(99)).Generate(2, 30, 10)
	if err != nil {
		t.Fatalf("generate b: %v", err)
	}
	if string(runes(a)) != string(runes(b)) {
		t.Fatalf("expected identical sequences, got %q and %q", string(runes(a)), string(runes(b)))
	}
}

func TestGenerateAllPositionsMatch(t *testing.T) {
	gen := NewWithSource(rand.NewSource(1))
	seq, err := gen.Generate(1, 10, 9)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for i := 1; i < len(seq); i++ {
		if seq[i] != seq[0] {
			t.Fatalf("expected chained matches to carry %q forward, got %q at %d", seq[0].String(), seq[i].String(), i)
		}
	}
}

func TestGenerateNoMatches(t *testing.T) {
	gen := NewWithSource(rand.NewSource(5))
	seq, err := gen.Generate(4, 30, 0)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got := LagMatches(seq, 4); len(got) != 0 {
		t.Fatalf("expected no matches, got %v", got)
	}
}

func TestGenerateRejectsInvalidConfig(t *testing.T) {
	gen := NewWithSource(rand.NewSource(1))
	cases := []struct {
		name    string
		n       int
		total   int
		matches int
		want    error
	}{
		{name: "zero lag", n: 0, total: 30, matches: 10, want: ErrInvalidConfig},
		{name: "lag equals rounds", n: 30, total: 30, matches: 0, want: ErrInvalidConfig},
		{name: "negative matches", n: 2, total: 30, matches: -1, want: ErrInvalidConfig},
		{name: "too many matches", n: 25, total: 30, matches: 6, want: ErrInsufficientPositions},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seq, err := gen.Generate(tc.n, tc.total, tc.matches)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if seq != nil {
				t.Fatalf("expected nil sequence on error")
			}
		})
	}
}

func TestLagMatches(t *testing.T) {
	seq := seqOf("ababcb")
	got := LagMatches(seq, 2)
	want := []int{2, 3, 5}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func seqOf(letters string) model.Sequence {
	seq := make(model.Sequence, 0, len(letters))
	for _, r := range letters {
		seq = append(seq, model.Stimulus(r))
	}
	return seq
}

func runes(seq model.Sequence) []rune {
	out := make([]rune, len(seq))
	for i, s := range seq {
		out[i] = rune(s)
	}
	return out
}
