// Package generator builds N-back stimulus sequences.
package generator

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/verte-zerg/nback/internal/model"
)

// Alphabet is the set of letters stimuli are drawn from.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

var (
	// ErrInvalidConfig is returned when N or the match count is out of range.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrInsufficientPositions is returned when more matches are requested than lag-N positions exist.
	ErrInsufficientPositions = errors.New("insufficient eligible positions")
)

// Generator produces stimulus sequences with a fixed number of lag-N matches.
type Generator struct {
	rnd      *rand.Rand
	alphabet []model.Stimulus
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewWithSource returns a Generator drawing from src.
func NewWithSource(src rand.Source) *Generator {
	letters := make([]model.Stimulus, 0, len(Alphabet))
	for _, r := range Alphabet {
		letters = append(letters, model.Stimulus(r))
	}
	return &Generator{rnd: rand.New(src), alphabet: letters}
}

// Validate checks that a sequence with the given shape can be generated.
func Validate(n, totalRounds, matchCount int) error {
	if n < 1 || n >= totalRounds {
		return fmt.Errorf("%w: N must satisfy 1 <= N < %d, got %d", ErrInvalidConfig, totalRounds, n)
	}
	if matchCount < 0 {
		return fmt.Errorf("%w: match count must be >= 0, got %d", ErrInvalidConfig, matchCount)
	}
	if eligible := totalRounds - n; matchCount > eligible {
		return fmt.Errorf("%w: %d matches requested, %d positions available", ErrInsufficientPositions, matchCount, eligible)
	}
	return nil
}

// Generate returns a sequence of totalRounds stimuli in which exactly
// matchCount positions i >= n repeat the stimulus at i-n.
func (g *Generator) Generate(n, totalRounds, matchCount int) (model.Sequence, error) {
	if err := Validate(n, totalRounds, matchCount); err != nil {
		return nil, err
	}
	designed := g.pickMatchPositions(n, totalRounds, matchCount)

	seq := make(model.Sequence, totalRounds)
	for i := range seq {
		if designed[i] {
			seq[i] = seq[i-n]
			continue
		}
		for {
			letter := g.alphabet[g.rnd.Intn(len(g.alphabet))]
			if i < n || letter != seq[i-n] {
				seq[i] = letter
				break
			}
		}
	}
	return seq, nil
}

func (g *Generator) pickMatchPositions(n, totalRounds, matchCount int) []bool {
	designed := make([]bool, totalRounds)
	eligible := totalRounds - n
	for _, offset := range g.rnd.Perm(eligible)[:matchCount] {
		designed[n+offset] = true
	}
	return designed
}

// LagMatches returns the positions i >= n where seq[i] == seq[i-n].
func LagMatches(seq model.Sequence, n int) []int {
	var out []int
	for i := n; i < len(seq); i++ {
		if seq.IsMatch(i, n) {
			out = append(out, i)
		}
	}
	return out
}
