package session

import (
	"github.com/verte-zerg/nback/internal/generator"
	"github.com/verte-zerg/nback/internal/model"
)

// Score is the outcome of a session computed from the realized sequence and
// the recorded responses.
type Score struct {
	TotalMatches               int
	Hits                       int
	FalseAlarms                int
	AccuracyPercent            float64
	AverageResponseTimeSeconds float64
}

// ComputeScore scores responses against seq. Matches are counted from the
// sequence itself rather than taken from the configured match count. Misses
// are not recorded, so accuracy is hits over total matches.
func ComputeScore(seq model.Sequence, n int, responses []model.ResponseRecord) Score {
	score := Score{TotalMatches: len(generator.LagMatches(seq, n))}
	var rtSum float64
	for _, r := range responses {
		if r.MatchExpected && r.Responded {
			score.Hits++
		} else if r.Responded {
			score.FalseAlarms++
		}
		rtSum += r.ResponseTime.Seconds()
	}
	score.AccuracyPercent = 100
	if score.TotalMatches > 0 {
		score.AccuracyPercent = 100 * float64(score.Hits) / float64(score.TotalMatches)
	}
	if len(responses) > 0 {
		score.AverageResponseTimeSeconds = rtSum / float64(len(responses))
	}
	return score
}
