package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/verte-zerg/nback/internal/model"
)

func seqOf(letters string) model.Sequence {
	seq := make(model.Sequence, 0, len(letters))
	for _, r := range letters {
		seq = append(seq, model.Stimulus(r))
	}
	return seq
}

func TestComputeScoreSevenOfTen(t *testing.T) {
	// Ten lag-1 matches: "aa" pairs separated by distinct letters.
	seq := seqOf("aabbccddeeffgghhiijj")
	var responses []model.ResponseRecord
	for i := 1; i < len(seq) && len(responses) < 7; i += 2 {
		responses = append(responses, model.ResponseRecord{Index: i, MatchExpected: true, Responded: true, ResponseTime: 300 * time.Millisecond})
	}
	responses = append(responses, model.ResponseRecord{Index: 16, MatchExpected: false, Responded: true, ResponseTime: 100 * time.Millisecond})

	score := ComputeScore(seq, 1, responses)
	if score.TotalMatches != 10 {
		t.Fatalf("expected 10 matches, got %d", score.TotalMatches)
	}
	if score.Hits != 7 || score.FalseAlarms != 1 {
		t.Fatalf("unexpected hits/false alarms: %+v", score)
	}
	if score.AccuracyPercent != 70 {
		t.Fatalf("expected 70.00, got %.2f", score.AccuracyPercent)
	}
	want := (7*0.3 + 0.1) / 8
	if diff := score.AverageResponseTimeSeconds - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected avg RT %v, got %v", want, score.AverageResponseTimeSeconds)
	}
}

func TestComputeScoreNoMatches(t *testing.T) {
	score := ComputeScore(seqOf("abcdef"), 2, []model.ResponseRecord{
		{Index: 3, Responded: true, ResponseTime: 200 * time.Millisecond},
	})
	if score.TotalMatches != 0 {
		t.Fatalf("expected no matches, got %d", score.TotalMatches)
	}
	if score.AccuracyPercent != 100 {
		t.Fatalf("expected 100 accuracy without matches, got %v", score.AccuracyPercent)
	}
	if score.FalseAlarms != 1 {
		t.Fatalf("expected a false alarm, got %d", score.FalseAlarms)
	}
}

func TestComputeScoreNoResponses(t *testing.T) {
	score := ComputeScore(seqOf("abab"), 2, nil)
	if score.TotalMatches != 2 || score.AccuracyPercent != 0 || score.AverageResponseTimeSeconds != 0 {
		t.Fatalf("unexpected score: %+v", score)
	}
}

func TestFormatSummary(t *testing.T) {
	got := FormatSummary(model.SessionResult{AccuracyPercent: 66.666, AverageResponseTimeSeconds: 0.41234})
	if got != "Accuracy: 66.67%\nAvg RT: 0.412s" {
		t.Fatalf("unexpected summary %q", got)
	}
	if (State{}).Summary() != "" {
		t.Fatalf("expected empty summary without result")
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseDisplaying.String() != "displaying" || Phase(42).String() != "phase(42)" {
		t.Fatalf("unexpected phase names")
	}
	if PhaseIdle.Active() || PhaseFinished.Active() || !PhaseFlashing.Active() {
		t.Fatalf("unexpected Active results")
	}
}

func TestTeeRecordsToAllSinks(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{err: errors.New("csv locked")}
	c := &recordingSink{}
	sink := Tee(a, nil, b, c)

	err := sink.Record(context.Background(), model.SessionResult{SubjectID: "s01"})
	if err == nil || err.Error() != "csv locked" {
		t.Fatalf("expected joined error, got %v", err)
	}
	for i, s := range []*recordingSink{a, b, c} {
		if len(s.results) != 1 {
			t.Fatalf("sink %d got %d results", i, len(s.results))
		}
	}
}

func TestSinkFunc(t *testing.T) {
	var got string
	sink := SinkFunc(func(_ context.Context, r model.SessionResult) error {
		got = r.SubjectID
		return nil
	})
	if err := sink.Record(context.Background(), model.SessionResult{SubjectID: "s02"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if got != "s02" {
		t.Fatalf("expected s02, got %q", got)
	}
}
