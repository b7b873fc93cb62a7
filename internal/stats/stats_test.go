package stats

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/verte-zerg/nback/internal/model"
)

func TestAccuracy(t *testing.T) {
	if got := Accuracy(7, 10); got != 70 {
		t.Fatalf("expected 70, got %f", got)
	}
	if got := Accuracy(0, 0); got != 100 {
		t.Fatalf("expected 100 without matches, got %f", got)
	}
}

func TestLevelHelpers(t *testing.T) {
	agg := model.LevelAggregate{Hits: 15, TotalMatches: 20, RTSumSeconds: 3, Responses: 12}
	if got := LevelAccuracy(agg); got != 75 {
		t.Fatalf("expected 75, got %f", got)
	}
	if got := LevelAvgRT(agg); got != 0.25 {
		t.Fatalf("expected 0.25, got %f", got)
	}
	if got := LevelAvgRT(model.LevelAggregate{}); got != 0 {
		t.Fatalf("expected 0 with no responses, got %f", got)
	}
}

func TestSummarize(t *testing.T) {
	sessions := []model.SessionAggregate{
		{N: 2, Accuracy: 60, AvgRTSeconds: 0.2, Responses: 2, Hits: 6, TotalMatches: 10, FalseAlarms: 1},
		{N: 3, Accuracy: 80, AvgRTSeconds: 0.5, Responses: 1, Hits: 8, TotalMatches: 10},
	}
	sum := Summarize(sessions)
	if sum.Sessions != 2 || sum.AvgAccuracy != 70 || sum.BestAccuracy != 80 || sum.HighestN != 3 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if math.Abs(sum.AvgRT-0.3) > 1e-9 {
		t.Fatalf("expected pooled rt 0.3, got %f", sum.AvgRT)
	}
	if sum.Hits != 14 || sum.TotalMatches != 20 || sum.FalseAlarms != 1 {
		t.Fatalf("unexpected totals: %+v", sum)
	}
	if Summarize(nil) != (Summary{}) {
		t.Fatalf("expected zero summary for no sessions")
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: expected %f, got %f", i, want[i], got[i])
		}
	}
	flat := MovingAverage([]float64{1, 2}, 0)
	if flat[0] != 1 || flat[1] != 2 {
		t.Fatalf("window <= 1 should copy values, got %v", flat)
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline(nil); got != "" {
		t.Fatalf("expected empty sparkline, got %q", got)
	}
	if got := Sparkline([]float64{5, 5, 5}); got != "+++" {
		t.Fatalf("expected flat sparkline, got %q", got)
	}
	got := Sparkline([]float64{0, 100})
	if got != " @" {
		t.Fatalf("expected extremes, got %q", got)
	}
}

func TestRenderSummaryNoSessions(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, nil); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "No sessions found.") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestRenderLevelTable(t *testing.T) {
	var buf bytes.Buffer
	levels := []model.LevelAggregate{{N: 2, Sessions: 3, TotalMatches: 30, Hits: 24, FalseAlarms: 2, RTSumSeconds: 6, Responses: 24}}
	if err := RenderLevelTable(&buf, levels); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Per Level", "80.00%", "24/30", "0.250"} {
		if !strings.Contains(out, want) {
			t.Fatalf("level table missing %q:\n%s", want, out)
		}
	}
}
