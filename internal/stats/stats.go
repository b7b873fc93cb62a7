// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/nback/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Accuracy returns hits over total matches as a percentage. A session
// without matches scores 100.
func Accuracy(hits, totalMatches int) float64 {
	if totalMatches <= 0 {
		return 100
	}
	return 100 * float64(hits) / float64(totalMatches)
}

// LevelAccuracy returns the pooled accuracy across every session at a level.
func LevelAccuracy(agg model.LevelAggregate) float64 {
	return Accuracy(agg.Hits, agg.TotalMatches)
}

// LevelAvgRT returns the mean response time in seconds across a level.
func LevelAvgRT(agg model.LevelAggregate) float64 {
	if agg.Responses == 0 {
		return 0
	}
	return agg.RTSumSeconds / float64(agg.Responses)
}

// Summary aggregates a set of sessions.
type Summary struct {
	Sessions     int
	AvgAccuracy  float64
	BestAccuracy float64
	AvgRT        float64
	Hits         int
	FalseAlarms  int
	TotalMatches int
	HighestN     int
}

// Summarize computes mean accuracy and pooled response time over sessions.
func Summarize(sessions []model.SessionAggregate) Summary {
	var sum Summary
	if len(sessions) == 0 {
		return sum
	}
	var accSum, rtSum float64
	var responses int
	for _, s := range sessions {
		accSum += s.Accuracy
		if s.Accuracy > sum.BestAccuracy {
			sum.BestAccuracy = s.Accuracy
		}
		rtSum += s.AvgRTSeconds * float64(s.Responses)
		responses += s.Responses
		sum.Hits += s.Hits
		sum.FalseAlarms += s.FalseAlarms
		sum.TotalMatches += s.TotalMatches
		if s.N > sum.HighestN {
			sum.HighestN = s.N
		}
	}
	sum.Sessions = len(sessions)
	sum.AvgAccuracy = accSum / float64(len(sessions))
	if responses > 0 {
		sum.AvgRT = rtSum / float64(responses)
	}
	return sum
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := minMax(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

func minMax(values []float64) (float64, float64) {
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	return minVal, maxVal
}

// RenderSummary prints a summary block for sessions.
func RenderSummary(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	sum := Summarize(sessions)
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", sum.Sessions),
		fmt.Sprintf("Avg Accuracy: %.2f%%", sum.AvgAccuracy),
		fmt.Sprintf("Best Accuracy: %.2f%%", sum.BestAccuracy),
		fmt.Sprintf("Avg RT: %.3fs", sum.AvgRT),
		fmt.Sprintf("Hits: %d/%d  False alarms: %d", sum.Hits, sum.TotalMatches, sum.FalseAlarms),
		fmt.Sprintf("Highest N: %d", sum.HighestN),
		"",
	}
	return writeLines(w, lines)
}

// CurveSeries returns the smoothed accuracy and response time series.
func CurveSeries(sessions []model.SessionAggregate, window int) (acc, rt []float64) {
	acc = make([]float64, len(sessions))
	rt = make([]float64, len(sessions))
	for i, s := range sessions {
		acc[i] = s.Accuracy
		rt[i] = s.AvgRTSeconds
	}
	return MovingAverage(acc, window), MovingAverage(rt, window)
}

// RenderCurves prints accuracy and response time sparklines over sessions.
func RenderCurves(w io.Writer, sessions []model.SessionAggregate, window int) error {
	if len(sessions) == 0 {
		return nil
	}
	acc, rt := CurveSeries(sessions, window)
	accMin, accMax := minMax(acc)
	rtMin, rtMax := minMax(rt)
	lines := []string{
		fmt.Sprintf("Learning Curves (window %d)", max(window, 1)),
		fmt.Sprintf("Accuracy %s  min=%.2f%% max=%.2f%%", Sparkline(acc), accMin, accMax),
		fmt.Sprintf("Avg RT   %s  min=%.3fs max=%.3fs", Sparkline(rt), rtMin, rtMax),
		"",
	}
	return writeLines(w, lines)
}

// HistoryRows formats sessions as table rows, newest first.
func HistoryRows(sessions []model.SessionAggregate) [][]string {
	rows := make([][]string, 0, len(sessions))
	for i := len(sessions) - 1; i >= 0; i-- {
		s := sessions[i]
		rows = append(rows, []string{
			s.EndedAt.Local().Format("2006-01-02 15:04"),
			s.SubjectID,
			fmt.Sprintf("%d", s.N),
			fmt.Sprintf("%.2f%%", s.Accuracy),
			fmt.Sprintf("%d/%d", s.Hits, s.TotalMatches),
			fmt.Sprintf("%d", s.FalseAlarms),
			fmt.Sprintf("%.3f", s.AvgRTSeconds),
		})
	}
	return rows
}

// HistoryHeaders are the column titles for HistoryRows.
var HistoryHeaders = []string{"Ended", "Subject", "N", "Accuracy", "Hits", "False alarms", "Avg RT (s)"}

// RenderHistoryTable prints one row per session.
func RenderHistoryTable(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		return nil
	}
	rightAlign := map[int]bool{2: true, 3: true, 4: true, 5: true, 6: true}
	lines := append([]string{"Sessions"}, formatTable(HistoryHeaders, HistoryRows(sessions), rightAlign)...)
	return writeLines(w, append(lines, ""))
}

// LevelRows formats level aggregates as table rows.
func LevelRows(levels []model.LevelAggregate) [][]string {
	rows := make([][]string, 0, len(levels))
	for _, l := range levels {
		rows = append(rows, []string{
			fmt.Sprintf("%d", l.N),
			fmt.Sprintf("%d", l.Sessions),
			fmt.Sprintf("%.2f%%", LevelAccuracy(l)),
			fmt.Sprintf("%d/%d", l.Hits, l.TotalMatches),
			fmt.Sprintf("%d", l.FalseAlarms),
			fmt.Sprintf("%.3f", LevelAvgRT(l)),
		})
	}
	return rows
}

// LevelHeaders are the column titles for LevelRows.
var LevelHeaders = []string{"N", "Sessions", "Accuracy", "Hits", "False alarms", "Avg RT (s)"}

// RenderLevelTable prints pooled results per N.
func RenderLevelTable(w io.Writer, levels []model.LevelAggregate) error {
	if len(levels) == 0 {
		return nil
	}
	rightAlign := map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true, 5: true}
	lines := append([]string{"Per Level"}, formatTable(LevelHeaders, LevelRows(levels), rightAlign)...)
	return writeLines(w, append(lines, ""))
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
