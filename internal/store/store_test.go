package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/nback/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nback.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func sampleResult(i int, subject string, n int, accuracy float64) model.SessionResult {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour)
	return model.SessionResult{
		ID:                         fmt.Sprintf("session-%d", i),
		SubjectID:                  subject,
		N:                          n,
		TotalRounds:                30,
		MatchCount:                 10,
		TotalMatches:               10,
		Hits:                       int(accuracy / 10),
		FalseAlarms:                1,
		AccuracyPercent:            accuracy,
		AverageResponseTimeSeconds: 0.25,
		Responses: []model.ResponseRecord{
			{Index: 3, MatchExpected: true, Responded: true, ResponseTime: 200 * time.Millisecond},
			{Index: 7, MatchExpected: false, Responded: true, ResponseTime: 300 * time.Millisecond},
		},
		StartedAt: start,
		EndedAt:   start.Add(21 * time.Second),
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "nback.db")
	for i := 0; i < 2; i++ {
		st, err := Open(path)
		if err != nil {
			t.Fatalf("open #%d: %v", i, err)
		}
		if err := st.Close(); err != nil {
			t.Fatalf("close #%d: %v", i, err)
		}
	}
}

func TestRecordAndListSessions(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.Record(ctx, sampleResult(0, "p01", 2, 70)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := st.Record(ctx, sampleResult(1, "p01", 3, 50)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := st.Record(ctx, sampleResult(2, "p02", 2, 90)); err != nil {
		t.Fatalf("record: %v", err)
	}

	all, err := st.ListSessions(ctx, model.StatsConfig{})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(all))
	}
	if all[0].UUID != "session-0" || all[2].UUID != "session-2" {
		t.Fatalf("expected oldest first, got %s..%s", all[0].UUID, all[2].UUID)
	}
	first := all[0]
	if first.SubjectID != "p01" || first.N != 2 || first.Accuracy != 70 || first.Responses != 2 {
		t.Fatalf("unexpected aggregate: %+v", first)
	}
	if !first.EndedAt.Equal(time.Date(2026, 1, 1, 10, 0, 21, 0, time.UTC)) {
		t.Fatalf("unexpected ended_at: %v", first.EndedAt)
	}

	bySubject, err := st.ListSessions(ctx, model.StatsConfig{Subject: "p01"})
	if err != nil {
		t.Fatalf("list by subject: %v", err)
	}
	if len(bySubject) != 2 {
		t.Fatalf("expected 2 sessions for p01, got %d", len(bySubject))
	}

	byN, err := st.ListSessions(ctx, model.StatsConfig{N: 2})
	if err != nil {
		t.Fatalf("list by n: %v", err)
	}
	if len(byN) != 2 {
		t.Fatalf("expected 2 sessions at n=2, got %d", len(byN))
	}

	last, err := st.ListSessions(ctx, model.StatsConfig{Last: 2})
	if err != nil {
		t.Fatalf("list last: %v", err)
	}
	if len(last) != 2 || last[0].UUID != "session-1" || last[1].UUID != "session-2" {
		t.Fatalf("expected the two most recent sessions oldest first, got %+v", last)
	}

	since := time.Date(2026, 1, 1, 11, 30, 0, 0, time.UTC)
	recent, err := st.ListSessions(ctx, model.StatsConfig{Since: &since})
	if err != nil {
		t.Fatalf("list since: %v", err)
	}
	if len(recent) != 1 || recent[0].UUID != "session-2" {
		t.Fatalf("expected only session-2 since %v, got %+v", since, recent)
	}
}

func TestRecordDuplicateIDFails(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	if err := st.Record(ctx, sampleResult(0, "p01", 2, 70)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := st.Record(ctx, sampleResult(0, "p01", 2, 70)); err == nil {
		t.Fatalf("expected duplicate session id to fail")
	}
	sessions, err := st.ListSessions(ctx, model.StatsConfig{})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected rollback to leave 1 session, got %d", len(sessions))
	}
}

func TestListResponses(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	id, err := st.InsertSession(ctx, sampleResult(0, "p01", 2, 70))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	responses, err := st.ListResponses(ctx, id)
	if err != nil {
		t.Fatalf("list responses: %v", err)
	}
	if len(responses) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(responses))
	}
	if responses[0].Index != 3 || !responses[0].MatchExpected || responses[0].ResponseTime != 200*time.Millisecond {
		t.Fatalf("unexpected first response: %+v", responses[0])
	}
	if responses[1].MatchExpected || !responses[1].Responded {
		t.Fatalf("unexpected second response: %+v", responses[1])
	}
}

func TestListLevelAggregates(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	for i, n := range []int{2, 2, 3} {
		if err := st.Record(ctx, sampleResult(i, "p01", n, 70)); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	levels, err := st.ListLevelAggregates(ctx, model.StatsConfig{Subject: "p01"})
	if err != nil {
		t.Fatalf("list levels: %v", err)
	}
	if len(levels) != 2 {
		t.Fatalf("expected 2 levels, got %d", len(levels))
	}
	two := levels[0]
	if two.N != 2 || two.Sessions != 2 || two.TotalMatches != 20 || two.Hits != 14 || two.FalseAlarms != 2 || two.Responses != 4 {
		t.Fatalf("unexpected level aggregate: %+v", two)
	}
	if two.RTSumSeconds < 0.999 || two.RTSumSeconds > 1.001 {
		t.Fatalf("expected rt sum 1.0, got %f", two.RTSumSeconds)
	}
}

func TestListSubjects(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	for i, subject := range []string{"p02", "p01", "p02"} {
		if err := st.Record(ctx, sampleResult(i, subject, 2, 70)); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	subjects, err := st.ListSubjects(ctx)
	if err != nil {
		t.Fatalf("list subjects: %v", err)
	}
	if len(subjects) != 2 || subjects[0] != "p01" || subjects[1] != "p02" {
		t.Fatalf("unexpected subjects: %v", subjects)
	}
}
