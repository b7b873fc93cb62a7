// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/nback/internal/logging"
	"github.com/verte-zerg/nback/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps SQLite access for session history.
type Store struct {
	db     *sql.DB
	logger logging.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for migrations and write failures.
func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string, opts ...Option) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer; sharing one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, logger: logging.Nop()}
	for _, opt := range opts {
		opt(store)
	}
	if err := migrate(db, store.logger); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a completed session. It satisfies session.ResultSink.
func (s *Store) Record(ctx context.Context, result model.SessionResult) error {
	if _, err := s.InsertSession(ctx, result); err != nil {
		return fmt.Errorf("failed to store session %s: %w", result.ID, err)
	}
	return nil
}

// InsertSession stores a session and its honored responses in one transaction.
func (s *Store) InsertSession(ctx context.Context, result model.SessionResult) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (uuid, subject_id, n, rounds, matches, total_matches, hits, false_alarms, accuracy, avg_rt_s, responses, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID,
		result.SubjectID,
		result.N,
		result.TotalRounds,
		result.MatchCount,
		result.TotalMatches,
		result.Hits,
		result.FalseAlarms,
		result.AccuracyPercent,
		result.AverageResponseTimeSeconds,
		len(result.Responses),
		result.StartedAt.UTC().Format(timeLayout),
		result.EndedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(result.Responses) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO session_responses (session_id, idx, match_expected, response_ms)
			 VALUES (?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, r := range result.Responses {
			ms := float64(r.ResponseTime.Microseconds()) / 1000
			if _, err = stmt.ExecContext(ctx, id, r.Index, r.MatchExpected, ms); err != nil {
				return 0, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func filterClauses(cfg model.StatsConfig) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Subject != "" {
		clauses = append(clauses, "subject_id = ?")
		args = append(args, cfg.Subject)
	}
	if cfg.N > 0 {
		clauses = append(clauses, "n = ?")
		args = append(args, cfg.N)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.UTC().Format(timeLayout))
	}
	return strings.Join(clauses, " AND "), args
}

// ListSessions returns session aggregates filtered by cfg, oldest first.
// When cfg.Last is positive only the most recent cfg.Last sessions are returned.
func (s *Store) ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error) {
	where, args := filterClauses(cfg)
	query := fmt.Sprintf(`SELECT id, uuid, subject_id, n, ended_at, total_matches, hits, false_alarms, accuracy, avg_rt_s, responses
		FROM sessions
		WHERE %s
		ORDER BY ended_at DESC, id DESC`, where)
	if cfg.Last > 0 {
		query += " LIMIT ?"
		args = append(args, cfg.Last)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionAggregate
	for rows.Next() {
		var agg model.SessionAggregate
		var endedAt string
		if err := rows.Scan(&agg.SessionID, &agg.UUID, &agg.SubjectID, &agg.N, &endedAt,
			&agg.TotalMatches, &agg.Hits, &agg.FalseAlarms, &agg.Accuracy, &agg.AvgRTSeconds, &agg.Responses); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		agg.EndedAt = parsed
		sessions = append(sessions, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(sessions)-1; i < j; i, j = i+1, j-1 {
		sessions[i], sessions[j] = sessions[j], sessions[i]
	}
	return sessions, nil
}

// ListLevelAggregates groups the filtered sessions by N.
func (s *Store) ListLevelAggregates(ctx context.Context, cfg model.StatsConfig) ([]model.LevelAggregate, error) {
	where, args := filterClauses(cfg)
	query := fmt.Sprintf(`SELECT n, COUNT(*), SUM(total_matches), SUM(hits), SUM(false_alarms),
		SUM(avg_rt_s * responses), SUM(responses)
		FROM sessions
		WHERE %s
		GROUP BY n
		ORDER BY n ASC`, where)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.LevelAggregate
	for rows.Next() {
		var agg model.LevelAggregate
		if err := rows.Scan(&agg.N, &agg.Sessions, &agg.TotalMatches, &agg.Hits, &agg.FalseAlarms,
			&agg.RTSumSeconds, &agg.Responses); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListSubjects returns every subject with stored sessions, sorted.
func (s *Store) ListSubjects(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT subject_id FROM sessions ORDER BY subject_id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var subjects []string
	for rows.Next() {
		var subject string
		if err := rows.Scan(&subject); err != nil {
			return nil, err
		}
		subjects = append(subjects, subject)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return subjects, nil
}

// ListResponses returns the honored responses of a stored session in index order.
func (s *Store) ListResponses(ctx context.Context, sessionID int64) ([]model.ResponseRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, match_expected, response_ms FROM session_responses WHERE session_id = ? ORDER BY idx ASC`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.ResponseRecord
	for rows.Next() {
		var r model.ResponseRecord
		var ms float64
		if err := rows.Scan(&r.Index, &r.MatchExpected, &ms); err != nil {
			return nil, err
		}
		r.Responded = true
		r.ResponseTime = time.Duration(ms * float64(time.Millisecond))
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
