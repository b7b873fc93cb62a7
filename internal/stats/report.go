package stats

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/nback/internal/model"
)

// Source is the read side of the history store.
type Source interface {
	ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error)
	ListLevelAggregates(ctx context.Context, cfg model.StatsConfig) ([]model.LevelAggregate, error)
	ListSubjects(ctx context.Context) ([]string, error)
}

// Report contains precomputed data for stats rendering.
type Report struct {
	Sessions []model.SessionAggregate
	Levels   []model.LevelAggregate
	Subjects []string
}

// BuildReport loads sessions, per-level aggregates and known subjects concurrently.
func BuildReport(ctx context.Context, src Source, cfg model.StatsConfig) (Report, error) {
	var report Report
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sessions, err := src.ListSessions(gctx, cfg)
		report.Sessions = sessions
		return err
	})
	g.Go(func() error {
		levels, err := src.ListLevelAggregates(gctx, cfg)
		report.Levels = levels
		return err
	})
	g.Go(func() error {
		subjects, err := src.ListSubjects(gctx)
		report.Subjects = subjects
		return err
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	return report, nil
}

// RenderReport prints the plain-text report used when stdout is not a terminal.
func RenderReport(w io.Writer, report Report, cfg model.StatsConfig) error {
	if err := RenderSummary(w, report.Sessions); err != nil {
		return err
	}
	if len(report.Sessions) == 0 {
		return nil
	}
	if err := RenderCurves(w, report.Sessions, cfg.CurveWindow); err != nil {
		return err
	}
	if err := RenderLevelTable(w, report.Levels); err != nil {
		return err
	}
	return RenderHistoryTable(w, report.Sessions)
}
