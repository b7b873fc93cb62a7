package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/nback/internal/config"
	apperrors "github.com/verte-zerg/nback/internal/errors"
	"github.com/verte-zerg/nback/internal/logging"
	"github.com/verte-zerg/nback/internal/model"
	"github.com/verte-zerg/nback/internal/stats"
	"github.com/verte-zerg/nback/internal/statsui"
	"github.com/verte-zerg/nback/internal/store"
)

const defaultCurveWindow = 5

var (
	statsSubject     string
	statsN           int
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsPlain       bool
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show session history",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsSubject, "subject", "", "subject filter")
	cmd.Flags().IntVar(&statsN, "n", 0, "lag N filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a text report instead of the interactive view")
	return cmd
}

func statsConfigFromFlags() (model.StatsConfig, error) {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return model.StatsConfig{}, apperrors.WrapConfigError(err, "invalid --since value")
		}
		sinceTime = &parsed
	}
	if statsN < 0 {
		return model.StatsConfig{}, apperrors.NewConfigError("--n must be >= 0")
	}
	if statsLast < 0 {
		return model.StatsConfig{}, apperrors.NewConfigError("--last must be >= 0")
	}
	if statsCurveWindow < 1 {
		return model.StatsConfig{}, apperrors.NewConfigError("--window must be >= 1")
	}
	return model.StatsConfig{
		Subject:     strings.TrimSpace(statsSubject),
		N:           statsN,
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
	}, nil
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := statsConfigFromFlags()
	if err != nil {
		return err
	}
	if err := logging.SetLevel(logLevel); err != nil {
		return apperrors.WrapConfigError(err, "invalid log level")
	}
	logger := logging.NewDefaultLogger()

	st, err := store.Open(config.DefaultDBPath(), store.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if statsPlain || !term.IsTerminal(int(os.Stdout.Fd())) {
		report, err := stats.BuildReport(context.Background(), st, cfg)
		if err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}
		if err := stats.RenderReport(cmd.OutOrStdout(), report, cfg); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	m := statsui.NewModel(st, cfg)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}
