// Package main provides the CLI entrypoint for nback.
package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/nback/internal/config"
	"github.com/verte-zerg/nback/internal/csvlog"
	apperrors "github.com/verte-zerg/nback/internal/errors"
	"github.com/verte-zerg/nback/internal/generator"
	"github.com/verte-zerg/nback/internal/logging"
	"github.com/verte-zerg/nback/internal/session"
	"github.com/verte-zerg/nback/internal/store"
	"github.com/verte-zerg/nback/internal/tui"
)

const (
	defaultIntervalMs = 500
	defaultFlashMs    = 100
	defaultLogLevel   = "info"
)

var (
	configPath string
	logLevel   string

	testSubject    string
	testN          int
	testRounds     int
	testMatches    int
	testIntervalMs int
	testFlashMs    int
	testCountdown  int
	testCSV        string
	testNoCSV      bool
	testSeed       int64
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(apperrors.ExitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "nback",
		Short:         "N-back working-memory test",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTestCmd,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")

	rootCmd.Flags().StringVar(&testSubject, "subject", "", "subject id to prefill in the start form")
	rootCmd.Flags().IntVar(&testN, "n", session.DefaultN, "lag N to prefill in the start form")
	rootCmd.Flags().IntVar(&testRounds, "rounds", session.DefaultTotalRounds, "stimuli per session")
	rootCmd.Flags().IntVar(&testMatches, "matches", session.DefaultMatchCount, "designed matches per session")
	rootCmd.Flags().IntVar(&testIntervalMs, "interval-ms", defaultIntervalMs, "stimulus interval in milliseconds")
	rootCmd.Flags().IntVar(&testFlashMs, "flash-ms", defaultFlashMs, "blank flash between stimuli in milliseconds")
	rootCmd.Flags().IntVar(&testCountdown, "countdown", session.DefaultCountdownSeconds, "countdown seconds before the first stimulus")
	rootCmd.Flags().StringVar(&testCSV, "csv", config.DefaultCSVPath(), "CSV result log path")
	rootCmd.Flags().BoolVar(&testNoCSV, "no-csv", false, "do not append results to the CSV log")
	rootCmd.Flags().Int64Var(&testSeed, "seed", 0, "seed for reproducible sequences")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatsCmd())

	return rootCmd
}

func runTestCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return apperrors.WrapConfigError(err, "failed to load config")
	}
	settings := resolveSettings(cmd, fileCfg)
	if err := config.Validate(settings); err != nil {
		return err
	}
	if err := logging.SetLevel(settings.LogLevel); err != nil {
		return apperrors.WrapConfigError(err, "invalid log level")
	}

	// The alt screen owns stderr while the program runs.
	logFile, err := openLogFile(config.DefaultLogPath())
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() {
		if cerr := logFile.Close(); cerr != nil {
			// Best-effort close.
			_ = cerr
		}
	}()
	logger := logging.NewLogger(logFile, "nback")

	st, err := store.Open(config.DefaultDBPath(), store.WithLogger(logger.With(logging.String("sink", "sqlite"))))
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	var sink session.ResultSink = st
	if settings.CSVEnabled {
		sink = session.Tee(st, csvlog.New(settings.CSVPath))
	}

	gen := generator.New()
	if cmd.Flags().Changed("seed") {
		gen = generator.NewWithSource(rand.NewSource(settings.Seed))
	}

	m := tui.NewModel(tui.Options{
		Session:   settings.SessionConfig(),
		Subject:   settings.Subject,
		Generator: gen,
		Sink:      sink,
		History:   st,
		Logger:    logger,
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func resolveSettings(cmd *cobra.Command, fileCfg config.FileConfig) config.Settings {
	applyStringConfig(cmd, "subject", &testSubject, fileCfg.Session.Subject)
	applyIntConfig(cmd, "n", &testN, fileCfg.Session.N)
	applyIntConfig(cmd, "rounds", &testRounds, fileCfg.Session.Rounds)
	applyIntConfig(cmd, "matches", &testMatches, fileCfg.Session.Matches)
	applyIntConfig(cmd, "interval-ms", &testIntervalMs, fileCfg.Session.IntervalMs)
	applyIntConfig(cmd, "flash-ms", &testFlashMs, fileCfg.Session.FlashMs)
	applyIntConfig(cmd, "countdown", &testCountdown, fileCfg.Session.Countdown)
	applyStringConfig(cmd, "csv", &testCSV, fileCfg.Results.CSV)
	if fileCfg.Results.CSVEnabled != nil && !cmd.Flags().Changed("no-csv") {
		testNoCSV = !*fileCfg.Results.CSVEnabled
	}
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)

	return config.Settings{
		Subject:    strings.TrimSpace(testSubject),
		N:          testN,
		Rounds:     testRounds,
		Matches:    testMatches,
		IntervalMs: testIntervalMs,
		FlashMs:    testFlashMs,
		Countdown:  testCountdown,
		CSVPath:    testCSV,
		CSVEnabled: !testNoCSV,
		LogLevel:   strings.ToLower(strings.TrimSpace(logLevel)),
		Seed:       testSeed,
	}
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := configPath
	if err := ensureConfigFile(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func ensureConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# nback configuration
# Uncomment a value to enable it. CLI flags override config values.

[session]
# subject = ""            # Subject id to prefill
# n = %d                   # Lag N to prefill
# rounds = %d             # Stimuli per session
# matches = %d            # Designed matches per session
# interval-ms = %d       # Stimulus interval in milliseconds
# flash-ms = %d          # Blank flash between stimuli in milliseconds
# countdown = %d           # Countdown seconds before the first stimulus

[results]
# csv = %q
# csv-enabled = true      # Append each result to the CSV log

[log]
# level = %q          # debug, info, warn, error
`,
		session.DefaultN,
		session.DefaultTotalRounds,
		session.DefaultMatchCount,
		defaultIntervalMs,
		defaultFlashMs,
		session.DefaultCountdownSeconds,
		config.DefaultCSVPath(),
		defaultLogLevel,
	)
}

func logErrf(format string, args ...any) {
	logTo(os.Stderr, format, args...)
}

func logTo(w io.Writer, format string, args ...any) {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		// Best-effort logging.
		_ = err
	}
}
