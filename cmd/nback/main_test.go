package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/verte-zerg/nback/internal/config"
	apperrors "github.com/verte-zerg/nback/internal/errors"
)

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nback", "config.toml")
	if err := ensureConfigFile(path); err != nil {
		t.Fatalf("ensure config: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("template should decode: %v", err)
	}
	if cfg.Session.N != nil || cfg.Results.CSVEnabled != nil || cfg.Log.Level != nil {
		t.Fatalf("template values should all be commented out: %+v", cfg)
	}
}

func TestEnsureConfigFileKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[session]\nn = 4\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ensureConfigFile(path); err != nil {
		t.Fatalf("ensure config: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "[session]\nn = 4\n" {
		t.Fatalf("existing config was overwritten: %q", data)
	}
}

func TestResolveSettingsFlagsOverrideFile(t *testing.T) {
	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--n", "3", "--no-csv"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	n := 5
	rounds := 40
	csvEnabled := true
	level := "debug"
	fileCfg := config.FileConfig{
		Session: config.SessionConfig{N: &n, Rounds: &rounds},
		Results: config.ResultsConfig{CSVEnabled: &csvEnabled},
		Log:     config.LogConfig{Level: &level},
	}

	settings := resolveSettings(cmd, fileCfg)
	if settings.N != 3 {
		t.Fatalf("flag should win for n, got %d", settings.N)
	}
	if settings.Rounds != 40 {
		t.Fatalf("file should set rounds, got %d", settings.Rounds)
	}
	if settings.CSVEnabled {
		t.Fatalf("--no-csv should win over csv-enabled")
	}
	if settings.LogLevel != "debug" {
		t.Fatalf("file should set log level, got %q", settings.LogLevel)
	}
	if err := config.Validate(settings); err != nil {
		t.Fatalf("resolved settings should validate: %v", err)
	}
}

func TestResolveSettingsDefaults(t *testing.T) {
	cmd := newRootCmd()
	if err := cmd.ParseFlags(nil); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	settings := resolveSettings(cmd, config.FileConfig{})
	cfg := settings.SessionConfig()
	if cfg.N != 2 || cfg.TotalRounds != 30 || cfg.MatchCount != 10 || cfg.CountdownSeconds != 3 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.StimulusInterval.Milliseconds() != 500 || cfg.FlashDuration.Milliseconds() != 100 {
		t.Fatalf("unexpected timing defaults: %+v", cfg)
	}
	if !settings.CSVEnabled {
		t.Fatalf("csv log should be enabled by default")
	}
}

func TestStatsConfigFromFlagsRejectsBadSince(t *testing.T) {
	statsSince = "yesterday"
	t.Cleanup(func() { statsSince = "" })
	_, err := statsConfigFromFlags()
	if err == nil {
		t.Fatalf("expected error")
	}
	if apperrors.ExitCode(err) != apperrors.ExitErrorConfig {
		t.Fatalf("expected config exit code, got %d", apperrors.ExitCode(err))
	}
}
