// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Session SessionConfig `toml:"session"`
	Results ResultsConfig `toml:"results"`
	Log     LogConfig     `toml:"log"`
}

// SessionConfig maps session settings. Unset keys stay nil so CLI defaults apply.
type SessionConfig struct {
	Subject    *string `toml:"subject"`
	N          *int    `toml:"n"`
	Rounds     *int    `toml:"rounds"`
	Matches    *int    `toml:"matches"`
	IntervalMs *int    `toml:"interval-ms"`
	FlashMs    *int    `toml:"flash-ms"`
	Countdown  *int    `toml:"countdown"`
}

// ResultsConfig maps result persistence settings.
type ResultsConfig struct {
	CSV        *string `toml:"csv"`
	CSVEnabled *bool   `toml:"csv-enabled"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
