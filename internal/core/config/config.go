package config

import (
	"runtime"
	"time"

	"typewalk/internal/engine/resolver"
)

type Config struct {
	Version  int      `toml:"version"`
	Analysis Analysis `toml:"analysis"`
	Paths    Paths    `toml:"paths"`
	Watch    Watch    `toml:"watch"`
	Metrics  Metrics  `toml:"metrics"`
	Tracing  Tracing  `toml:"tracing"`
	Logging  Logging  `toml:"logging"`
}

type Analysis struct {
	// Gas bounds each phase of a definition lookup.
	Gas     int `toml:"gas"`
	Workers int `toml:"workers"`
}

// Paths selects the files a check run covers. Patterns are globs over
// slash-separated paths relative to the checked root; `**` crosses
// directories. An exclude pattern also matches when it names any directory on
// the path, so `.venv` skips every virtualenv.
type Paths struct {
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
}

type Watch struct {
	Enabled              bool          `toml:"enabled"`
	Debounce             time.Duration `toml:"debounce"`
	MaxRechecksPerSecond float64       `toml:"max_rechecks_per_second"`
}

type Metrics struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
}

type Tracing struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"`
	Insecure bool   `toml:"insecure"`
}

type Logging struct {
	Level string `toml:"level"`
}

// Default is the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if cfg.Analysis.Gas == 0 {
		cfg.Analysis.Gas = resolver.DefaultGas
	}
	if cfg.Analysis.Workers == 0 {
		cfg.Analysis.Workers = runtime.NumCPU()
	}
	if len(cfg.Paths.Include) == 0 {
		cfg.Paths.Include = []string{"**.py", "**.pyi"}
	}
	if cfg.Paths.Exclude == nil {
		cfg.Paths.Exclude = []string{".git", ".venv", "venv", "__pycache__", "node_modules"}
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}
	if cfg.Watch.MaxRechecksPerSecond == 0 {
		cfg.Watch.MaxRechecksPerSecond = 2
	}
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = "127.0.0.1:9464"
	}
	if cfg.Tracing.Endpoint == "" {
		cfg.Tracing.Endpoint = "localhost:4317"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
