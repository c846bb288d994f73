package config

import (
	"fmt"
	"log/slog"
	"net"
	"strings"

	"typewalk/internal/core/errors"

	"github.com/gobwas/glob"
)

// Validate checks cfg after defaults are applied and reports the first
// problem as a VALIDATION_ERROR naming the offending section.
func Validate(cfg *Config) error {
	checks := []struct {
		section string
		check   func(*Config) error
	}{
		{"version", validateVersion},
		{"analysis", validateAnalysis},
		{"paths", validatePaths},
		{"watch", validateWatch},
		{"metrics", validateMetrics},
		{"tracing", validateTracing},
		{"logging", validateLogging},
	}
	for _, c := range checks {
		if err := c.check(cfg); err != nil {
			return errors.AddContext(err, errors.CtxSection, c.section)
		}
	}
	return nil
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return errors.Newf(errors.CodeValidationError, "unsupported config version %d; the only supported version is 1", cfg.Version)
	}
	return nil
}

func validateAnalysis(cfg *Config) error {
	if cfg.Analysis.Gas <= 0 {
		return errors.Newf(errors.CodeValidationError, "analysis.gas must be positive, got %d", cfg.Analysis.Gas)
	}
	if cfg.Analysis.Workers <= 0 {
		return errors.Newf(errors.CodeValidationError, "analysis.workers must be positive, got %d", cfg.Analysis.Workers)
	}
	return nil
}

func validatePaths(cfg *Config) error {
	for i, pattern := range cfg.Paths.Include {
		if strings.TrimSpace(pattern) == "" {
			return errors.Newf(errors.CodeValidationError, "paths.include[%d] must not be empty", i)
		}
	}
	for _, group := range []struct {
		name     string
		patterns []string
	}{{"include", cfg.Paths.Include}, {"exclude", cfg.Paths.Exclude}} {
		for i, pattern := range group.patterns {
			if _, err := glob.Compile(pattern, '/'); err != nil {
				return errors.Wrap(err, errors.CodeValidationError, fmt.Sprintf("paths.%s[%d] is not a valid glob", group.name, i))
			}
		}
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return errors.Newf(errors.CodeValidationError, "watch.debounce must not be negative, got %s", cfg.Watch.Debounce)
	}
	if cfg.Watch.MaxRechecksPerSecond <= 0 {
		return errors.Newf(errors.CodeValidationError, "watch.max_rechecks_per_second must be positive, got %g", cfg.Watch.MaxRechecksPerSecond)
	}
	return nil
}

func validateMetrics(cfg *Config) error {
	if !cfg.Metrics.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(cfg.Metrics.Address); err != nil {
		return errors.Wrap(err, errors.CodeValidationError, "metrics.address must be host:port")
	}
	return nil
}

func validateTracing(cfg *Config) error {
	if cfg.Tracing.Enabled && strings.TrimSpace(cfg.Tracing.Endpoint) == "" {
		return errors.New(errors.CodeValidationError, "tracing.endpoint must not be empty when tracing is enabled")
	}
	return nil
}

func validateLogging(cfg *Config) error {
	if _, err := cfg.Logging.SlogLevel(); err != nil {
		return errors.Wrap(err, errors.CodeValidationError, "logging.level must be one of debug, info, warn, error")
	}
	return nil
}

// SlogLevel parses Level ("debug", "info", "warn", "error").
func (l Logging) SlogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(strings.TrimSpace(l.Level)))
	return level, err
}
