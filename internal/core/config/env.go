package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: TYPEWALK_[SECTION]_[KEY] (e.g., TYPEWALK_ANALYSIS_WORKERS).
// Values that do not parse are ignored.
func ApplyEnvOverrides(cfg *Config) {
	setEnvInt(&cfg.Analysis.Gas, "TYPEWALK_ANALYSIS_GAS")
	setEnvInt(&cfg.Analysis.Workers, "TYPEWALK_ANALYSIS_WORKERS")

	setEnvBool(&cfg.Watch.Enabled, "TYPEWALK_WATCH_ENABLED")
	setEnvDuration(&cfg.Watch.Debounce, "TYPEWALK_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.MaxRechecksPerSecond, "TYPEWALK_WATCH_MAX_RECHECKS_PER_SECOND")

	setEnvBool(&cfg.Metrics.Enabled, "TYPEWALK_METRICS_ENABLED")
	setEnvString(&cfg.Metrics.Address, "TYPEWALK_METRICS_ADDRESS")

	setEnvBool(&cfg.Tracing.Enabled, "TYPEWALK_TRACING_ENABLED")
	setEnvString(&cfg.Tracing.Endpoint, "TYPEWALK_TRACING_ENDPOINT")
	setEnvBool(&cfg.Tracing.Insecure, "TYPEWALK_TRACING_INSECURE")

	setEnvString(&cfg.Logging.Level, "TYPEWALK_LOGGING_LEVEL")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
