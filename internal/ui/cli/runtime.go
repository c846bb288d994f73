package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	coreapp "typewalk/internal/core/app"
	"typewalk/internal/core/config"
	"typewalk/internal/core/errors"
	"typewalk/internal/shared/observability"
	"typewalk/internal/shared/version"
)

// Run is the entry point of the typewalk binary and returns its exit code.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, args, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args, stderr)
	if err != nil {
		return 2
	}

	if opts.version {
		fmt.Fprintf(stdout, "typewalk v%s (report schema %d, %s)\n", version.Version, version.ReportSchemaVersion, version.ReportSchemaID)
		return 0
	}

	if err := applyModeOptions(&opts); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 2
	}

	level := configureLogging(stderr, opts.verbose)

	cfg, cfgPath, err := loadConfig(opts.configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return exitFailure
	}
	applyLogLevel(level, cfg, opts.verbose)

	shutdown := startObservability(ctx, cfg)
	defer shutdown()

	session, err := coreapp.New(cfg)
	if err != nil {
		slog.Error("failed to initialize session", "error", err)
		return 1
	}

	switch opts.command {
	case commandDef:
		return runDefinition(ctx, session, opts.args, stdout, stderr)
	case commandAddImport:
		return runAddImport(ctx, session, opts.args, stdout, stderr)
	}

	code := runCheck(ctx, session, opts.args, stdout, stderr)
	if !opts.watch && !cfg.Watch.Enabled {
		return code
	}
	if err := watch(ctx, session, cfg, cfgPath, level, opts, stdout, stderr); err != nil {
		slog.Error("watch failed", "error", err)
		return 1
	}
	return code
}

// loadConfig reads path. A missing file at the default location falls back
// to the built-in defaults; an explicit path must exist. The returned path is
// empty when no file was read.
func loadConfig(path string) (*config.Config, string, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, path, nil
	}
	if path != defaultConfigPath || !errors.IsCode(err, errors.CodeNotFound) {
		return nil, "", err
	}

	slog.Debug("no config file, using defaults", "path", path)
	cfg = config.Default()
	config.ApplyEnvOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, "", err
	}
	return cfg, "", nil
}

// configureLogging installs a text handler on w. The returned level can be
// changed later, e.g. after a config reload.
func configureLogging(w io.Writer, verbose bool) *slog.LevelVar {
	level := new(slog.LevelVar)
	if verbose {
		level.Set(slog.LevelDebug)
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return level
}

// applyLogLevel sets the configured level unless -verbose pinned it to debug.
func applyLogLevel(level *slog.LevelVar, cfg *config.Config, verbose bool) {
	if verbose {
		return
	}
	l, err := cfg.Logging.SlogLevel()
	if err != nil {
		slog.Warn("invalid log level", "level", cfg.Logging.Level, "error", err)
		return
	}
	level.Set(l)
}

// startObservability starts the metrics endpoint and the trace exporter when
// configured. The returned function stops both.
func startObservability(ctx context.Context, cfg *config.Config) func() {
	var stops []func(context.Context) error

	if cfg.Metrics.Enabled {
		server := NewObservabilityServer(cfg.Metrics.Address)
		if err := server.Start(ctx); err != nil {
			slog.Warn("metrics server not started", "addr", cfg.Metrics.Address, "error", err)
		} else {
			stops = append(stops, server.Stop)
		}
	}

	if cfg.Tracing.Enabled {
		shutdown, err := observability.InitTracing(ctx, observability.TracingOptions{
			Endpoint: cfg.Tracing.Endpoint,
			Insecure: cfg.Tracing.Insecure,
		})
		if err != nil {
			slog.Warn("tracing not started", "endpoint", cfg.Tracing.Endpoint, "error", err)
		} else {
			stops = append(stops, shutdown)
		}
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, stop := range stops {
			if err := stop(ctx); err != nil {
				slog.Warn("observability shutdown failed", "error", err)
			}
		}
	}
}
