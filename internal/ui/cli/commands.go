package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	coreapp "typewalk/internal/core/app"
	"typewalk/internal/core/config"
	"typewalk/internal/core/ports"
	"typewalk/internal/core/watcher"
	"typewalk/internal/engine/ast"
	"typewalk/internal/engine/resolver"
)

// Exit codes: problems found in the checked code are distinct from failing
// to run at all.
const (
	exitOK       = 0
	exitProblems = 1
	exitFailure  = 2
)

// discoverAll expands roots into the files to check, without duplicates.
func discoverAll(service ports.AnalysisService, roots []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, root := range roots {
		found, err := service.Discover(root)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}
	return files, nil
}

func runCheck(ctx context.Context, service ports.AnalysisService, roots []string, stdout, stderr io.Writer) int {
	files, err := discoverAll(service, roots)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return exitFailure
	}
	report, err := service.CheckFiles(ctx, files)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return exitFailure
	}
	printReport(stdout, report)
	if len(report.Diagnostics) > 0 {
		return exitProblems
	}
	return exitOK
}

func printReport(w io.Writer, report *ports.CheckReport) {
	files := make(map[string]bool)
	for _, d := range report.Diagnostics {
		files[d.Path] = true
		fmt.Fprintf(w, "%s:%d:%d: error: %s [%s]\n", d.Path, d.Line, d.Column, d.Message, d.Kind)
	}
	if len(report.Diagnostics) == 0 {
		fmt.Fprintf(w, "Success: no issues found in %d files\n", report.Files)
		return
	}
	fmt.Fprintf(w, "Found %d errors in %d files (checked %d files)\n", len(report.Diagnostics), len(files), report.Files)
}

func runDefinition(ctx context.Context, service ports.AnalysisService, args []string, stdout, stderr io.Writer) int {
	path := args[0]
	offset, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		fmt.Fprintf(stderr, "invalid offset %q: must be a non-negative byte offset\n", args[1])
		return exitFailure
	}

	def, ok, err := service.Definition(ctx, path, ast.TextSize(offset))
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return exitFailure
	}
	if !ok {
		fmt.Fprintln(stdout, "no definition found")
		return exitProblems
	}

	switch d := def.(type) {
	case resolver.LocalDefinition:
		kind := "symbol"
		if d.Export.SymbolKind != nil {
			kind = d.Export.SymbolKind.String()
		}
		fmt.Fprintf(stdout, "%s: %s\n", location(path, d.Export.Location), kind)
		if d.Export.DocstringRange != nil {
			fmt.Fprintf(stdout, "%s: docstring\n", location(path, *d.Export.DocstringRange))
		}
	case resolver.NamedImportDefinition:
		fmt.Fprintf(stdout, "%s: import %s from %s\n", location(path, d.UseRange), d.Name, d.Module)
	case resolver.ModuleDefinition:
		fmt.Fprintf(stdout, "module %s\n", d.Module)
	}
	return exitOK
}

// location renders rng as path:line:column. The file is re-read; when that
// fails the raw offset is shown instead.
func location(path string, rng ast.TextRange) string {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("%s@%d", path, rng.Start)
	}
	line, column := coreapp.Position(src, rng.Start)
	return fmt.Sprintf("%s:%d:%d", path, line, column)
}

func runAddImport(ctx context.Context, service ports.AnalysisService, args []string, stdout, stderr io.Writer) int {
	position, text, err := service.AddImport(ctx, args[0], args[1], args[2])
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return exitFailure
	}
	fmt.Fprintf(stdout, "%d\t%s", position, text)
	return exitOK
}

// watch re-checks the roots whenever a matching file changes and follows
// edits to the config file's log level, until ctx is done.
func watch(ctx context.Context, service ports.AnalysisService, cfg *config.Config, cfgPath string, level *slog.LevelVar, opts cliOptions, stdout, stderr io.Writer) error {
	matcher, err := cfg.Paths.Matcher()
	if err != nil {
		return err
	}

	recheck := func(changed []string) error {
		slog.Info("files changed", "count", len(changed))
		service.Invalidate(changed...)
		files, err := discoverAll(service, opts.args)
		if err != nil {
			return err
		}
		report, err := service.CheckFiles(ctx, files)
		if err != nil {
			return err
		}
		printReport(stdout, report)
		return nil
	}

	for _, root := range opts.args {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			continue
		}
		w, err := watcher.New(root, matcher, cfg.Watch, recheck)
		if err != nil {
			return err
		}
		defer w.Close()
		if err := w.Start(); err != nil {
			return err
		}
		slog.Info("watching", "root", root)
	}

	if cfgPath != "" {
		cw := config.NewWatcher(cfgPath, func(next *config.Config) {
			applyLogLevel(level, next, opts.verbose)
		})
		if err := cw.Start(ctx); err != nil {
			slog.Warn("config watcher not started", "path", cfgPath, "error", err)
		} else {
			defer cw.Stop()
		}
	}

	<-ctx.Done()
	fmt.Fprintln(stderr, "stopping")
	return nil
}
