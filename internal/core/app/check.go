package app

import (
	"bytes"
	"cmp"
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"typewalk/internal/core/errors"
	"typewalk/internal/core/ports"
	"typewalk/internal/engine/ast"
	"typewalk/internal/engine/diagnostics"
	"typewalk/internal/engine/parser"
	"typewalk/internal/engine/typeeval"
	"typewalk/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

type fileResult struct {
	annotations int
	diagnostics []ports.FileDiagnostic
}

// CheckFiles evaluates every annotation in paths, in parallel up to the
// configured worker count. Files that no longer exist are skipped; any other
// failure aborts the run.
func (s *Session) CheckFiles(ctx context.Context, paths []string) (*ports.CheckReport, error) {
	ctx, span := observability.Tracer.Start(ctx, "Session.CheckFiles", trace.WithAttributes(
		attribute.String("session", s.ID),
		attribute.Int("files", len(paths)),
	))
	defer span.End()

	results := make([]fileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Analysis.Workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := s.checkFile(gctx, filepath.Clean(path))
			if err != nil {
				if errors.IsCode(err, errors.CodeNotFound) {
					slog.Debug("skipping vanished file", "path", path)
					return nil
				}
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "check failed")
		return nil, errors.AddContext(err, errors.CtxOperation, "check_files")
	}

	report := &ports.CheckReport{SessionID: s.ID, Files: len(paths)}
	for _, res := range results {
		report.Annotations += res.annotations
		report.Diagnostics = append(report.Diagnostics, res.diagnostics...)
	}
	slices.SortStableFunc(report.Diagnostics, compareDiagnostics)
	span.SetAttributes(attribute.Int("diagnostics", len(report.Diagnostics)))
	slog.Debug("check finished", "session", s.ID, "files", report.Files, "diagnostics", len(report.Diagnostics), "stats", s.Stats())
	return report, nil
}

func (s *Session) checkFile(ctx context.Context, path string) (fileResult, error) {
	_, span := observability.Tracer.Start(ctx, "Session.checkFile", trace.WithAttributes(attribute.String("path", path)))
	defer span.End()
	start := time.Now()
	defer func() { observability.FileCheckDuration.Observe(since(start)) }()

	file, err := s.parse(path)
	if err != nil {
		return fileResult{}, err
	}

	errs := diagnostics.NewCollector(path)
	for _, rng := range file.SyntaxErrors {
		errs.Add(rng, diagnostics.InvalidSyntax, "Parse error: invalid syntax")
	}

	eval := typeeval.New(moduleName(path), s.frontend)
	eval.Declare(file.Module, errs)
	for _, annotation := range file.Annotations {
		if annotation.Kind == parser.AnnotationVariable && eval.IsTypeAlias(annotation.Expr) {
			// Declare already evaluated the aliased value.
			continue
		}
		if annotation.Class != "" {
			eval.WithSelf(annotation.Class).Untype(annotation.Expr, errs)
			continue
		}
		eval.Untype(annotation.Expr, errs)
	}

	found := errs.Diagnostics()
	out := make([]ports.FileDiagnostic, len(found))
	for i, d := range found {
		line, column := Position(file.Source, d.Range.Start)
		out[i] = ports.FileDiagnostic{Path: path, Line: line, Column: column, Diagnostic: d}
	}
	return fileResult{annotations: len(file.Annotations), diagnostics: out}, nil
}

// Position converts a byte offset into a 1-based line and column.
func Position(src []byte, offset ast.TextSize) (int, int) {
	end := min(int(offset), len(src))
	line := bytes.Count(src[:end], []byte{'\n'}) + 1
	lineStart := bytes.LastIndexByte(src[:end], '\n') + 1
	return line, end - lineStart + 1
}

func compareDiagnostics(a, b ports.FileDiagnostic) int {
	return cmp.Or(
		strings.Compare(a.Path, b.Path),
		cmp.Compare(a.Range.Start, b.Range.Start),
		cmp.Compare(a.Kind, b.Kind),
	)
}
