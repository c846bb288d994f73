// Package app wires the analysis engine into a long-lived session: parsed
// files, binding graphs and definition answers are cached across requests
// until invalidated.
package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"typewalk/internal/core/config"
	"typewalk/internal/core/errors"
	"typewalk/internal/core/ports"
	"typewalk/internal/engine/ast"
	"typewalk/internal/engine/binder"
	"typewalk/internal/engine/lockedmap"
	"typewalk/internal/engine/parser"
	"typewalk/internal/engine/resolver"
	"typewalk/internal/shared/observability"
	"typewalk/internal/shared/util"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type parsedFile struct {
	file *parser.SourceFile
	err  error
}

type boundModule struct {
	module *binder.Module
	err    error
}

type definitionQuery struct {
	path   string
	offset ast.TextSize
}

type definitionAnswer struct {
	def resolver.IntermediateDefinition
	ok  bool
}

// Session is safe for concurrent use. Cached results, errors included, stay
// until Invalidate.
type Session struct {
	ID string

	cfg      *config.Config
	frontend *parser.Frontend
	matcher  *config.Matcher
	finder   *resolver.DefinitionFinder

	files       *lockedmap.Map[string, parsedFile]
	bindings    *lockedmap.Map[string, boundModule]
	definitions *lockedmap.Map[definitionQuery, definitionAnswer]
}

var _ ports.AnalysisService = (*Session)(nil)

func New(cfg *config.Config) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	matcher, err := cfg.Paths.Matcher()
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "compile path patterns"), errors.CtxSection, "paths")
	}
	s := &Session{
		ID:          uuid.NewString(),
		cfg:         cfg,
		frontend:    parser.NewFrontend(),
		matcher:     matcher,
		finder:      resolver.NewDefinitionFinder(cfg.Analysis.Gas),
		files:       lockedmap.NewStringMap[parsedFile](lockedmap.WithMetrics()),
		bindings:    lockedmap.NewStringMap[boundModule](lockedmap.WithMetrics()),
		definitions: lockedmap.New[definitionQuery, definitionAnswer](lockedmap.WithMetrics()),
	}
	slog.Debug("session created", "session", s.ID, "workers", cfg.Analysis.Workers, "gas", cfg.Analysis.Gas)
	return s, nil
}

func (s *Session) parse(path string) (*parser.SourceFile, error) {
	entry := s.files.Ensure(path, func() parsedFile {
		src, err := os.ReadFile(path)
		if err != nil {
			code := errors.CodeInternal
			if os.IsNotExist(err) {
				code = errors.CodeNotFound
			}
			return parsedFile{err: errors.AddContext(errors.Wrap(err, code, "read source"), errors.CtxPath, path)}
		}
		file, err := s.frontend.ParseModule(path, src)
		return parsedFile{file: file, err: err}
	})
	return entry.file, entry.err
}

func (s *Session) bind(path string) (*binder.Module, error) {
	file, err := s.parse(path)
	if err != nil {
		return nil, err
	}
	entry := s.bindings.Ensure(path, func() boundModule {
		module, err := binder.Bind(moduleName(path), file.Module)
		if err != nil {
			err = errors.AddContext(err, errors.CtxPath, path)
		}
		return boundModule{module: module, err: err}
	})
	return entry.module, entry.err
}

// Definition answers "go to definition" for the name at offset in path. A
// position that is not on a name, or a name that cannot be followed to a
// definition, gives false without an error.
func (s *Session) Definition(ctx context.Context, path string, offset ast.TextSize) (resolver.IntermediateDefinition, bool, error) {
	ctx, span := observability.Tracer.Start(ctx, "Session.Definition", trace.WithAttributes(
		attribute.String("path", path),
		attribute.Int("offset", int(offset)),
	))
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	path = filepath.Clean(path)
	module, err := s.bind(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "bind failed")
		return nil, false, errors.AddContext(err, errors.CtxOperation, "definition")
	}

	answer := s.definitions.Ensure(definitionQuery{path: path, offset: offset}, func() definitionAnswer {
		key, ok := module.UsageAt(offset)
		if !ok {
			slog.Debug("no name at offset", "path", path, "offset", offset)
			return definitionAnswer{}
		}
		def, ok := s.finder.KeyToIntermediateDefinition(module.Bindings, key)
		return definitionAnswer{def: def, ok: ok}
	})
	span.SetAttributes(attribute.Bool("found", answer.ok))
	return answer.def, answer.ok, nil
}

// AddImport returns the insertion point and text that import name from
// module into the file at path.
func (s *Session) AddImport(ctx context.Context, path, module, name string) (ast.TextSize, string, error) {
	if err := ctx.Err(); err != nil {
		return 0, "", err
	}
	module = strings.TrimSpace(module)
	name = strings.TrimSpace(name)
	if module == "" || name == "" {
		return 0, "", errors.New(errors.CodeValidationError, "module and name are required")
	}
	file, err := s.parse(filepath.Clean(path))
	if err != nil {
		return 0, "", errors.AddContext(err, errors.CtxOperation, "add_import")
	}
	position, text := resolver.InsertImportEdit(file.Module, module, name)
	return position, text, nil
}

// Invalidate drops cached results after paths changed. The caches are
// cleared wholesale since a change to one module can alter answers for any
// file that imports it.
func (s *Session) Invalidate(paths ...string) {
	slog.Debug("invalidating caches", "session", s.ID, "changed", len(paths),
		"files", s.files.Len(), "bindings", s.bindings.Len(), "definitions", s.definitions.Len())
	s.files.Clear()
	s.bindings.Clear()
	s.definitions.Clear()
}

// Stats is a point-in-time view of a session's caches.
type Stats struct {
	Files       int
	Bindings    int
	Definitions int
	Memory      util.MemorySnapshot
}

func (st Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("files", st.Files),
		slog.Int("bindings", st.Bindings),
		slog.Int("definitions", st.Definitions),
		slog.Any("memory", st.Memory),
	)
}

// Stats reports cache sizes and heap use for debug logging.
func (s *Session) Stats() Stats {
	return Stats{
		Files:       s.files.Len(),
		Bindings:    s.bindings.Len(),
		Definitions: s.definitions.Len(),
		Memory:      util.ReadMemory(),
	}
}

// moduleName derives a module name from a file path: the file
// stem, or the directory name for a package's __init__.
func moduleName(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "__init__" {
		return filepath.Base(filepath.Dir(path))
	}
	return stem
}

func since(start time.Time) float64 {
	return time.Since(start).Seconds()
}
