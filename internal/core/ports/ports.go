// Package ports declares the seams between the driving adapters (the CLI,
// the watcher) and the analysis core.
package ports

import (
	"context"

	"typewalk/internal/engine/ast"
	"typewalk/internal/engine/diagnostics"
	"typewalk/internal/engine/parser"
	"typewalk/internal/engine/resolver"
)

// SourceParser abstracts turning Python source into the ast model.
type SourceParser interface {
	ParseModule(path string, src []byte) (*parser.SourceFile, error)
	ParseExpr(src string) (ast.Expr, error)
}

// FileDiagnostic is a diagnostic placed in a file, with a 1-based line and
// column for display.
type FileDiagnostic struct {
	Path   string
	Line   int
	Column int
	diagnostics.Diagnostic
}

// CheckReport summarizes one CheckFiles run.
type CheckReport struct {
	SessionID   string
	Files       int
	Annotations int
	Diagnostics []FileDiagnostic
}

// AnalysisService is the operation surface the CLI drives.
type AnalysisService interface {
	CheckFiles(ctx context.Context, paths []string) (*CheckReport, error)
	Definition(ctx context.Context, path string, offset ast.TextSize) (resolver.IntermediateDefinition, bool, error)
	AddImport(ctx context.Context, path, module, name string) (ast.TextSize, string, error)
	Discover(root string) ([]string, error)
	Invalidate(paths ...string)
}
