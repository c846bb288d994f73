// Package parser converts Python source into the ast package's model using
// tree-sitter. Only the syntax the analysis inspects is modelled; everything
// else becomes ast.Other or ast.OtherStmt with its node kind preserved.
package parser

import (
	"fmt"
	"time"

	"typewalk/internal/core/errors"
	"typewalk/internal/engine/ast"
	"typewalk/internal/shared/observability"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// SourceFile is one parsed Python file.
type SourceFile struct {
	Path         string
	Source       []byte
	Module       *ast.Module
	Annotations  []Annotation
	SyntaxErrors []ast.TextRange
	ParsedAt     time.Time
}

type AnnotationKind int

const (
	AnnotationVariable AnnotationKind = iota
	AnnotationParameter
	AnnotationReturn
)

func (k AnnotationKind) String() string {
	switch k {
	case AnnotationVariable:
		return "variable"
	case AnnotationParameter:
		return "parameter"
	case AnnotationReturn:
		return "return"
	default:
		return "unknown"
	}
}

// Annotation is a type expression written by the user: `x: T`, `def f(a: T)`
// or `def f() -> T`. Owner names the annotated variable, parameter or
// function. Class is the innermost enclosing class, empty at module level
// and in plain functions.
type Annotation struct {
	Kind  AnnotationKind
	Owner string
	Class string
	Expr  ast.Expr
}

// Text returns the source text covered by rng.
func (f *SourceFile) Text(rng ast.TextRange) string {
	if int(rng.End) > len(f.Source) || rng.Start > rng.End {
		return ""
	}
	return string(f.Source[rng.Start:rng.End])
}

func PythonLanguage() *sitter.Language {
	return sitter.NewLanguage(tree_sitter_python.Language())
}

// Frontend parses Python with a shared pool of tree-sitter parsers. It is
// safe for concurrent use.
type Frontend struct {
	pool *ParserPool
}

func NewFrontend() *Frontend {
	return &Frontend{pool: NewParserPool(PythonLanguage())}
}

// ParseModule parses a whole file. Syntax errors do not fail the parse: the
// offending regions are reported in SyntaxErrors and the rest of the file is
// still converted.
func (f *Frontend) ParseModule(path string, src []byte) (*SourceFile, error) {
	start := time.Now()
	defer func() { observability.ParsingDuration.Observe(time.Since(start).Seconds()) }()

	tree, err := f.pool.Parse(src)
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	defer tree.Close()

	root := tree.RootNode()
	c := newConverter(src)
	module := &ast.Module{
		Node: ast.Node{Span: ast.NewRange(0, ast.TextSize(len(src)))},
		Body: c.block(root),
	}

	file := &SourceFile{
		Path:        path,
		Source:      src,
		Module:      module,
		Annotations: CollectAnnotations(module),
		ParsedAt:    time.Now(),
	}
	if root.HasError() {
		file.SyntaxErrors = syntaxErrors(root)
	}
	return file, nil
}

// ParseExpr parses src as a single Python expression.
func (f *Frontend) ParseExpr(src string) (ast.Expr, error) {
	tree, err := f.pool.Parse([]byte(src))
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, errors.Newf(errors.CodeParseError, "invalid expression %q", src)
	}
	if root.NamedChildCount() != 1 {
		return nil, errors.Newf(errors.CodeParseError, "expected one expression, got %d statements", root.NamedChildCount())
	}
	stmt := root.NamedChild(0)
	if stmt.Kind() != "expression_statement" || stmt.NamedChildCount() != 1 {
		return nil, errors.New(errors.CodeParseError, fmt.Sprintf("expected an expression, got %s", stmt.Kind()))
	}
	c := newConverter([]byte(src))
	return c.expr(stmt.NamedChild(0)), nil
}

func syntaxErrors(root *sitter.Node) []ast.TextRange {
	var out []ast.TextRange
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.IsError() || n.IsMissing() {
			out = append(out, nodeRange(n))
			return
		}
		if !n.HasError() {
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return out
}

func nodeRange(n *sitter.Node) ast.TextRange {
	return ast.NewRange(ast.TextSize(n.StartByte()), ast.TextSize(n.EndByte()))
}
