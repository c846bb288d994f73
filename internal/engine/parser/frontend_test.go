package parser

import (
	"fmt"
	"math/big"
	"strings"
	"testing"

	"typewalk/internal/core/errors"
	"typewalk/internal/engine/ast"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `import os
from pkg.a import foo as bar

def f(a: int, *args: str, b: bytes = b"", **kw) -> None:
    """Docs."""
    return a

class C(Base, metaclass=Meta):
    x: int = 1

if cond:
    y = 1
else:
    y = 2
`

func TestParseModule_Statements(t *testing.T) {
	file, err := NewFrontend().ParseModule("sample.py", []byte(sample))
	require.NoError(t, err)
	assert.Empty(t, file.SyntaxErrors)
	require.Len(t, file.Module.Body, 5)

	imp, ok := file.Module.Body[0].(*ast.Import)
	require.True(t, ok)
	require.Len(t, imp.Names, 1)
	assert.Equal(t, "os", imp.Names[0].Name.ID)
	assert.Nil(t, imp.Names[0].AsName)
	assert.Equal(t, ast.TextSize(0), imp.Range().Start)

	from, ok := file.Module.Body[1].(*ast.ImportFrom)
	require.True(t, ok)
	assert.Equal(t, "pkg.a", from.Module)
	assert.Zero(t, from.Level)
	require.Len(t, from.Names, 1)
	assert.Equal(t, "foo", from.Names[0].Name.ID)
	require.NotNil(t, from.Names[0].AsName)
	assert.Equal(t, "bar", from.Names[0].AsName.ID)
	assert.Equal(t, "foo", file.Text(from.Names[0].Name.Range()))

	fn, ok := file.Module.Body[2].(*ast.FunctionDef)
	require.True(t, ok)
	assert.Equal(t, "f", fn.Name.ID)
	require.NotNil(t, fn.Docstring)
	assert.Equal(t, `"""Docs."""`, file.Text(*fn.Docstring))
	require.Len(t, fn.Params, 4)
	assert.Equal(t, []string{"a", "args", "b", "kw"}, paramNames(fn.Params))
	assert.Equal(t, []ast.ParamKind{ast.ParamPositional, ast.ParamVarArgs, ast.ParamKwOnly, ast.ParamKwargs}, paramKinds(fn.Params))
	assert.IsType(t, &ast.BytesLiteral{}, fn.Params[2].Default)
	assert.IsType(t, &ast.NoneLiteral{}, fn.Returns)

	cls, ok := file.Module.Body[3].(*ast.ClassDef)
	require.True(t, ok)
	assert.Equal(t, "C", cls.Name.ID)
	assert.Nil(t, cls.Docstring)
	require.Len(t, cls.Bases, 1)
	require.Len(t, cls.Keywords, 1)
	assert.Equal(t, "metaclass", cls.Keywords[0].Arg)
	require.Len(t, cls.Body, 1)
	assert.IsType(t, &ast.AnnAssign{}, cls.Body[0])

	branch, ok := file.Module.Body[4].(*ast.If)
	require.True(t, ok)
	require.Len(t, branch.Body, 1)
	require.Len(t, branch.Orelse, 1)
	assign, ok := branch.Orelse[0].(*ast.Assign)
	require.True(t, ok)
	assert.Equal(t, "y", assign.Targets[0].(*ast.Name).ID)
}

func TestParseModule_Annotations(t *testing.T) {
	file, err := NewFrontend().ParseModule("sample.py", []byte(sample))
	require.NoError(t, err)

	type site struct {
		kind  AnnotationKind
		owner string
		text  string
	}
	var got []site
	for _, a := range file.Annotations {
		got = append(got, site{a.Kind, a.Owner, file.Text(a.Expr.Range())})
	}
	assert.Equal(t, []site{
		{AnnotationParameter, "a", "int"},
		{AnnotationParameter, "args", "str"},
		{AnnotationParameter, "b", "bytes"},
		{AnnotationReturn, "f", "None"},
		{AnnotationVariable, "x", "int"},
	}, got)
}

func TestParseModule_SubscriptedAnnotations(t *testing.T) {
	tests := []struct {
		annotation string
		want       string
	}{
		{"Optional[int]", "Optional[int]"},
		{"Callable[[int], str]", "Callable[tuple([int], str)]"},
		{"Literal[1]", "Literal[1]"},
		{"Literal[1,]", "Literal[tuple(1)]"},
		{"tuple[int, ...]", "tuple[tuple(int, ...)]"},
		{"list[T]", "list[T]"},
		{"type[Box]", "type[Box]"},
		{"dict[str, list[int]]", "dict[tuple(str, list[int])]"},
		{"Tuple[int, *Ts]", "Tuple[tuple(int, *Ts)]"},
		{"typing.Optional[int]", "typing.Optional[int]"},
		{"list[int] | None", "list[int] | None"},
	}
	positions := []struct {
		name   string
		kind   AnnotationKind
		source func(annotation string) string
	}{
		{"variable", AnnotationVariable, func(a string) string { return "x: " + a + " = None\n" }},
		{"parameter", AnnotationParameter, func(a string) string { return "def f(a: " + a + "): pass\n" }},
		{"return", AnnotationReturn, func(a string) string { return "def f() -> " + a + ": pass\n" }},
	}
	frontend := NewFrontend()
	for _, pos := range positions {
		for _, tt := range tests {
			t.Run(pos.name+"/"+tt.annotation, func(t *testing.T) {
				file, err := frontend.ParseModule("a.py", []byte(pos.source(tt.annotation)))
				require.NoError(t, err)
				require.Empty(t, file.SyntaxErrors)
				require.Len(t, file.Annotations, 1)

				a := file.Annotations[0]
				assert.Equal(t, pos.kind, a.Kind)
				assert.Equal(t, tt.annotation, file.Text(a.Expr.Range()))
				assert.Equal(t, tt.want, exprShape(a.Expr))
			})
		}
	}
}

func TestParseModule_SubscriptedAnnotationRanges(t *testing.T) {
	src := "x: Callable[[int], str] = f\n"
	file, err := NewFrontend().ParseModule("a.py", []byte(src))
	require.NoError(t, err)
	require.Len(t, file.Annotations, 1)

	sub, ok := file.Annotations[0].Expr.(*ast.Subscript)
	require.True(t, ok)
	assert.Equal(t, "Callable", file.Text(sub.Value.Range()))
	slice, ok := sub.Slice.(*ast.Tuple)
	require.True(t, ok)
	assert.False(t, slice.Parenthesized)
	assert.Equal(t, "[int], str", file.Text(slice.Range()))
	assert.Equal(t, "int", file.Text(slice.Elts[0].(*ast.List).Elts[0].Range()))
}

// exprShape renders the structure of an expression in annotation syntax.
// Tuples are spelled out so that slices can be told apart from single
// arguments.
func exprShape(e ast.Expr) string {
	join := func(elts []ast.Expr) string {
		parts := make([]string, len(elts))
		for i, elt := range elts {
			parts[i] = exprShape(elt)
		}
		return strings.Join(parts, ", ")
	}
	switch x := e.(type) {
	case *ast.Name:
		return x.ID
	case *ast.Attribute:
		return exprShape(x.Value) + "." + x.Attr.ID
	case *ast.Subscript:
		return exprShape(x.Value) + "[" + exprShape(x.Slice) + "]"
	case *ast.Tuple:
		if x.Parenthesized {
			return "ptuple(" + join(x.Elts) + ")"
		}
		return "tuple(" + join(x.Elts) + ")"
	case *ast.List:
		return "[" + join(x.Elts) + "]"
	case *ast.Starred:
		return "*" + exprShape(x.Value)
	case *ast.EllipsisLiteral:
		return "..."
	case *ast.IntLiteral:
		return x.Value.String()
	case *ast.NoneLiteral:
		return "None"
	case *ast.BinOp:
		return exprShape(x.Left) + " " + x.Op + " " + exprShape(x.Right)
	default:
		return fmt.Sprintf("%T", e)
	}
}

func TestParseModule_NestedBlocks(t *testing.T) {
	src := "for i in range(3):\n    z: list[int] = []\nelse:\n    w: str = ''\n"
	file, err := NewFrontend().ParseModule("loop.py", []byte(src))
	require.NoError(t, err)

	require.Len(t, file.Module.Body, 1)
	loop, ok := file.Module.Body[0].(*ast.OtherStmt)
	require.True(t, ok)
	assert.Equal(t, "for_statement", loop.Kind)
	require.Len(t, file.Annotations, 2)
	assert.Equal(t, "z", file.Annotations[0].Owner)
	assert.Equal(t, "w", file.Annotations[1].Owner)
}

func TestParseModule_AnnotationsRecordEnclosingClass(t *testing.T) {
	src := "class C:\n    x: int\n    def m(self, o: 'C') -> None:\n        y: str = ''\ndef f(a: int): pass\n"
	file, err := NewFrontend().ParseModule("c.py", []byte(src))
	require.NoError(t, err)

	var classes []string
	for _, a := range file.Annotations {
		classes = append(classes, a.Owner+"@"+a.Class)
	}
	assert.Equal(t, []string{"x@C", "o@C", "m@C", "y@C", "a@"}, classes)
}

func TestParseModule_ChainedAndAugmentedAssignment(t *testing.T) {
	file, err := NewFrontend().ParseModule("a.py", []byte("a = b = 1\nc += 2\nd.e[0] = 3\n"))
	require.NoError(t, err)
	require.Len(t, file.Module.Body, 3)

	chained := file.Module.Body[0].(*ast.Assign)
	require.Len(t, chained.Targets, 2)
	assert.Equal(t, "a", chained.Targets[0].(*ast.Name).ID)
	assert.Equal(t, "b", chained.Targets[1].(*ast.Name).ID)
	assert.IsType(t, &ast.IntLiteral{}, chained.Value)

	aug := file.Module.Body[1].(*ast.AugAssign)
	assert.Equal(t, "+=", aug.Op)

	store := file.Module.Body[2].(*ast.Assign)
	sub, ok := store.Targets[0].(*ast.Subscript)
	require.True(t, ok)
	base, ok := ast.ChainBase(sub)
	require.True(t, ok)
	assert.Equal(t, "d", base.ID)
}

func TestParseModule_RelativeAndWildcardImports(t *testing.T) {
	file, err := NewFrontend().ParseModule("r.py", []byte("from ..pkg import x\nfrom . import y\nfrom os import *\n"))
	require.NoError(t, err)
	require.Len(t, file.Module.Body, 3)

	first := file.Module.Body[0].(*ast.ImportFrom)
	assert.Equal(t, 2, first.Level)
	assert.Equal(t, "pkg", first.Module)

	second := file.Module.Body[1].(*ast.ImportFrom)
	assert.Equal(t, 1, second.Level)
	assert.Equal(t, "", second.Module)
	assert.Equal(t, "y", second.Names[0].Name.ID)

	third := file.Module.Body[2].(*ast.ImportFrom)
	require.Len(t, third.Names, 1)
	assert.Equal(t, "*", third.Names[0].Name.ID)
}

func TestParseModule_DecoratedDefinitions(t *testing.T) {
	file, err := NewFrontend().ParseModule("d.py", []byte("@dataclass\nclass P:\n    '''Point.'''\n    x: int\n"))
	require.NoError(t, err)
	require.Len(t, file.Module.Body, 1)

	cls := file.Module.Body[0].(*ast.ClassDef)
	assert.Equal(t, "P", cls.Name.ID)
	require.Len(t, cls.Decorators, 1)
	assert.Equal(t, "dataclass", cls.Decorators[0].(*ast.Name).ID)
	require.NotNil(t, cls.Docstring)
	assert.Equal(t, "'''Point.'''", file.Text(*cls.Docstring))
}

func TestParseModule_SyntaxErrorsAreReported(t *testing.T) {
	file, err := NewFrontend().ParseModule("bad.py", []byte("def f(:\n    pass\nx: int = 1\n"))
	require.NoError(t, err)
	assert.NotEmpty(t, file.SyntaxErrors)
}

func TestParseModule_CommentOnlyFile(t *testing.T) {
	src := "# nothing here\n"
	file, err := NewFrontend().ParseModule("empty.py", []byte(src))
	require.NoError(t, err)
	assert.Empty(t, file.Module.Body)
	assert.Equal(t, ast.NewRange(0, ast.TextSize(len(src))), file.Module.Range())
}

func TestParseExpr_Subscripts(t *testing.T) {
	f := NewFrontend()

	t.Run("single argument", func(t *testing.T) {
		expr, err := f.ParseExpr("Optional[int]")
		require.NoError(t, err)
		sub := expr.(*ast.Subscript)
		assert.Equal(t, "Optional", sub.Value.(*ast.Name).ID)
		assert.Equal(t, "int", sub.Slice.(*ast.Name).ID)
	})

	t.Run("bare tuple", func(t *testing.T) {
		expr, err := f.ParseExpr("Callable[[int, str], bool]")
		require.NoError(t, err)
		slice, ok := expr.(*ast.Subscript).Slice.(*ast.Tuple)
		require.True(t, ok)
		assert.False(t, slice.Parenthesized)
		require.Len(t, slice.Elts, 2)
		params, ok := slice.Elts[0].(*ast.List)
		require.True(t, ok)
		assert.Len(t, params.Elts, 2)
		assert.Equal(t, ast.NewRange(9, 25), slice.Range())
	})

	t.Run("parenthesized tuple", func(t *testing.T) {
		expr, err := f.ParseExpr("Literal[(1, 2)]")
		require.NoError(t, err)
		slice, ok := expr.(*ast.Subscript).Slice.(*ast.Tuple)
		require.True(t, ok)
		assert.True(t, slice.Parenthesized)
		assert.Len(t, slice.Elts, 2)
	})

	t.Run("literal arguments", func(t *testing.T) {
		expr, err := f.ParseExpr(`Literal[-1, 'a\n', b"x", True, None, 0x1F, Color.RED]`)
		require.NoError(t, err)
		elts := expr.(*ast.Subscript).Slice.(*ast.Tuple).Elts
		require.Len(t, elts, 7)

		neg := elts[0].(*ast.UnaryOp)
		assert.Equal(t, ast.USub, neg.Op)
		assert.Equal(t, 0, neg.Operand.(*ast.IntLiteral).Value.Cmp(big.NewInt(1)))
		assert.Equal(t, "a\n", elts[1].(*ast.StringLiteral).Value)
		assert.Equal(t, []byte("x"), elts[2].(*ast.BytesLiteral).Value)
		assert.True(t, elts[3].(*ast.BooleanLiteral).Value)
		assert.IsType(t, &ast.NoneLiteral{}, elts[4])
		assert.Equal(t, int64(31), elts[5].(*ast.IntLiteral).Value.Int64())
		assert.Equal(t, "Color.RED", ast.DottedName(elts[6]))
	})

	t.Run("ellipsis and union operator", func(t *testing.T) {
		expr, err := f.ParseExpr("Tuple[int, ...] | None")
		require.NoError(t, err)
		bin := expr.(*ast.BinOp)
		assert.Equal(t, "|", bin.Op)
		slice := bin.Left.(*ast.Subscript).Slice.(*ast.Tuple)
		assert.IsType(t, &ast.EllipsisLiteral{}, slice.Elts[1])
	})
}

func TestParseExpr_Errors(t *testing.T) {
	f := NewFrontend()
	for _, src := range []string{"x = ", "a\nb", "import os"} {
		_, err := f.ParseExpr(src)
		require.Error(t, err, "source %q", src)
		assert.True(t, errors.IsCode(err, errors.CodeParseError))
	}
}

func TestUnescapePython(t *testing.T) {
	tests := []struct {
		in      string
		isBytes bool
		want    string
	}{
		{`plain`, false, "plain"},
		{`a\nb\tc`, false, "a\nb\tc"},
		{`q\'s\"`, false, `q's"`},
		{`\x41\101`, false, "AA"},
		{`\u00e9`, false, "é"},
		{`\u00e9`, true, `\u00e9`},
		{`\xff`, true, "\xff"},
		{`\d`, false, `\d`},
		{"line\\\ncontinued", false, "linecontinued"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, unescapePython(tt.in, tt.isBytes), "input %q", tt.in)
	}
}

func paramNames(params []ast.Parameter) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = p.Name.ID
	}
	return out
}

func paramKinds(params []ast.Parameter) []ast.ParamKind {
	out := make([]ast.ParamKind, len(params))
	for i, p := range params {
		out[i] = p.Kind
	}
	return out
}
