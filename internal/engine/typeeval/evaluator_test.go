package typeeval

import (
	"math/big"
	"sync"
	"testing"

	"typewalk/internal/engine/ast"
	"typewalk/internal/engine/diagnostics"
	"typewalk/internal/engine/parser"
	"typewalk/internal/engine/types"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const prelude = `from typing import *
from enum import Enum
import typing as t

T = TypeVar("T")
Ts = TypeVarTuple("Ts")
P = ParamSpec("P")

class Color(Enum):
    RED = 1
    GREEN = 2
    _ignore_ = []

class Box:
    pass

IntOrStr: TypeAlias = int | str
One = Literal[1]
x = 1
`

var typeOpts = cmp.Options{
	cmp.Comparer(func(a, b *big.Int) bool {
		if a == nil || b == nil {
			return a == b
		}
		return a.Cmp(b) == 0
	}),
	cmpopts.EquateEmpty(),
}

func newEvaluator(t *testing.T, src string) (*Evaluator, *parser.Frontend) {
	t.Helper()
	frontend := parser.NewFrontend()
	file, err := frontend.ParseModule("m.py", []byte(src))
	require.NoError(t, err)
	require.Empty(t, file.SyntaxErrors)

	e := New("m", frontend)
	errs := diagnostics.NewCollector("m.py")
	e.Declare(file.Module, errs)
	require.Zero(t, errs.Len(), "declaration diagnostics: %v", errs.Diagnostics())
	return e, frontend
}

func class(t *testing.T, e *Evaluator, name string) *types.Class {
	t.Helper()
	v, ok := e.lookup(name)
	require.True(t, ok, "name %s", name)
	def, ok := v.(*types.ClassDef)
	require.True(t, ok, "%s is %T", name, v)
	return def.Class
}

func builtin(name string) types.Type {
	c, _ := BuiltinClass(name)
	return types.Instance(c)
}

func TestUntype_Valid(t *testing.T) {
	e, frontend := newEvaluator(t, prelude)
	box := types.Instance(class(t, e, "Box"))
	color := class(t, e, "Color")

	tests := []struct {
		src  string
		want types.Type
	}{
		{"int", builtin("int")},
		{"None", &types.None{}},
		{"Optional[int]", &types.Union{Members: []types.Type{builtin("int"), &types.None{}}}},
		{"int | None", &types.Union{Members: []types.Type{builtin("int"), &types.None{}}}},
		{"t.Optional[str]", &types.Union{Members: []types.Type{builtin("str"), &types.None{}}}},
		{"Union[int, str, int]", &types.Union{Members: []types.Type{builtin("int"), builtin("str")}}},
		{"Tuple[int, ...]", types.UnboundedTuple(builtin("int"))},
		{"tuple[int, str]", types.ConcreteTuple([]types.Type{builtin("int"), builtin("str")})},
		{"Tuple[int, Unpack[Ts]]", types.UnpackedTuple([]types.Type{builtin("int")}, &types.TypeVarTuple{Name: "Ts"}, nil)},
		{"Literal[Color.RED, 1]", &types.Union{Members: []types.Type{
			types.EnumLit(color, "RED").ToType(),
			types.IntLit64(1).ToType(),
		}}},
		{"Callable[P, int]", types.CallableParamSpec(&types.ParamSpec{Name: "P"}, builtin("int"))},
		{"Callable[..., int]", types.CallableEllipsis(builtin("int"))},
		{"Type[Box]", types.TypeFormOf(box)},
		{"type[Box]", types.TypeFormOf(box)},
		{"list[int]", types.Instance(builtinClasses["list"], builtin("int"))},
		{"IntOrStr", &types.Union{Members: []types.Type{builtin("int"), builtin("str")}}},
		{"One", types.IntLit64(1).ToType()},
		{"'Box'", box},
		{"T", &types.TypeVar{Name: "T"}},
		{"Annotated[int, 'meta']", builtin("int")},
		{"Never", &types.Never{}},
		{"Any", types.AnyExplicitType()},
		{"Tuple", types.UnboundedTuple(types.AnyImplicitType())},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			expr, err := frontend.ParseExpr(tt.src)
			require.NoError(t, err)
			errs := diagnostics.NewCollector("m.py")

			got := e.Untype(expr, errs)
			assert.Zero(t, errs.Len(), "diagnostics: %v", errs.Diagnostics())
			if diff := cmp.Diff(tt.want, got, typeOpts); diff != "" {
				t.Errorf("type mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUntype_Errors(t *testing.T) {
	e, frontend := newEvaluator(t, prelude)

	tests := []struct {
		src  string
		kind diagnostics.ErrorKind
		msg  string
		rng  ast.TextRange
	}{
		{"Missing", diagnostics.UnknownName, "Could not find name `Missing`", ast.NewRange(0, 7)},
		{"x", diagnostics.InvalidAnnotation, "Expected a type form, got `Literal[1]`", ast.NewRange(0, 1)},
		{"Optional", diagnostics.InvalidAnnotation, "Expected a type argument for `Optional`", ast.NewRange(0, 8)},
		{"Self", diagnostics.InvalidAnnotation, "`Self` is not allowed in this context", ast.NewRange(0, 4)},
		{"3", diagnostics.InvalidAnnotation, "Invalid expression form for type annotation", ast.NewRange(0, 1)},
		{"x[int]", diagnostics.InvalidAnnotation, "`x` is not subscriptable", ast.NewRange(0, 6)},
		{"Optional['Nope']", diagnostics.UnknownName, "Could not find name `Nope`", ast.NewRange(9, 15)},
		{"'1 +'", diagnostics.InvalidAnnotation, "Could not parse type string: 1 +", ast.NewRange(0, 5)},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			expr, err := frontend.ParseExpr(tt.src)
			require.NoError(t, err)
			errs := diagnostics.NewCollector("m.py")

			got := e.Untype(expr, errs)
			require.Equal(t, 1, errs.Len(), "diagnostics: %v", errs.Diagnostics())
			d := errs.Diagnostics()[0]
			assert.Equal(t, tt.kind, d.Kind)
			assert.Equal(t, tt.msg, d.Message)
			assert.Equal(t, tt.rng, d.Range)
			// The substitute is an error Any, possibly under an Optional.
			assert.Contains(t, got.String(), "Unknown")
		})
	}
}

func TestDeclare_Enums(t *testing.T) {
	e, _ := newEvaluator(t, prelude)

	color := class(t, e, "Color")
	assert.Equal(t, []string{"RED", "GREEN"}, color.EnumMembers)
	assert.False(t, class(t, e, "Box").IsEnum())

	lit, ok := e.GetEnumMember(color, "GREEN")
	require.True(t, ok)
	assert.Equal(t, "Color.GREEN", lit.String())
	_, ok = e.GetEnumMember(color, "BLUE")
	assert.False(t, ok)
}

func TestDeclare_TypeAliasReportsProblems(t *testing.T) {
	frontend := parser.NewFrontend()
	file, err := frontend.ParseModule("m.py", []byte("from typing import TypeAlias\nBad: TypeAlias = Missing\n"))
	require.NoError(t, err)

	e := New("m", frontend)
	errs := diagnostics.NewCollector("m.py")
	e.Declare(file.Module, errs)

	require.Equal(t, 1, errs.Len())
	assert.Equal(t, diagnostics.UnknownName, errs.Diagnostics()[0].Kind)
}

func TestDeclare_LaterBindingWins(t *testing.T) {
	src := "from typing import Optional\nif flag:\n    X = int\nelse:\n    X = str\n"
	e, frontend := newEvaluator(t, src)

	expr, err := frontend.ParseExpr("Optional[X]")
	require.NoError(t, err)
	errs := diagnostics.NewCollector("m.py")
	got := e.Untype(expr, errs)
	assert.Zero(t, errs.Len())
	assert.Equal(t, "str | None", got.String())
}

func TestDeclare_UnknownImportsAreOpaque(t *testing.T) {
	e, frontend := newEvaluator(t, "from elsewhere import Thing\nimport os.path\n")

	for _, src := range []string{"Thing", "Thing[int]", "os.PathLike"} {
		expr, err := frontend.ParseExpr(src)
		require.NoError(t, err)
		errs := diagnostics.NewCollector("m.py")
		got := e.Untype(expr, errs)
		assert.Zero(t, errs.Len(), "source %q", src)
		assert.Equal(t, types.AnyImplicitType(), got, "source %q", src)
	}
}

func TestUntype_ConcurrentUse(t *testing.T) {
	e, frontend := newEvaluator(t, prelude)
	expr, err := frontend.ParseExpr("Callable[[int, Unpack[Ts]], Optional[Box]]")
	require.NoError(t, err)

	const goroutines = 16
	results := make([]string, goroutines)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			errs := diagnostics.NewCollector("m.py")
			results[i] = e.Untype(expr, errs).String()
		}()
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, results[0], got)
	}
	assert.NotContains(t, results[0], "Unknown")
}

func TestWithSelf(t *testing.T) {
	e, frontend := newEvaluator(t, prelude)
	box := types.Instance(class(t, e, "Box"))

	expr, err := frontend.ParseExpr("Optional[Self]")
	require.NoError(t, err)

	errs := diagnostics.NewCollector("m.py")
	got := e.WithSelf("Box").Untype(expr, errs)
	assert.Zero(t, errs.Len(), "diagnostics: %v", errs.Diagnostics())
	if diff := cmp.Diff(&types.Union{Members: []types.Type{box, &types.None{}}}, got, typeOpts); diff != "" {
		t.Errorf("type mismatch (-want +got):\n%s", diff)
	}

	// Outside a class, and for names that are not classes, Self stays invalid.
	for _, view := range []*Evaluator{e, e.WithSelf("x"), e.WithSelf("Missing")} {
		errs := diagnostics.NewCollector("m.py")
		view.Untype(expr, errs)
		assert.Equal(t, 1, errs.Len())
	}
}
