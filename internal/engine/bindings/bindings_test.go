package bindings

import (
	"testing"

	"typewalk/internal/core/errors"
	"typewalk/internal/engine/ast"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ident(id string, start ast.TextSize) ast.Identifier {
	return ast.Identifier{Node: ast.Node{Span: ast.NewRange(start, start+ast.TextSize(len(id)))}, ID: id}
}

func TestBuilder_RoundTrip(t *testing.T) {
	bb := NewBuilder("pkg.mod")
	def := DefinitionKey(ident("x", 0))
	use := Key{Kind: KeyBoundName, Name: "x", Range: ast.NewRange(10, 11)}

	defIdx := bb.Insert(def, &Expr{})
	useIdx := bb.Insert(use, &Forward{To: defIdx})

	b, err := bb.Build()
	require.NoError(t, err)

	assert.Equal(t, "pkg.mod", b.Module())
	assert.Equal(t, 2, b.Len())

	got, ok := b.KeyToIdx(use)
	require.True(t, ok)
	assert.Equal(t, useIdx, got)
	assert.Equal(t, use, b.IdxToKey(useIdx))
	assert.Equal(t, &Forward{To: defIdx}, b.Get(useIdx))

	_, ok = b.KeyToIdx(AnonKey(ast.NewRange(50, 51)))
	assert.False(t, ok)
}

func TestBuilder_ReserveAllowsForwardEdges(t *testing.T) {
	bb := NewBuilder("m")
	a := bb.Reserve(DefinitionKey(ident("a", 0)))
	b := bb.Insert(DefinitionKey(ident("b", 5)), &Forward{To: a})
	bb.Set(a, &Forward{To: b})

	arena, err := bb.Build()
	require.NoError(t, err)
	assert.Equal(t, &Forward{To: b}, arena.Get(a))
}

func TestBuilder_Errors(t *testing.T) {
	t.Run("unbound reservation", func(t *testing.T) {
		bb := NewBuilder("m")
		bb.Reserve(DefinitionKey(ident("a", 0)))
		_, err := bb.Build()
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeInternal))
	})

	t.Run("double bind", func(t *testing.T) {
		bb := NewBuilder("m")
		key := DefinitionKey(ident("a", 0))
		bb.Insert(key, &Expr{})
		bb.Insert(key, &Expr{})
		_, err := bb.Build()
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeConflict))
	})

	t.Run("dangling edge", func(t *testing.T) {
		bb := NewBuilder("m")
		bb.Insert(DefinitionKey(ident("a", 0)), &Phi{Branches: []Idx{0, 7}})
		_, err := bb.Build()
		require.Error(t, err)
	})

	t.Run("missing side table", func(t *testing.T) {
		bb := NewBuilder("m")
		bb.Insert(DefinitionKey(ident("f", 0)), &Function{Def: 3})
		_, err := bb.Build()
		require.Error(t, err)
	})
}

func TestKeys(t *testing.T) {
	bb := NewBuilder("m")
	bb.Insert(DefinitionKey(ident("a", 0)), &Expr{})
	bb.Insert(ImportKey("os", ast.NewRange(2, 4)), &Module{Name: "os"})
	b, err := bb.Build()
	require.NoError(t, err)

	var names []string
	for _, k := range b.Keys() {
		names = append(names, k.Name)
	}
	assert.Equal(t, []string{"a", "os"}, names)
	assert.True(t, b.IdxToKey(1).IsDefinition())
	assert.Equal(t, "Import(os @ 2..4)", b.IdxToKey(1).String())
}

func TestSymbolKinds(t *testing.T) {
	kind, ok := (&Function{}).SymbolKind()
	assert.True(t, ok)
	assert.Equal(t, "function", kind.String())

	_, ok = (&Forward{}).SymbolKind()
	assert.False(t, ok)

	kind, ok = (&Other{Kind: SymbolConstant, HasKind: true}).SymbolKind()
	assert.True(t, ok)
	assert.Equal(t, SymbolConstant, kind)
}
