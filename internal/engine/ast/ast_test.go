package ast

import "testing"

func name(id string, start TextSize) *Name {
	return &Name{Node: Node{Span: NewRange(start, start+TextSize(len(id)))}, ID: id}
}

func TestChainBase(t *testing.T) {
	x := name("x", 0)
	chain := &Attribute{
		Value: &Subscript{Value: &Attribute{Value: x, Attr: Identifier{ID: "a"}}, Slice: &IntLiteral{}},
		Attr:  Identifier{ID: "b"},
	}

	base, ok := ChainBase(chain)
	if !ok || base != x {
		t.Fatalf("expected base x, got %v, %v", base, ok)
	}

	if _, ok := ChainBase(&Attribute{Value: &Call{Func: x}}); ok {
		t.Fatal("expected call-rooted chain to have no base")
	}
}

func TestIsChainedAttributeAccess(t *testing.T) {
	if !IsChainedAttributeAccess(&Attribute{Value: name("Color", 0)}) {
		t.Error("expected Color.RED to be a chained access")
	}
	if IsChainedAttributeAccess(&Attribute{Value: &Subscript{Value: name("a", 0)}}) {
		t.Error("expected a[0].b not to be a chained access")
	}
}

func TestInspectVisitsInSourceOrder(t *testing.T) {
	expr := &Subscript{
		Value: name("Dict", 0),
		Slice: &Tuple{Elts: []Expr{name("str", 5), &Starred{Value: name("Ts", 11)}}},
	}

	var names []string
	Inspect(expr, func(e Expr) bool {
		if n, ok := e.(*Name); ok {
			names = append(names, n.ID)
		}
		return true
	})

	want := []string{"Dict", "str", "Ts"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, names)
		}
	}
}

func TestTextRangeContains(t *testing.T) {
	r := NewRange(4, 8)
	for _, offset := range []TextSize{4, 6, 8} {
		if !r.Contains(offset) {
			t.Errorf("expected %s to contain %d", r, offset)
		}
	}
	if r.Contains(9) || r.Contains(3) {
		t.Errorf("expected %s to exclude neighbours", r)
	}
	if r.Len() != 4 {
		t.Errorf("expected len 4, got %d", r.Len())
	}
}
