// Package ast is the Python syntax model consumed by the binder, the
// definition resolver and the special-form builder. Nodes are produced by the
// tree-sitter frontend in internal/engine/parser.
package ast

import (
	"fmt"
	"math/big"
)

// TextSize is a byte offset into a source file.
type TextSize uint32

type TextRange struct {
	Start TextSize
	End   TextSize
}

func NewRange(start, end TextSize) TextRange {
	return TextRange{Start: start, End: end}
}

func (r TextRange) Len() TextSize {
	return r.End - r.Start
}

// Contains reports whether offset lies inside r. The end offset is included
// so a cursor placed right after a name still hits it.
func (r TextRange) Contains(offset TextSize) bool {
	return r.Start <= offset && offset <= r.End
}

func (r TextRange) String() string {
	return fmt.Sprintf("%d..%d", r.Start, r.End)
}

type Node struct {
	Span TextRange
}

func (n Node) Range() TextRange { return n.Span }

type Ranged interface {
	Range() TextRange
}

type Expr interface {
	Ranged
	exprNode()
}

type Identifier struct {
	Node
	ID string
}

type (
	Name struct {
		Node
		ID string
	}

	Attribute struct {
		Node
		Value Expr
		Attr  Identifier
	}

	Subscript struct {
		Node
		Value Expr
		Slice Expr
	}

	// Tuple covers both `(a, b)` and the bare `a, b` form inside subscripts.
	Tuple struct {
		Node
		Elts          []Expr
		Parenthesized bool
	}

	List struct {
		Node
		Elts []Expr
	}

	Starred struct {
		Node
		Value Expr
	}

	EllipsisLiteral struct {
		Node
	}

	IntLiteral struct {
		Node
		Value *big.Int
	}

	FloatLiteral struct {
		Node
		Text string
	}

	StringLiteral struct {
		Node
		Value string
	}

	BytesLiteral struct {
		Node
		Value []byte
	}

	BooleanLiteral struct {
		Node
		Value bool
	}

	NoneLiteral struct {
		Node
	}

	UnaryOp struct {
		Node
		Op      UnaryOperator
		Operand Expr
	}

	BinOp struct {
		Node
		Left  Expr
		Op    string
		Right Expr
	}

	Call struct {
		Node
		Func     Expr
		Args     []Expr
		Keywords []Keyword
	}

	// Other stands in for syntax the analysis never inspects (lambdas,
	// comprehensions, ...). Kind is the frontend's node kind.
	Other struct {
		Node
		Kind string
	}
)

type Keyword struct {
	Node
	Arg   string
	Value Expr
}

type UnaryOperator int

const (
	UAdd UnaryOperator = iota
	USub
	Not
	Invert
)

func (*Name) exprNode()            {}
func (*Attribute) exprNode()       {}
func (*Subscript) exprNode()       {}
func (*Tuple) exprNode()           {}
func (*List) exprNode()            {}
func (*Starred) exprNode()         {}
func (*EllipsisLiteral) exprNode() {}
func (*IntLiteral) exprNode()      {}
func (*FloatLiteral) exprNode()    {}
func (*StringLiteral) exprNode()   {}
func (*BytesLiteral) exprNode()    {}
func (*BooleanLiteral) exprNode()  {}
func (*NoneLiteral) exprNode()     {}
func (*UnaryOp) exprNode()         {}
func (*BinOp) exprNode()           {}
func (*Call) exprNode()            {}
func (*Other) exprNode()           {}

// ChainBase returns the name at the root of an attribute/subscript chain such
// as `a.b[0].c`. Chains rooted in anything else (calls, literals) have no base.
func ChainBase(expr Expr) (*Name, bool) {
	for {
		switch e := expr.(type) {
		case *Name:
			return e, true
		case *Attribute:
			expr = e.Value
		case *Subscript:
			expr = e.Value
		default:
			return nil, false
		}
	}
}

// IsChainedAttributeAccess reports whether expr is a name or a dotted chain of
// attributes rooted in a name.
func IsChainedAttributeAccess(expr Expr) bool {
	switch e := expr.(type) {
	case *Name:
		return true
	case *Attribute:
		return IsChainedAttributeAccess(e.Value)
	default:
		return false
	}
}

// DottedName renders a name or attribute chain as `a.b.c`. Other expressions
// render as their kind in angle brackets.
func DottedName(expr Expr) string {
	switch e := expr.(type) {
	case *Name:
		return e.ID
	case *Attribute:
		return DottedName(e.Value) + "." + e.Attr.ID
	case *Other:
		return "<" + e.Kind + ">"
	default:
		return fmt.Sprintf("<%T>", expr)
	}
}

// Inspect calls fn for expr and every sub-expression in source order,
// descending only while fn returns true.
func Inspect(expr Expr, fn func(Expr) bool) {
	if expr == nil || !fn(expr) {
		return
	}
	switch e := expr.(type) {
	case *Attribute:
		Inspect(e.Value, fn)
	case *Subscript:
		Inspect(e.Value, fn)
		Inspect(e.Slice, fn)
	case *Tuple:
		for _, elt := range e.Elts {
			Inspect(elt, fn)
		}
	case *List:
		for _, elt := range e.Elts {
			Inspect(elt, fn)
		}
	case *Starred:
		Inspect(e.Value, fn)
	case *UnaryOp:
		Inspect(e.Operand, fn)
	case *BinOp:
		Inspect(e.Left, fn)
		Inspect(e.Right, fn)
	case *Call:
		Inspect(e.Func, fn)
		for _, arg := range e.Args {
			Inspect(arg, fn)
		}
		for _, kw := range e.Keywords {
			Inspect(kw.Value, fn)
		}
	}
}
