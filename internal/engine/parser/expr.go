package parser

import (
	"math/big"
	"strings"

	"typewalk/internal/engine/ast"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// converter carries the source buffer through a single conversion.
type converter struct {
	source   []byte
	handlers map[string]stmtHandler
}

func newConverter(source []byte) *converter {
	c := &converter{source: source}
	c.handlers = map[string]stmtHandler{
		"import_statement":      c.importStmt,
		"import_from_statement": c.importFromStmt,
		"function_definition":   c.functionDef,
		"class_definition":      c.classDef,
		"decorated_definition":  c.decoratedDef,
		"expression_statement":  c.expressionStmt,
		"if_statement":          c.ifStmt,
	}
	return c
}

func (c *converter) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(c.source[n.StartByte():n.EndByte()])
}

func (c *converter) node(n *sitter.Node) ast.Node {
	return ast.Node{Span: nodeRange(n)}
}

func (c *converter) identifier(n *sitter.Node) ast.Identifier {
	if n == nil {
		return ast.Identifier{}
	}
	return ast.Identifier{Node: c.node(n), ID: c.text(n)}
}

// namedChildren skips comments, which tree-sitter attaches anywhere.
func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child.Kind() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

// fieldChildren returns every child stored under field, in order.
func fieldChildren(n *sitter.Node, field string) []*sitter.Node {
	var out []*sitter.Node
	for i := uint(0); i < n.ChildCount(); i++ {
		if n.FieldNameForChild(uint32(i)) == field {
			out = append(out, n.Child(i))
		}
	}
	return out
}

func (c *converter) exprs(nodes []*sitter.Node) []ast.Expr {
	out := make([]ast.Expr, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, c.expr(n))
	}
	return out
}

// expr converts an expression node. Annotations arrive wrapped in a `type`
// node, which is transparent here.
func (c *converter) expr(n *sitter.Node) ast.Expr {
	if n == nil {
		return &ast.Other{Kind: "missing"}
	}
	node := c.node(n)
	switch n.Kind() {
	case "identifier", "keyword_identifier":
		return &ast.Name{Node: node, ID: c.text(n)}

	case "type", "parenthesized_expression":
		children := namedChildren(n)
		if len(children) == 1 {
			return c.expr(children[0])
		}
		return &ast.Other{Node: node, Kind: n.Kind()}

	case "attribute":
		attr := n.ChildByFieldName("attribute")
		return &ast.Attribute{
			Node:  node,
			Value: c.expr(n.ChildByFieldName("object")),
			Attr:  c.identifier(attr),
		}

	case "generic_type":
		// `Optional[int]` in annotation position: an identifier followed by a
		// bracketed type_parameter list instead of a subscript expression.
		children := namedChildren(n)
		if len(children) != 2 || children[1].Kind() != "type_parameter" {
			return &ast.Other{Node: node, Kind: n.Kind()}
		}
		return &ast.Subscript{
			Node:  node,
			Value: c.expr(children[0]),
			Slice: c.typeParameters(children[1]),
		}

	case "member_type":
		children := namedChildren(n)
		if len(children) != 2 {
			return &ast.Other{Node: node, Kind: n.Kind()}
		}
		return &ast.Attribute{Node: node, Value: c.expr(children[0]), Attr: c.identifier(children[1])}

	case "union_type":
		children := namedChildren(n)
		if len(children) != 2 {
			return &ast.Other{Node: node, Kind: n.Kind()}
		}
		return &ast.BinOp{Node: node, Left: c.expr(children[0]), Op: "|", Right: c.expr(children[1])}

	case "splat_type":
		children := namedChildren(n)
		if len(children) != 1 || c.text(n.Child(0)) != "*" {
			return &ast.Other{Node: node, Kind: n.Kind()}
		}
		return &ast.Starred{Node: node, Value: c.expr(children[0])}

	case "subscript":
		return &ast.Subscript{
			Node:  node,
			Value: c.expr(n.ChildByFieldName("value")),
			Slice: c.subscriptSlice(n),
		}

	case "tuple":
		return &ast.Tuple{Node: node, Elts: c.exprs(namedChildren(n)), Parenthesized: true}

	case "expression_list", "pattern_list":
		return &ast.Tuple{Node: node, Elts: c.exprs(namedChildren(n))}

	case "list":
		return &ast.List{Node: node, Elts: c.exprs(namedChildren(n))}

	case "list_splat", "list_splat_pattern":
		children := namedChildren(n)
		if len(children) != 1 {
			return &ast.Other{Node: node, Kind: n.Kind()}
		}
		return &ast.Starred{Node: node, Value: c.expr(children[0])}

	case "ellipsis":
		return &ast.EllipsisLiteral{Node: node}

	case "integer":
		return c.integer(n)

	case "float":
		return &ast.FloatLiteral{Node: node, Text: c.text(n)}

	case "string":
		value, isBytes := c.stringValue(n)
		if isBytes {
			return &ast.BytesLiteral{Node: node, Value: []byte(value)}
		}
		return &ast.StringLiteral{Node: node, Value: value}

	case "concatenated_string":
		var b strings.Builder
		anyBytes := false
		for _, part := range namedChildren(n) {
			value, isBytes := c.stringValue(part)
			anyBytes = anyBytes || isBytes
			b.WriteString(value)
		}
		if anyBytes {
			return &ast.BytesLiteral{Node: node, Value: []byte(b.String())}
		}
		return &ast.StringLiteral{Node: node, Value: b.String()}

	case "true", "false":
		return &ast.BooleanLiteral{Node: node, Value: n.Kind() == "true"}

	case "none":
		return &ast.NoneLiteral{Node: node}

	case "unary_operator":
		op := ast.UAdd
		switch c.text(n.ChildByFieldName("operator")) {
		case "-":
			op = ast.USub
		case "~":
			op = ast.Invert
		}
		return &ast.UnaryOp{Node: node, Op: op, Operand: c.expr(n.ChildByFieldName("argument"))}

	case "not_operator":
		return &ast.UnaryOp{Node: node, Op: ast.Not, Operand: c.expr(n.ChildByFieldName("argument"))}

	case "binary_operator":
		return &ast.BinOp{
			Node:  node,
			Left:  c.expr(n.ChildByFieldName("left")),
			Op:    c.text(n.ChildByFieldName("operator")),
			Right: c.expr(n.ChildByFieldName("right")),
		}

	case "call":
		call := &ast.Call{Node: node, Func: c.expr(n.ChildByFieldName("function"))}
		for _, arg := range namedChildren(n.ChildByFieldName("arguments")) {
			if arg.Kind() == "keyword_argument" {
				call.Keywords = append(call.Keywords, ast.Keyword{
					Node:  c.node(arg),
					Arg:   c.text(arg.ChildByFieldName("name")),
					Value: c.expr(arg.ChildByFieldName("value")),
				})
				continue
			}
			call.Args = append(call.Args, c.expr(arg))
		}
		return call

	default:
		return &ast.Other{Node: node, Kind: n.Kind()}
	}
}

// subscriptSlice mirrors Python's own AST: `x[a, b]` and `x[a,]` have an
// unparenthesized tuple slice while `x[(a, b)]` has a parenthesized one.
func (c *converter) subscriptSlice(n *sitter.Node) ast.Expr {
	return c.sliceOf(n, fieldChildren(n, "subscript"))
}

// typeParameters is the bracketed part of a generic_type such as
// `Optional[int]`, which the grammar produces in annotation position.
func (c *converter) typeParameters(n *sitter.Node) ast.Expr {
	return c.sliceOf(n, namedChildren(n))
}

func (c *converter) sliceOf(n *sitter.Node, parts []*sitter.Node) ast.Expr {
	if len(parts) == 0 {
		return &ast.Other{Node: c.node(n), Kind: "empty_subscript"}
	}
	// The child before the closing bracket is a comma only for `x[a,]`.
	trailingComma := false
	if count := n.ChildCount(); count >= 2 {
		trailingComma = n.Child(count-2).Kind() == ","
	}
	if len(parts) == 1 && !trailingComma {
		return c.expr(parts[0])
	}
	first, last := parts[0], parts[len(parts)-1]
	return &ast.Tuple{
		Node: ast.Node{Span: ast.NewRange(ast.TextSize(first.StartByte()), ast.TextSize(last.EndByte()))},
		Elts: c.exprs(parts),
	}
}

func (c *converter) integer(n *sitter.Node) ast.Expr {
	text := strings.ToLower(c.text(n))
	if strings.HasSuffix(text, "j") {
		return &ast.Other{Node: c.node(n), Kind: "imaginary"}
	}
	// Base 0 understands Python's 0x/0o/0b prefixes and digit underscores.
	value, ok := new(big.Int).SetString(text, 0)
	if !ok {
		return &ast.Other{Node: c.node(n), Kind: "integer"}
	}
	return &ast.IntLiteral{Node: c.node(n), Value: value}
}
