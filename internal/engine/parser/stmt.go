package parser

import (
	"strings"

	"typewalk/internal/engine/ast"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// stmtHandler converts one statement node of the kind it is registered for.
type stmtHandler func(n *sitter.Node) ast.Stmt

// block converts the statements directly under n (a module or a block).
func (c *converter) block(n *sitter.Node) []ast.Stmt {
	children := namedChildren(n)
	out := make([]ast.Stmt, 0, len(children))
	for _, child := range children {
		out = append(out, c.stmt(child))
	}
	return out
}

func (c *converter) stmt(n *sitter.Node) ast.Stmt {
	if handler, ok := c.handlers[n.Kind()]; ok {
		return handler(n)
	}
	return &ast.OtherStmt{Node: c.node(n), Kind: n.Kind(), Body: c.nestedBlocks(n)}
}

// nestedBlocks flattens the blocks of an unmodelled compound statement,
// including its clauses (`except`, `else`, `finally`, ...).
func (c *converter) nestedBlocks(n *sitter.Node) []ast.Stmt {
	var out []ast.Stmt
	for _, child := range namedChildren(n) {
		switch {
		case child.Kind() == "block":
			out = append(out, c.block(child)...)
		case strings.HasSuffix(child.Kind(), "_clause"):
			out = append(out, c.nestedBlocks(child)...)
		}
	}
	return out
}

func (c *converter) dottedAlias(n *sitter.Node) ast.Alias {
	if n.Kind() == "aliased_import" {
		alias := ast.Alias{
			Node: c.node(n),
			Name: c.identifier(n.ChildByFieldName("name")),
		}
		if as := n.ChildByFieldName("alias"); as != nil {
			id := c.identifier(as)
			alias.AsName = &id
		}
		return alias
	}
	return ast.Alias{Node: c.node(n), Name: c.identifier(n)}
}

func (c *converter) importStmt(n *sitter.Node) ast.Stmt {
	stmt := &ast.Import{Node: c.node(n)}
	for _, name := range fieldChildren(n, "name") {
		stmt.Names = append(stmt.Names, c.dottedAlias(name))
	}
	return stmt
}

func (c *converter) importFromStmt(n *sitter.Node) ast.Stmt {
	stmt := &ast.ImportFrom{Node: c.node(n)}
	if module := n.ChildByFieldName("module_name"); module != nil {
		if module.Kind() == "relative_import" {
			for _, part := range namedChildren(module) {
				switch part.Kind() {
				case "import_prefix":
					stmt.Level = strings.Count(c.text(part), ".")
				case "dotted_name":
					stmt.Module = c.text(part)
				}
			}
		} else {
			stmt.Module = c.text(module)
		}
	}
	for _, name := range fieldChildren(n, "name") {
		stmt.Names = append(stmt.Names, c.dottedAlias(name))
	}
	for _, child := range namedChildren(n) {
		if child.Kind() == "wildcard_import" {
			stmt.Names = append(stmt.Names, ast.Alias{
				Node: c.node(child),
				Name: ast.Identifier{Node: c.node(child), ID: "*"},
			})
		}
	}
	return stmt
}

// docstring returns the range of a leading string statement in body.
func (c *converter) docstring(body *sitter.Node) *ast.TextRange {
	children := namedChildren(body)
	if len(children) == 0 || children[0].Kind() != "expression_statement" {
		return nil
	}
	exprs := namedChildren(children[0])
	if len(exprs) != 1 {
		return nil
	}
	switch exprs[0].Kind() {
	case "string", "concatenated_string":
		rng := nodeRange(exprs[0])
		return &rng
	default:
		return nil
	}
}

func (c *converter) functionDef(n *sitter.Node) ast.Stmt {
	body := n.ChildByFieldName("body")
	def := &ast.FunctionDef{
		Node:      c.node(n),
		Name:      c.identifier(n.ChildByFieldName("name")),
		Params:    c.parameters(n.ChildByFieldName("parameters")),
		Docstring: c.docstring(body),
		Body:      c.block(body),
	}
	if ret := n.ChildByFieldName("return_type"); ret != nil {
		def.Returns = c.expr(ret)
	}
	return def
}

func (c *converter) parameters(n *sitter.Node) []ast.Parameter {
	var out []ast.Parameter
	kind := ast.ParamPositional
	for _, child := range namedChildren(n) {
		param := ast.Parameter{Node: c.node(child), Kind: kind}
		switch child.Kind() {
		case "identifier":
			param.Name = c.identifier(child)
		case "typed_parameter":
			target := namedChildren(child)[0]
			c.splatTarget(target, &param)
			param.Annotation = c.expr(child.ChildByFieldName("type"))
		case "default_parameter":
			param.Name = c.identifier(child.ChildByFieldName("name"))
			param.Default = c.expr(child.ChildByFieldName("value"))
		case "typed_default_parameter":
			param.Name = c.identifier(child.ChildByFieldName("name"))
			param.Annotation = c.expr(child.ChildByFieldName("type"))
			param.Default = c.expr(child.ChildByFieldName("value"))
		case "list_splat_pattern", "dictionary_splat_pattern":
			c.splatTarget(child, &param)
		case "keyword_separator":
			kind = ast.ParamKwOnly
			continue
		default:
			continue
		}
		if param.Kind == ast.ParamVarArgs {
			kind = ast.ParamKwOnly
		}
		out = append(out, param)
	}
	return out
}

// splatTarget fills in the name and kind of `x`, `*args` or `**kwargs`.
func (c *converter) splatTarget(n *sitter.Node, param *ast.Parameter) {
	switch n.Kind() {
	case "list_splat_pattern":
		param.Kind = ast.ParamVarArgs
	case "dictionary_splat_pattern":
		param.Kind = ast.ParamKwargs
	default:
		param.Name = c.identifier(n)
		return
	}
	if inner := namedChildren(n); len(inner) > 0 {
		param.Name = c.identifier(inner[0])
	}
}

func (c *converter) classDef(n *sitter.Node) ast.Stmt {
	body := n.ChildByFieldName("body")
	def := &ast.ClassDef{
		Node:      c.node(n),
		Name:      c.identifier(n.ChildByFieldName("name")),
		Docstring: c.docstring(body),
		Body:      c.block(body),
	}
	for _, arg := range namedChildren(n.ChildByFieldName("superclasses")) {
		if arg.Kind() == "keyword_argument" {
			def.Keywords = append(def.Keywords, ast.Keyword{
				Node:  c.node(arg),
				Arg:   c.text(arg.ChildByFieldName("name")),
				Value: c.expr(arg.ChildByFieldName("value")),
			})
			continue
		}
		def.Bases = append(def.Bases, c.expr(arg))
	}
	return def
}

func (c *converter) decoratedDef(n *sitter.Node) ast.Stmt {
	var decorators []ast.Expr
	for _, child := range namedChildren(n) {
		if child.Kind() != "decorator" {
			continue
		}
		if inner := namedChildren(child); len(inner) == 1 {
			decorators = append(decorators, c.expr(inner[0]))
		}
	}
	definition := n.ChildByFieldName("definition")
	if definition == nil {
		return &ast.OtherStmt{Node: c.node(n), Kind: n.Kind()}
	}
	switch stmt := c.stmt(definition).(type) {
	case *ast.FunctionDef:
		stmt.Decorators = decorators
		return stmt
	case *ast.ClassDef:
		stmt.Decorators = decorators
		return stmt
	default:
		return stmt
	}
}

func (c *converter) expressionStmt(n *sitter.Node) ast.Stmt {
	children := namedChildren(n)
	if len(children) == 1 {
		switch inner := children[0]; inner.Kind() {
		case "assignment":
			return c.assignment(n, inner)
		case "augmented_assignment":
			return &ast.AugAssign{
				Node:   c.node(n),
				Target: c.expr(inner.ChildByFieldName("left")),
				Op:     c.text(inner.ChildByFieldName("operator")),
				Value:  c.expr(inner.ChildByFieldName("right")),
			}
		default:
			return &ast.ExprStmt{Node: c.node(n), Value: c.expr(inner)}
		}
	}
	return &ast.ExprStmt{Node: c.node(n), Value: &ast.Tuple{Node: c.node(n), Elts: c.exprs(children)}}
}

// assignment handles `x = v`, `x: T = v`, `x: T` and chains `a = b = v`.
func (c *converter) assignment(stmt, n *sitter.Node) ast.Stmt {
	if typ := n.ChildByFieldName("type"); typ != nil {
		ann := &ast.AnnAssign{
			Node:       c.node(stmt),
			Target:     c.expr(n.ChildByFieldName("left")),
			Annotation: c.expr(typ),
		}
		if right := n.ChildByFieldName("right"); right != nil {
			ann.Value = c.expr(right)
		}
		return ann
	}

	assign := &ast.Assign{Node: c.node(stmt)}
	current := n
	for {
		assign.Targets = append(assign.Targets, c.expr(current.ChildByFieldName("left")))
		right := current.ChildByFieldName("right")
		if right != nil && right.Kind() == "assignment" && right.ChildByFieldName("type") == nil {
			current = right
			continue
		}
		assign.Value = c.expr(right)
		return assign
	}
}

func (c *converter) ifStmt(n *sitter.Node) ast.Stmt {
	root := &ast.If{
		Node: c.node(n),
		Test: c.expr(n.ChildByFieldName("condition")),
		Body: c.block(n.ChildByFieldName("consequence")),
	}
	tail := root
	for _, alt := range fieldChildren(n, "alternative") {
		switch alt.Kind() {
		case "elif_clause":
			elif := &ast.If{
				Node: c.node(alt),
				Test: c.expr(alt.ChildByFieldName("condition")),
				Body: c.block(alt.ChildByFieldName("consequence")),
			}
			tail.Orelse = []ast.Stmt{elif}
			tail = elif
		case "else_clause":
			tail.Orelse = c.block(alt.ChildByFieldName("body"))
		}
	}
	return root
}
