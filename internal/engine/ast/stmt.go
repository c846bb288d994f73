package ast

type Stmt interface {
	Ranged
	stmtNode()
}

type Module struct {
	Node
	Body []Stmt
}

type (
	Import struct {
		Node
		Names []Alias
	}

	// ImportFrom is `from <Module> import ...`; Level counts leading dots.
	ImportFrom struct {
		Node
		Module string
		Level  int
		Names  []Alias
	}

	FunctionDef struct {
		Node
		Name       Identifier
		Params     []Parameter
		Returns    Expr
		Docstring  *TextRange
		Decorators []Expr
		Body       []Stmt
	}

	ClassDef struct {
		Node
		Name       Identifier
		Bases      []Expr
		Keywords   []Keyword
		Docstring  *TextRange
		Decorators []Expr
		Body       []Stmt
	}

	Assign struct {
		Node
		Targets []Expr
		Value   Expr
	}

	AnnAssign struct {
		Node
		Target     Expr
		Annotation Expr
		Value      Expr
	}

	AugAssign struct {
		Node
		Target Expr
		Op     string
		Value  Expr
	}

	// If keeps `elif` chains as a nested If inside Orelse.
	If struct {
		Node
		Test   Expr
		Body   []Stmt
		Orelse []Stmt
	}

	ExprStmt struct {
		Node
		Value Expr
	}

	// OtherStmt is a statement the analysis does not model. Compound
	// statements (for, while, with, try, ...) keep their nested blocks in Body.
	OtherStmt struct {
		Node
		Kind string
		Body []Stmt
	}
)

type Alias struct {
	Node
	Name   Identifier
	AsName *Identifier
}

type ParamKind int

const (
	ParamPositional ParamKind = iota
	ParamVarArgs
	ParamKwOnly
	ParamKwargs
)

type Parameter struct {
	Node
	Name       Identifier
	Kind       ParamKind
	Annotation Expr
	Default    Expr
}

func (*Import) stmtNode()      {}
func (*ImportFrom) stmtNode()  {}
func (*FunctionDef) stmtNode() {}
func (*ClassDef) stmtNode()    {}
func (*Assign) stmtNode()      {}
func (*AnnAssign) stmtNode()   {}
func (*AugAssign) stmtNode()   {}
func (*If) stmtNode()          {}
func (*ExprStmt) stmtNode()    {}
func (*OtherStmt) stmtNode()   {}
