package bindings

import "typewalk/internal/engine/ast"

// Idx addresses a key/binding pair inside one Bindings arena.
type Idx uint32

type (
	FunctionIdx        uint32
	ClassIdx           uint32
	LegacyTypeParamIdx uint32
)

type SymbolKind int

const (
	SymbolModule SymbolKind = iota
	SymbolAttribute
	SymbolVariable
	SymbolConstant
	SymbolParameter
	SymbolTypeParameter
	SymbolTypeAlias
	SymbolFunction
	SymbolMethod
	SymbolClass
)

var symbolKindNames = [...]string{
	SymbolModule:        "module",
	SymbolAttribute:     "attribute",
	SymbolVariable:      "variable",
	SymbolConstant:      "constant",
	SymbolParameter:     "parameter",
	SymbolTypeParameter: "type-parameter",
	SymbolTypeAlias:     "type-alias",
	SymbolFunction:      "function",
	SymbolMethod:        "method",
	SymbolClass:         "class",
}

func (k SymbolKind) String() string {
	if int(k) < 0 || int(k) >= len(symbolKindNames) {
		return "unknown"
	}
	return symbolKindNames[k]
}

// Binding describes how the value of a key is produced. The set of variants is
// closed; switch on the concrete type.
type Binding interface {
	// SymbolKind is the kind shown to editors when the binding is itself the
	// definition.
	SymbolKind() (SymbolKind, bool)
	bindingNode()
}

type (
	// Forward aliases another key.
	Forward struct {
		To Idx
	}

	// Narrow refines another key under a condition.
	Narrow struct {
		To    Idx
		Op    string
		Range ast.TextRange
	}

	// Phi merges the candidates reaching a control-flow join.
	Phi struct {
		Branches []Idx
	}

	Pin struct {
		To Idx
	}

	PinUpstream struct {
		To Idx
	}

	// Default is a parameter default evaluated against the key it defaults.
	Default struct {
		To Idx
	}

	CheckLegacyTypeParam struct {
		Param LegacyTypeParamIdx
		Range ast.TextRange
	}

	AssignToSubscript struct {
		Target *ast.Subscript
		Value  ast.Expr
	}

	AssignToAttribute struct {
		Target *ast.Attribute
		Value  ast.Expr
	}

	// Import is `from Module import Name`. OriginalNameRange points at Name
	// when the import is aliased.
	Import struct {
		Module            string
		Name              string
		OriginalNameRange *ast.TextRange
	}

	Module struct {
		Name string
	}

	Function struct {
		Def FunctionIdx
	}

	ClassDef struct {
		Def ClassIdx
	}

	// Expr is a value computed from an expression, optionally annotated.
	Expr struct {
		Annotation ast.Expr
		Value      ast.Expr
	}

	TypeParameter struct {
		Name string
	}

	// Other is anything the analysis does not model more precisely.
	Other struct {
		Kind    SymbolKind
		HasKind bool
	}
)

func (*Forward) bindingNode()              {}
func (*Narrow) bindingNode()               {}
func (*Phi) bindingNode()                  {}
func (*Pin) bindingNode()                  {}
func (*PinUpstream) bindingNode()          {}
func (*Default) bindingNode()              {}
func (*CheckLegacyTypeParam) bindingNode() {}
func (*AssignToSubscript) bindingNode()    {}
func (*AssignToAttribute) bindingNode()    {}
func (*Import) bindingNode()               {}
func (*Module) bindingNode()               {}
func (*Function) bindingNode()             {}
func (*ClassDef) bindingNode()             {}
func (*Expr) bindingNode()                 {}
func (*TypeParameter) bindingNode()        {}
func (*Other) bindingNode()                {}

func (*Forward) SymbolKind() (SymbolKind, bool)              { return 0, false }
func (*Narrow) SymbolKind() (SymbolKind, bool)               { return 0, false }
func (*Phi) SymbolKind() (SymbolKind, bool)                  { return 0, false }
func (*Pin) SymbolKind() (SymbolKind, bool)                  { return 0, false }
func (*PinUpstream) SymbolKind() (SymbolKind, bool)          { return 0, false }
func (*Default) SymbolKind() (SymbolKind, bool)              { return SymbolParameter, true }
func (*CheckLegacyTypeParam) SymbolKind() (SymbolKind, bool) { return SymbolTypeParameter, true }
func (*AssignToSubscript) SymbolKind() (SymbolKind, bool)    { return SymbolVariable, true }
func (*AssignToAttribute) SymbolKind() (SymbolKind, bool)    { return SymbolAttribute, true }
func (*Import) SymbolKind() (SymbolKind, bool)               { return SymbolModule, true }
func (*Module) SymbolKind() (SymbolKind, bool)               { return SymbolModule, true }
func (*Function) SymbolKind() (SymbolKind, bool)             { return SymbolFunction, true }
func (*ClassDef) SymbolKind() (SymbolKind, bool)             { return SymbolClass, true }
func (*Expr) SymbolKind() (SymbolKind, bool)                 { return SymbolVariable, true }
func (*TypeParameter) SymbolKind() (SymbolKind, bool)        { return SymbolTypeParameter, true }
func (o *Other) SymbolKind() (SymbolKind, bool)              { return o.Kind, o.HasKind }

// FunctionBinding is the side-table entry behind a Function binding.
type FunctionBinding struct {
	Name      ast.Identifier
	Docstring *ast.TextRange
}

// BindingClass is the side-table entry behind a ClassDef binding: either an
// explicit class body or a class synthesized by a call such as NamedTuple(...).
type BindingClass interface {
	bindingClassNode()
}

type ClassBinding struct {
	Name      ast.Identifier
	Docstring *ast.TextRange
}

type FunctionalClassDef struct {
	Name string
}

func (*ClassBinding) bindingClassNode()       {}
func (*FunctionalClassDef) bindingClassNode() {}

// LegacyTypeParam records the key that a pre-PEP 695 type variable use refers to.
type LegacyTypeParam struct {
	Key Idx
}
