// Package typeeval is a small reference type evaluator for Python
// annotations. It knows the builtins, the `typing` special forms and whatever
// a module declares at its top level (classes, enums, type variables and
// aliases), and hands subscripted special forms to specials.Builder.
package typeeval

import (
	"fmt"
	"slices"

	"typewalk/internal/engine/ast"
	"typewalk/internal/engine/diagnostics"
	"typewalk/internal/engine/parser"
	"typewalk/internal/engine/specials"
	"typewalk/internal/engine/types"
)

var builtinClasses = func() map[string]*types.Class {
	out := make(map[string]*types.Class)
	for _, name := range []string{
		"int", "str", "bytes", "bool", "float", "complex", "object",
		"list", "dict", "set", "frozenset", "tuple", "type",
	} {
		out[name] = &types.Class{Name: name, Module: "builtins"}
	}
	return out
}()

// BuiltinClass returns the shared class object of a builtin such as `int`.
func BuiltinClass(name string) (*types.Class, bool) {
	c, ok := builtinClasses[name]
	return c, ok
}

// typingModules are the modules whose members map onto special forms.
var typingModules = []string{"typing", "typing_extensions"}

// Evaluator resolves names against the builtins and one module's top-level
// declarations. Declare must finish before the evaluator is shared; after
// that it is read-only and safe for concurrent use.
type Evaluator struct {
	module   string
	builder  *specials.Builder
	frontend *parser.Frontend
	names    map[string]types.Type
	// enumBases are the classes whose subclasses are enums.
	enumBases map[*types.Class]bool
	// self is what `Self` denotes; nil outside a class body.
	self *types.Class
}

var _ specials.Evaluator = (*Evaluator)(nil)

// New returns an evaluator for module. frontend parses string annotations.
func New(module string, frontend *parser.Frontend) *Evaluator {
	e := &Evaluator{
		module:    module,
		frontend:  frontend,
		names:     make(map[string]types.Type),
		enumBases: make(map[*types.Class]bool),
	}
	e.builder = specials.NewBuilder(e)
	return e
}

// Module returns the name of the module being evaluated.
func (e *Evaluator) Module() string {
	return e.module
}

// WithSelf returns a view of e in which `Self` means an instance of the
// named top-level class. Unknown names give e unchanged.
func (e *Evaluator) WithSelf(className string) *Evaluator {
	v, ok := e.names[className]
	if !ok {
		return e
	}
	def, ok := v.(*types.ClassDef)
	if !ok {
		return e
	}
	view := *e
	view.self = def.Class
	view.builder = specials.NewBuilder(&view)
	return &view
}

// Bind sets the value of a top-level name, replacing any earlier binding.
func (e *Evaluator) Bind(name string, value types.Type) {
	e.names[name] = value
}

// BindTypingNames makes every special form available unqualified, as after
// `from typing import *`.
func (e *Evaluator) BindTypingNames() {
	for form := types.FormOptional; form <= types.FormRequired; form++ {
		e.names[form.String()] = &types.SpecialFormValue{Form: form}
	}
	e.names["Any"] = types.TypeFormOf(types.AnyExplicitType())
}

func (e *Evaluator) lookup(name string) (types.Type, bool) {
	if v, ok := e.names[name]; ok {
		return v, true
	}
	if c, ok := builtinClasses[name]; ok {
		return &types.ClassDef{Class: c}, true
	}
	if name == "None" {
		return &types.None{}, true
	}
	return nil, false
}

// Untype evaluates an annotation with the default context.
func (e *Evaluator) Untype(expr ast.Expr, errs *diagnostics.Collector) types.Type {
	return e.ExprUntype(expr, specials.TypeArgument, errs)
}

func (e *Evaluator) ExprUntype(expr ast.Expr, ctx specials.TypeFormContext, errs *diagnostics.Collector) types.Type {
	switch x := expr.(type) {
	case *ast.Name, *ast.Attribute, *ast.Subscript:
		return e.untypeValue(e.ExprInfer(x, errs), x.Range(), errs)
	case *ast.NoneLiteral:
		return &types.None{}
	case *ast.StringLiteral:
		return e.forwardReference(x, ctx, errs)
	case *ast.Starred:
		return &types.Unpack{Inner: e.ExprUntype(x.Value, specials.TupleOrCallableParam, errs)}
	case *ast.BinOp:
		if x.Op == "|" {
			return e.Unions([]types.Type{e.ExprUntype(x.Left, ctx, errs), e.ExprUntype(x.Right, ctx, errs)})
		}
	}
	return errs.Error(expr.Range(), diagnostics.InvalidAnnotation, "Invalid expression form for type annotation")
}

// untypeValue turns the runtime value of an annotation into the type it
// denotes.
func (e *Evaluator) untypeValue(v types.Type, rng ast.TextRange, errs *diagnostics.Collector) types.Type {
	switch t := v.(type) {
	case *types.TypeForm:
		return t.Inner
	case *types.ClassDef:
		return types.Instance(t.Class)
	case *types.None, *types.TypeVar, *types.TypeVarTuple, *types.ParamSpec, *types.Any:
		return t
	case *types.SpecialFormValue:
		if t.Form == types.FormSelfType && e.self != nil {
			return types.Instance(e.self)
		}
		return e.bareSpecialForm(t.Form, rng, errs)
	default:
		return errs.Error(rng, diagnostics.InvalidAnnotation, fmt.Sprintf("Expected a type form, got `%s`", v))
	}
}

// bareSpecialForm is a special form used without a subscript.
func (e *Evaluator) bareSpecialForm(form types.SpecialForm, rng ast.TextRange, errs *diagnostics.Collector) types.Type {
	switch form {
	case types.FormNever, types.FormNoReturn:
		return &types.Never{}
	case types.FormLiteralString:
		return types.Instance(builtinClasses["str"])
	case types.FormTuple:
		return types.UnboundedTuple(types.AnyImplicitType())
	case types.FormCallable:
		return types.CallableEllipsis(types.AnyImplicitType())
	case types.FormType:
		return types.TypeFormOf(types.AnyImplicitType())
	case types.FormFinal, types.FormClassVar:
		return types.AnyImplicitType()
	}
	if !form.CanBeSubscripted() {
		return errs.Error(rng, diagnostics.InvalidAnnotation, fmt.Sprintf("`%s` is not allowed in this context", form))
	}
	return errs.Error(rng, diagnostics.InvalidAnnotation, fmt.Sprintf("Expected a type argument for `%s`", form))
}

// forwardReference evaluates a string annotation. Problems inside the string
// are reported against the whole string literal.
func (e *Evaluator) forwardReference(lit *ast.StringLiteral, ctx specials.TypeFormContext, errs *diagnostics.Collector) types.Type {
	expr, err := e.frontend.ParseExpr(lit.Value)
	if err != nil {
		return errs.Error(lit.Range(), diagnostics.InvalidAnnotation, fmt.Sprintf("Could not parse type string: %s", lit.Value))
	}
	nested := diagnostics.NewCollector(errs.Path())
	t := e.ExprUntype(expr, ctx, nested)
	errs.Absorb(nested, lit.Range())
	return t
}

func (e *Evaluator) ExprInfer(expr ast.Expr, errs *diagnostics.Collector) types.Type {
	switch x := expr.(type) {
	case *ast.Name:
		if v, ok := e.lookup(x.ID); ok {
			return v
		}
		return errs.Error(x.Range(), diagnostics.UnknownName, fmt.Sprintf("Could not find name `%s`", x.ID))
	case *ast.Attribute:
		return e.attribute(x, errs)
	case *ast.Subscript:
		return e.subscript(x, errs)
	case *ast.IntLiteral:
		return types.IntLit(x.Value).ToType()
	case *ast.StringLiteral:
		return types.StrLit(x.Value).ToType()
	case *ast.BytesLiteral:
		return types.BytesLit(x.Value).ToType()
	case *ast.BooleanLiteral:
		return types.BoolLit(x.Value).ToType()
	case *ast.NoneLiteral:
		return &types.None{}
	case *ast.EllipsisLiteral:
		return &types.Ellipsis{}
	case *ast.UnaryOp:
		if n, ok := x.Operand.(*ast.IntLiteral); ok && x.Op == ast.USub {
			return types.IntLit(n.Value).Negate().ToType()
		}
		if n, ok := x.Operand.(*ast.IntLiteral); ok && x.Op == ast.UAdd {
			return types.IntLit(n.Value).ToType()
		}
	case *ast.BinOp:
		if x.Op == "|" {
			return types.TypeFormOf(e.ExprUntype(x, specials.TypeArgument, errs))
		}
	}
	return types.AnyImplicitType()
}

func (e *Evaluator) attribute(x *ast.Attribute, errs *diagnostics.Collector) types.Type {
	switch owner := e.ExprInfer(x.Value, errs).(type) {
	case *types.Module:
		if slices.Contains(typingModules, owner.Name) {
			return typingMember(x.Attr.ID)
		}
		return types.AnyImplicitType()
	case *types.ClassDef:
		if lit, ok := e.GetEnumMember(owner.Class, x.Attr.ID); ok {
			return lit.ToType()
		}
		return types.AnyImplicitType()
	case *types.Any:
		return owner
	default:
		return types.AnyImplicitType()
	}
}

// subscript evaluates `X[...]` as a value: special forms go to the builder,
// generic classes are specialised.
func (e *Evaluator) subscript(x *ast.Subscript, errs *diagnostics.Collector) types.Type {
	switch owner := e.ExprInfer(x.Value, errs).(type) {
	case *types.SpecialFormValue:
		return e.builder.ApplySpecialForm(owner.Form, x.Slice, x.Range(), errs)
	case *types.ClassDef:
		switch owner.Class {
		case builtinClasses["tuple"]:
			return e.builder.ApplySpecialForm(types.FormTuple, x.Slice, x.Range(), errs)
		case builtinClasses["type"]:
			return e.builder.ApplySpecialForm(types.FormType, x.Slice, x.Range(), errs)
		}
		var args []ast.Expr
		if tuple, ok := x.Slice.(*ast.Tuple); ok {
			args = tuple.Elts
		} else {
			args = []ast.Expr{x.Slice}
		}
		targs := make([]types.Type, len(args))
		for i, arg := range args {
			targs[i] = e.ExprUntype(arg, specials.TypeArgument, errs)
		}
		return types.TypeFormOf(types.Instance(owner.Class, targs...))
	case *types.Any:
		return owner
	default:
		return errs.Error(x.Range(), diagnostics.InvalidAnnotation, fmt.Sprintf("`%s` is not subscriptable", ast.DottedName(x.Value)))
	}
}

func (e *Evaluator) Unions(ts []types.Type) types.Type {
	return types.Unions(ts)
}

func (e *Evaluator) GetEnumMember(class *types.Class, name string) (types.Lit, bool) {
	if !class.HasEnumMember(name) {
		return types.Lit{}, false
	}
	return types.EnumLit(class, name), true
}

// typingMember is the value of `typing.<name>`.
func typingMember(name string) types.Type {
	if form, ok := types.LookupSpecialForm(name); ok {
		return &types.SpecialFormValue{Form: form}
	}
	if name == "Any" {
		return types.TypeFormOf(types.AnyExplicitType())
	}
	return types.AnyImplicitType()
}
