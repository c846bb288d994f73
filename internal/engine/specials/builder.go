// Package specials turns subscripted typing special forms such as
// `Optional[int]` or `Callable[[int], str]` into types. Problems are reported
// to a diagnostics.Collector and replaced by fallback types, so building a
// form always yields a usable type.
package specials

import (
	"fmt"

	"typewalk/internal/engine/ast"
	"typewalk/internal/engine/diagnostics"
	"typewalk/internal/engine/types"
)

// TypeFormContext tells the evaluator where a type expression appears, which
// decides what it may legally denote.
type TypeFormContext int

const (
	TypeArgument TypeFormContext = iota
	TupleOrCallableParam
	TypeArgumentCallableReturn
	TypeArgumentForType
)

func (c TypeFormContext) String() string {
	switch c {
	case TypeArgument:
		return "type-argument"
	case TupleOrCallableParam:
		return "tuple-or-callable-param"
	case TypeArgumentCallableReturn:
		return "callable-return"
	case TypeArgumentForType:
		return "type-argument-for-type"
	default:
		return "unknown"
	}
}

// Evaluator is the expression evaluator the builder calls back into.
type Evaluator interface {
	// ExprUntype evaluates expr as a type annotation.
	ExprUntype(expr ast.Expr, ctx TypeFormContext, errs *diagnostics.Collector) types.Type
	// ExprInfer evaluates expr as a runtime value.
	ExprInfer(expr ast.Expr, errs *diagnostics.Collector) types.Type
	Unions(ts []types.Type) types.Type
	GetEnumMember(class *types.Class, name string) (types.Lit, bool)
}

// Builder holds no state of its own; it is safe for concurrent use whenever
// its Evaluator is.
type Builder struct {
	eval Evaluator
}

func NewBuilder(eval Evaluator) *Builder {
	return &Builder{eval: eval}
}

// splitArguments treats a tuple subscript as its elements and anything else
// as a single argument.
func splitArguments(arguments ast.Expr) ([]ast.Expr, bool) {
	if tuple, ok := arguments.(*ast.Tuple); ok {
		return tuple.Elts, tuple.Parenthesized
	}
	return []ast.Expr{arguments}, false
}

// ApplySpecialForm builds the type denoted by `form[arguments]`. rng covers
// the whole subscript and anchors arity diagnostics.
func (b *Builder) ApplySpecialForm(form types.SpecialForm, arguments ast.Expr, rng ast.TextRange, errs *diagnostics.Collector) types.Type {
	args, parens := splitArguments(arguments)

	switch form {
	case types.FormOptional:
		if len(args) != 1 {
			return errs.Error(rng, diagnostics.BadSpecialization,
				fmt.Sprintf("`Optional` requires exactly one argument but %d was found", len(args)))
		}
		return types.TypeFormOf(types.Optional(b.eval.ExprUntype(args[0], TypeArgument, errs)))

	case types.FormUnion:
		members := make([]types.Type, len(args))
		for i, arg := range args {
			members[i] = b.eval.ExprUntype(arg, TypeArgument, errs)
		}
		return types.TypeFormOf(b.eval.Unions(members))

	case types.FormTuple:
		tuple, _, ok := b.CheckArgsAndConstructTuple(args, errs)
		if !ok {
			return types.TypeFormOf(types.UnboundedTuple(types.AnyErrorType()))
		}
		return types.TypeFormOf(tuple)

	case types.FormLiteral:
		if parens {
			errs.Add(rng, diagnostics.InvalidLiteral, "`Literal` arguments cannot be parenthesized")
		}
		var literals []types.Type
		for _, arg := range args {
			literals = b.applyLiteral(arg, errs, literals)
		}
		return types.TypeFormOf(b.eval.Unions(literals))

	case types.FormConcatenate:
		return b.applyConcatenate(args, rng, errs)

	case types.FormCallable:
		return b.applyCallable(args, rng, errs)

	case types.FormTypeGuard, types.FormTypeIs, types.FormUnpack, types.FormType:
		if len(args) != 1 {
			return errs.Error(rng, diagnostics.BadSpecialization,
				fmt.Sprintf("`%s` requires exactly one argument but got %d", form, len(args)))
		}
		return types.TypeFormOf(b.wrapSingle(form, args[0], errs))

	case types.FormAnnotated:
		if len(args) > 1 {
			// Metadata arguments are not interpreted.
			return b.eval.ExprInfer(args[0], errs)
		}
		return errs.Error(rng, diagnostics.InvalidAnnotation,
			fmt.Sprintf("`%s` is not allowed in this context", form))

	case types.FormSelfType, types.FormLiteralString, types.FormNever, types.FormNoReturn,
		types.FormTypeAlias, types.FormTypedDict:
		return errs.Error(rng, diagnostics.InvalidAnnotation,
			fmt.Sprintf("`%s` may not be subscripted", form))

	default:
		return errs.Error(rng, diagnostics.InvalidAnnotation,
			fmt.Sprintf("`%s` is not allowed in this context", form))
	}
}

func (b *Builder) wrapSingle(form types.SpecialForm, arg ast.Expr, errs *diagnostics.Collector) types.Type {
	switch form {
	case types.FormTypeGuard:
		return &types.TypeGuard{Inner: b.eval.ExprUntype(arg, TypeArgument, errs)}
	case types.FormTypeIs:
		return &types.TypeIs{Inner: b.eval.ExprUntype(arg, TypeArgument, errs)}
	case types.FormUnpack:
		return &types.Unpack{Inner: b.eval.ExprUntype(arg, TypeArgument, errs)}
	default:
		return types.TypeFormOf(b.eval.ExprUntype(arg, TypeArgumentForType, errs))
	}
}

func (b *Builder) applyConcatenate(args []ast.Expr, rng ast.TextRange, errs *diagnostics.Collector) types.Type {
	if len(args) < 2 {
		return errs.Error(rng, diagnostics.BadSpecialization,
			fmt.Sprintf("`Concatenate` must take at least two arguments, got %d", len(args)))
	}
	prefix := make([]types.Type, 0, len(args)-1)
	for _, arg := range args[:len(args)-1] {
		prefix = append(prefix, b.eval.ExprUntype(arg, TupleOrCallableParam, errs))
	}
	pspec := b.eval.ExprUntype(args[len(args)-1], TypeArgument, errs)
	if !types.IsParamSpec(pspec) {
		errs.Add(rng, diagnostics.BadSpecialization,
			fmt.Sprintf("Expected a `ParamSpec` for the second argument of `Concatenate`, got %s", pspec))
	}
	return types.TypeFormOf(&types.Concatenate{Args: prefix, ParamSpec: pspec})
}

func (b *Builder) applyCallable(args []ast.Expr, rng ast.TextRange, errs *diagnostics.Collector) types.Type {
	fallback := types.TypeFormOf(types.CallableEllipsis(types.AnyErrorType()))
	if len(args) != 2 {
		errs.Add(rng, diagnostics.BadSpecialization,
			fmt.Sprintf("`Callable` requires exactly two arguments but %d was found", len(args)))
		return fallback
	}

	ret := b.eval.ExprUntype(args[1], TypeArgumentCallableReturn, errs)
	switch params := args[0].(type) {
	case *ast.List:
		tuple, hadUnpack, ok := b.CheckArgsAndConstructTuple(params.Elts, errs)
		switch {
		case !ok:
			return fallback
		case hadUnpack:
			return types.TypeFormOf(types.NewCallable([]types.Param{{
				Kind:     types.ParamVarArg,
				Type:     &types.Unpack{Inner: tuple},
				Required: types.RequiredParam,
			}}, ret))
		case tuple.Shape == types.TupleConcrete:
			list := make([]types.Param, len(tuple.Prefix))
			for i, t := range tuple.Prefix {
				list[i] = types.Param{Kind: types.ParamPosOnly, Type: t, Required: types.RequiredParam}
			}
			return types.TypeFormOf(types.NewCallable(list, ret))
		default:
			errs.Add(rng, diagnostics.BadSpecialization, "Unrecognized callable type form")
			return fallback
		}

	case *ast.EllipsisLiteral:
		return types.TypeFormOf(types.CallableEllipsis(ret))

	case *ast.Name:
		t := b.eval.ExprUntype(params, TypeArgument, errs)
		if !types.IsParamSpec(t) {
			errs.Add(params.Range(), diagnostics.BadSpecialization,
				fmt.Sprintf("Callable types can only have `ParamSpec` in this position, got `%s`", t))
			return fallback
		}
		return types.TypeFormOf(types.CallableParamSpec(t, ret))

	case *ast.Subscript:
		t := b.eval.ExprUntype(params, TypeArgument, errs)
		concat, ok := t.(*types.Concatenate)
		if !ok {
			errs.Add(params.Range(), diagnostics.BadSpecialization,
				fmt.Sprintf("Callable types can only have `Concatenate` in this position, got `%s`", t))
			return fallback
		}
		return types.TypeFormOf(types.CallableConcatenate(concat.Args, concat.ParamSpec, ret))

	default:
		errs.Add(params.Range(), diagnostics.InvalidSyntax, "Invalid `Callable` type")
		return fallback
	}
}
