package specials

import (
	"fmt"

	"typewalk/internal/engine/ast"
	"typewalk/internal/engine/diagnostics"
	"typewalk/internal/engine/types"
)

func extraUnpackError(errs *diagnostics.Collector, rng ast.TextRange) {
	errs.Add(rng, diagnostics.BadUnpacking, "Only one unbounded type is allowed to be unpacked")
}

// CheckArgsAndConstructTuple builds the tuple described by the elements of a
// `tuple[...]` subscript or a `Callable[[...], R]` parameter list. hadUnpack
// reports whether any element was unpacked. On failure a diagnostic has been
// recorded and ok is false.
func (b *Builder) CheckArgsAndConstructTuple(args []ast.Expr, errs *diagnostics.Collector) (tuple *types.Tuple, hadUnpack bool, ok bool) {
	var prefix, suffix []types.Type
	var middle types.Type

	push := func(ts ...types.Type) {
		if middle == nil {
			prefix = append(prefix, ts...)
		} else {
			suffix = append(suffix, ts...)
		}
	}

	for _, arg := range args {
		if _, isEllipsis := arg.(*ast.EllipsisLiteral); isEllipsis {
			if len(prefix) != 1 || middle != nil || len(args) != 2 {
				errs.Add(arg.Range(), diagnostics.InvalidArgument, "Invalid position for `...`")
				return nil, false, false
			}
			if hadUnpack || types.IsUnpack(prefix[0]) {
				errs.Add(arg.Range(), diagnostics.InvalidArgument,
					"`...` cannot be used with an unpacked `TypeVarTuple` or tuple")
				return nil, false, false
			}
			return types.UnboundedTuple(prefix[0]), false, true
		}

		t := b.eval.ExprUntype(arg, TupleOrCallableParam, errs)
		unpack, isUnpack := t.(*types.Unpack)
		if !isUnpack {
			if types.IsTypeVarTuple(t) {
				errs.Add(arg.Range(), diagnostics.InvalidTypeVarTuple, "`TypeVarTuple` must be unpacked")
				return nil, false, false
			}
			push(t)
			continue
		}

		switch inner := unpack.Inner.(type) {
		case *types.Tuple:
			hadUnpack = true
			switch inner.Shape {
			case types.TupleConcrete:
				push(inner.Prefix...)
			case types.TupleUnbounded:
				if middle != nil {
					extraUnpackError(errs, arg.Range())
					return nil, false, false
				}
				middle = inner
			default:
				if middle != nil {
					extraUnpackError(errs, arg.Range())
					return nil, false, false
				}
				prefix = append(prefix, inner.Prefix...)
				middle = inner.Middle
				suffix = append(suffix, inner.Suffix...)
			}
		case *types.TypeVarTuple:
			hadUnpack = true
			if middle != nil {
				extraUnpackError(errs, arg.Range())
				return nil, false, false
			}
			middle = inner
		default:
			errs.Add(arg.Range(), diagnostics.BadUnpacking,
				fmt.Sprintf("Expected a tuple or `TypeVarTuple`, got `%s`", unpack.Inner))
			return nil, false, false
		}
	}

	if middle != nil {
		return types.UnpackedTuple(prefix, middle, suffix), hadUnpack, true
	}
	return types.ConcreteTuple(prefix), hadUnpack, true
}
