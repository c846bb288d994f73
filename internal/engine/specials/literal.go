package specials

import (
	"fmt"

	"typewalk/internal/engine/ast"
	"typewalk/internal/engine/diagnostics"
	"typewalk/internal/engine/types"
)

// applyLiteral evaluates one argument of `Literal[...]` and appends the
// resulting literal types to literals.
func (b *Builder) applyLiteral(arg ast.Expr, errs *diagnostics.Collector, literals []types.Type) []types.Type {
	invalid := func(rng ast.TextRange, msg string) []types.Type {
		return append(literals, errs.Error(rng, diagnostics.InvalidLiteral, msg))
	}

	switch x := arg.(type) {
	case *ast.UnaryOp:
		n, ok := x.Operand.(*ast.IntLiteral)
		if !ok || (x.Op != ast.UAdd && x.Op != ast.USub) {
			return invalid(x.Range(), "Invalid literal expression")
		}
		lit := types.IntLit(n.Value)
		if x.Op == ast.USub {
			lit = lit.Negate()
		}
		return append(literals, lit.ToType())

	case *ast.IntLiteral:
		return append(literals, types.IntLit(x.Value).ToType())

	case *ast.StringLiteral:
		return append(literals, types.StrLit(x.Value).ToType())

	case *ast.BytesLiteral:
		return append(literals, types.BytesLit(x.Value).ToType())

	case *ast.BooleanLiteral:
		return append(literals, types.BoolLit(x.Value).ToType())

	case *ast.NoneLiteral:
		return append(literals, &types.None{})

	case *ast.Name:
		t := b.eval.ExprUntype(x, TypeArgument, errs)
		if !isValidLiteral(t) {
			return invalid(x.Range(), fmt.Sprintf("Invalid type inside literal, `%s`", t))
		}
		return append(literals, t)

	case *ast.Attribute:
		if !ast.IsChainedAttributeAccess(x.Value) {
			return invalid(x.Range(), "Invalid literal expression")
		}
		switch owner := b.eval.ExprInfer(x.Value, errs).(type) {
		case *types.ClassDef:
			if member, ok := b.eval.GetEnumMember(owner.Class, x.Attr.ID); ok {
				return append(literals, member.ToType())
			}
		case *types.Any:
			if owner.Style == types.AnyError {
				return append(literals, owner)
			}
		}
		return invalid(x.Range(), fmt.Sprintf("`%s.%s` is not a valid enum member", ast.DottedName(x.Value), x.Attr.ID))

	case *ast.Subscript:
		types.MapOverUnion(b.eval.ExprInfer(x, errs), func(t types.Type) {
			if form, ok := t.(*types.TypeForm); ok {
				if lit, ok := form.Inner.(*types.Literal); ok {
					literals = append(literals, lit)
					return
				}
			}
			if types.IsAnyError(t) {
				literals = append(literals, t)
				return
			}
			literals = invalid(x.Range(), "Invalid literal expression")
		})
		return literals

	default:
		return invalid(arg.Range(), "Invalid literal expression")
	}
}

// isValidLiteral accepts None, literals and error-Any, through unions.
func isValidLiteral(t types.Type) bool {
	switch v := t.(type) {
	case *types.None, *types.Literal:
		return true
	case *types.Any:
		return v.Style == types.AnyError
	case *types.Union:
		for _, m := range v.Members {
			if !isValidLiteral(m) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
