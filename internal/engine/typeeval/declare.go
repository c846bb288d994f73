package typeeval

import (
	"slices"
	"strings"

	"typewalk/internal/engine/ast"
	"typewalk/internal/engine/diagnostics"
	"typewalk/internal/engine/types"
)

var enumBaseNames = []string{"Enum", "IntEnum", "StrEnum", "Flag", "IntFlag"}

// Declare records the top-level names of module in source order. Explicit
// type aliases (`X: TypeAlias = ...`) are evaluated eagerly and report into
// errs; other assignments are evaluated quietly, since most of them are not
// types at all.
func (e *Evaluator) Declare(module *ast.Module, errs *diagnostics.Collector) {
	for _, stmt := range module.Body {
		e.declare(stmt, errs)
	}
}

func (e *Evaluator) declare(stmt ast.Stmt, errs *diagnostics.Collector) {
	switch s := stmt.(type) {
	case *ast.Import:
		for _, alias := range s.Names {
			if alias.AsName != nil {
				e.Bind(alias.AsName.ID, &types.Module{Name: alias.Name.ID})
				continue
			}
			first, _, _ := strings.Cut(alias.Name.ID, ".")
			e.Bind(first, &types.Module{Name: first})
		}

	case *ast.ImportFrom:
		for _, alias := range s.Names {
			if alias.Name.ID == "*" {
				if s.Level == 0 && slices.Contains(typingModules, s.Module) {
					e.BindTypingNames()
				}
				continue
			}
			bound := alias.Name.ID
			if alias.AsName != nil {
				bound = alias.AsName.ID
			}
			e.Bind(bound, e.importedValue(s, alias.Name.ID))
		}

	case *ast.ClassDef:
		e.Bind(s.Name.ID, &types.ClassDef{Class: e.declareClass(s, errs)})

	case *ast.FunctionDef:
		e.Bind(s.Name.ID, types.AnyImplicitType())

	case *ast.Assign:
		for _, target := range s.Targets {
			if name, ok := target.(*ast.Name); ok {
				e.Bind(name.ID, e.assignedValue(name.ID, s.Value))
			}
		}

	case *ast.AnnAssign:
		name, ok := s.Target.(*ast.Name)
		if !ok || s.Value == nil {
			return
		}
		if e.IsTypeAlias(s.Annotation) {
			e.Bind(name.ID, types.TypeFormOf(e.Untype(s.Value, errs)))
			return
		}
		e.Bind(name.ID, e.assignedValue(name.ID, s.Value))

	case *ast.If:
		for _, inner := range s.Body {
			e.declare(inner, errs)
		}
		for _, inner := range s.Orelse {
			e.declare(inner, errs)
		}

	case *ast.OtherStmt:
		for _, inner := range s.Body {
			e.declare(inner, errs)
		}
	}
}

// importedValue is the value of `from <module> import <name>`. Only the
// typing modules and enum are known; anything else is an opaque Any.
func (e *Evaluator) importedValue(s *ast.ImportFrom, name string) types.Type {
	if s.Level > 0 {
		return types.AnyImplicitType()
	}
	switch {
	case slices.Contains(typingModules, s.Module):
		return typingMember(name)
	case s.Module == "enum" && slices.Contains(enumBaseNames, name):
		cls := &types.Class{Name: name, Module: "enum"}
		e.enumBases[cls] = true
		return &types.ClassDef{Class: cls}
	default:
		return types.AnyImplicitType()
	}
}

func (e *Evaluator) declareClass(s *ast.ClassDef, errs *diagnostics.Collector) *types.Class {
	cls := &types.Class{Name: s.Name.ID, Module: e.module}
	isEnum := false
	for _, base := range s.Bases {
		if def, ok := e.ExprInfer(base, errs).(*types.ClassDef); ok && (e.enumBases[def.Class] || def.Class.IsEnum()) {
			isEnum = true
		}
	}
	if !isEnum {
		return cls
	}
	for _, stmt := range s.Body {
		var target ast.Expr
		switch m := stmt.(type) {
		case *ast.Assign:
			if len(m.Targets) == 1 {
				target = m.Targets[0]
			}
		case *ast.AnnAssign:
			if m.Value != nil {
				target = m.Target
			}
		}
		if name, ok := target.(*ast.Name); ok && !strings.HasPrefix(name.ID, "_") {
			cls.EnumMembers = append(cls.EnumMembers, name.ID)
		}
	}
	return cls
}

// IsTypeAlias reports whether annotation is `TypeAlias` or `typing.TypeAlias`.
func (e *Evaluator) IsTypeAlias(annotation ast.Expr) bool {
	scratch := diagnostics.NewCollector("")
	sf, ok := e.ExprInfer(annotation, scratch).(*types.SpecialFormValue)
	return ok && sf.Form == types.FormTypeAlias
}

// assignedValue evaluates the right-hand side of `name = value` without
// reporting. Type variable declarations get their own values.
func (e *Evaluator) assignedValue(name string, value ast.Expr) types.Type {
	if call, ok := value.(*ast.Call); ok {
		factory := ast.DottedName(call.Func)
		if i := strings.LastIndexByte(factory, '.'); i >= 0 {
			factory = factory[i+1:]
		}
		switch factory {
		case "TypeVar":
			return &types.TypeVar{Name: name}
		case "TypeVarTuple":
			return &types.TypeVarTuple{Name: name}
		case "ParamSpec":
			return &types.ParamSpec{Name: name}
		}
		return types.AnyImplicitType()
	}
	scratch := diagnostics.NewCollector("")
	v := e.ExprInfer(value, scratch)
	if scratch.Len() > 0 {
		return types.AnyImplicitType()
	}
	return v
}
