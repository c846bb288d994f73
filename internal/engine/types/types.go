// Package types holds the evaluated type model produced by the special-form
// builder and the reference evaluator.
package types

import (
	"reflect"
	"strings"
)

type Type interface {
	String() string
	typeNode()
}

type AnyStyle int

const (
	AnyExplicit AnyStyle = iota
	AnyImplicit
	// AnyError marks a value substituted after a reported problem.
	AnyError
)

type (
	Any struct {
		Style AnyStyle
	}

	None struct{}

	Never struct{}

	Ellipsis struct{}

	Literal struct {
		Lit Lit
	}

	// ClassType is an instance of a class, e.g. `int` or `list[str]`.
	ClassType struct {
		Class *Class
		Args  []Type
	}

	// ClassDef is the class object itself.
	ClassDef struct {
		Class *Class
	}

	// TypeForm is the value of an expression that denotes a type, `type[X]`.
	TypeForm struct {
		Inner Type
	}

	Union struct {
		Members []Type
	}

	Concatenate struct {
		Args      []Type
		ParamSpec Type
	}

	TypeGuard struct {
		Inner Type
	}

	TypeIs struct {
		Inner Type
	}

	Unpack struct {
		Inner Type
	}

	TypeVar struct {
		Name string
	}

	TypeVarTuple struct {
		Name string
	}

	ParamSpec struct {
		Name string
	}

	// SpecialFormValue is an unsubscripted special form such as `Optional`.
	SpecialFormValue struct {
		Form SpecialForm
	}

	// Module is the value of an imported module name.
	Module struct {
		Name string
	}
)

// Class describes a user or builtin class.
type Class struct {
	Name        string
	Module      string
	EnumMembers []string
}

func (c *Class) IsEnum() bool {
	return len(c.EnumMembers) > 0
}

func (c *Class) HasEnumMember(name string) bool {
	for _, member := range c.EnumMembers {
		if member == name {
			return true
		}
	}
	return false
}

func (*Any) typeNode()              {}
func (*None) typeNode()             {}
func (*Never) typeNode()            {}
func (*Ellipsis) typeNode()         {}
func (*Literal) typeNode()          {}
func (*ClassType) typeNode()        {}
func (*ClassDef) typeNode()         {}
func (*TypeForm) typeNode()         {}
func (*Union) typeNode()            {}
func (*Tuple) typeNode()            {}
func (*Callable) typeNode()         {}
func (*Concatenate) typeNode()      {}
func (*TypeGuard) typeNode()        {}
func (*TypeIs) typeNode()           {}
func (*Unpack) typeNode()           {}
func (*TypeVar) typeNode()          {}
func (*TypeVarTuple) typeNode()     {}
func (*ParamSpec) typeNode()        {}
func (*SpecialFormValue) typeNode() {}
func (*Module) typeNode()           {}

func AnyErrorType() Type    { return &Any{Style: AnyError} }
func AnyImplicitType() Type { return &Any{Style: AnyImplicit} }
func AnyExplicitType() Type { return &Any{Style: AnyExplicit} }

func IsAnyError(t Type) bool {
	a, ok := t.(*Any)
	return ok && a.Style == AnyError
}

func IsUnpack(t Type) bool {
	_, ok := t.(*Unpack)
	return ok
}

func IsTypeVarTuple(t Type) bool {
	_, ok := t.(*TypeVarTuple)
	return ok
}

func IsParamSpec(t Type) bool {
	_, ok := t.(*ParamSpec)
	return ok
}

func TypeFormOf(t Type) Type {
	return &TypeForm{Inner: t}
}

func Instance(c *Class, args ...Type) Type {
	return &ClassType{Class: c, Args: args}
}

// Optional is `t | None`.
func Optional(t Type) Type {
	return Unions([]Type{t, &None{}})
}

// Unions flattens nested unions and drops duplicates, keeping first-seen order.
// No members is Never; a single member is returned unchanged.
func Unions(ts []Type) Type {
	members := make([]Type, 0, len(ts))
	var add func(t Type)
	add = func(t Type) {
		if u, ok := t.(*Union); ok {
			for _, m := range u.Members {
				add(m)
			}
			return
		}
		if _, ok := t.(*Never); ok && len(ts) > 1 {
			return
		}
		for _, existing := range members {
			if Equal(existing, t) {
				return
			}
		}
		members = append(members, t)
	}
	for _, t := range ts {
		add(t)
	}
	switch len(members) {
	case 0:
		return &Never{}
	case 1:
		return members[0]
	default:
		return &Union{Members: members}
	}
}

// MapOverUnion calls fn for each union member, or once for a non-union.
func MapOverUnion(t Type, fn func(Type)) {
	if u, ok := t.(*Union); ok {
		for _, m := range u.Members {
			fn(m)
		}
		return
	}
	fn(t)
}

// Equal is structural equality.
func Equal(a, b Type) bool {
	return reflect.DeepEqual(a, b)
}

func joinTypes(ts []Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
