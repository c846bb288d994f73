package types

import "strings"

func (a *Any) String() string {
	if a.Style == AnyExplicit {
		return "Any"
	}
	return "Unknown"
}

func (*None) String() string     { return "None" }
func (*Never) String() string    { return "Never" }
func (*Ellipsis) String() string { return "Ellipsis" }

func (l *Literal) String() string {
	return "Literal[" + l.Lit.String() + "]"
}

func (c *ClassType) String() string {
	if len(c.Args) == 0 {
		return c.Class.Name
	}
	return c.Class.Name + "[" + joinTypes(c.Args) + "]"
}

func (c *ClassDef) String() string {
	return "type[" + c.Class.Name + "]"
}

func (t *TypeForm) String() string {
	return "type[" + t.Inner.String() + "]"
}

func (u *Union) String() string {
	parts := make([]string, len(u.Members))
	for i, m := range u.Members {
		parts[i] = m.String()
	}
	return strings.Join(parts, " | ")
}

func (c *Concatenate) String() string {
	args := append(append([]Type{}, c.Args...), c.ParamSpec)
	return "Concatenate[" + joinTypes(args) + "]"
}

func (t *TypeGuard) String() string { return "TypeGuard[" + t.Inner.String() + "]" }
func (t *TypeIs) String() string    { return "TypeIs[" + t.Inner.String() + "]" }
func (t *Unpack) String() string    { return "Unpack[" + t.Inner.String() + "]" }

func (t *TypeVar) String() string      { return t.Name }
func (t *TypeVarTuple) String() string { return t.Name }
func (t *ParamSpec) String() string    { return t.Name }

func (s *SpecialFormValue) String() string { return s.Form.String() }

func (m *Module) String() string { return "Module[" + m.Name + "]" }
