package types

import "strings"

type ParamKind int

const (
	ParamPosOnly ParamKind = iota
	ParamPos
	ParamVarArg
	ParamKwOnly
	ParamKwargs
)

type Required int

const (
	RequiredParam Required = iota
	OptionalParam
)

type Param struct {
	Kind     ParamKind
	Name     string
	Type     Type
	Required Required
}

type ParamsKind int

const (
	// ParamsList is an explicit parameter list.
	ParamsList ParamsKind = iota
	// ParamsEllipsis accepts any arguments, `Callable[..., R]`.
	ParamsEllipsis
	// ParamsParamSpec forwards a ParamSpec, `Callable[P, R]`.
	ParamsParamSpec
	// ParamsConcatenate prepends positional types to a ParamSpec.
	ParamsConcatenate
)

type Params struct {
	Kind      ParamsKind
	List      []Param
	Prefix    []Type
	ParamSpec Type
}

type Callable struct {
	Params Params
	Ret    Type
}

func NewCallable(params []Param, ret Type) Type {
	return &Callable{Params: Params{Kind: ParamsList, List: params}, Ret: ret}
}

func CallableEllipsis(ret Type) Type {
	return &Callable{Params: Params{Kind: ParamsEllipsis}, Ret: ret}
}

func CallableParamSpec(pspec Type, ret Type) Type {
	return &Callable{Params: Params{Kind: ParamsParamSpec, ParamSpec: pspec}, Ret: ret}
}

func CallableConcatenate(prefix []Type, pspec Type, ret Type) Type {
	return &Callable{Params: Params{Kind: ParamsConcatenate, Prefix: prefix, ParamSpec: pspec}, Ret: ret}
}

func (p Param) String() string {
	var b strings.Builder
	switch p.Kind {
	case ParamVarArg:
		b.WriteString("*")
		if p.Name != "" {
			b.WriteString(p.Name + ": ")
		}
	case ParamKwargs:
		b.WriteString("**")
		if p.Name != "" {
			b.WriteString(p.Name + ": ")
		}
	default:
		if p.Name != "" && p.Kind != ParamPosOnly {
			b.WriteString(p.Name + ": ")
		}
	}
	b.WriteString(p.Type.String())
	if p.Required == OptionalParam {
		b.WriteString(" = ...")
	}
	return b.String()
}

func (c *Callable) String() string {
	var params string
	switch c.Params.Kind {
	case ParamsEllipsis:
		params = "..."
	case ParamsParamSpec:
		params = "**" + c.Params.ParamSpec.String()
	case ParamsConcatenate:
		parts := make([]string, 0, len(c.Params.Prefix)+1)
		for _, t := range c.Params.Prefix {
			parts = append(parts, t.String())
		}
		parts = append(parts, "**"+c.Params.ParamSpec.String())
		params = strings.Join(parts, ", ")
	default:
		parts := make([]string, len(c.Params.List))
		for i, p := range c.Params.List {
			parts[i] = p.String()
		}
		params = strings.Join(parts, ", ")
	}
	return "(" + params + ") -> " + c.Ret.String()
}
