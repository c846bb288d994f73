package types

import (
	"fmt"
	"math/big"
	"strings"
)

type LitKind int

const (
	LitInt LitKind = iota
	LitStr
	LitBytes
	LitBool
	LitEnum
)

// Lit is the payload of a `Literal[...]` type.
type Lit struct {
	Kind  LitKind
	Int   *big.Int
	Str   string
	Bytes []byte
	Bool  bool
	Enum  *EnumMember
}

type EnumMember struct {
	Class  *Class
	Member string
}

func IntLit(v *big.Int) Lit {
	return Lit{Kind: LitInt, Int: new(big.Int).Set(v)}
}

func IntLit64(v int64) Lit {
	return Lit{Kind: LitInt, Int: big.NewInt(v)}
}

func StrLit(s string) Lit {
	return Lit{Kind: LitStr, Str: s}
}

func BytesLit(b []byte) Lit {
	return Lit{Kind: LitBytes, Bytes: append([]byte(nil), b...)}
}

func BoolLit(b bool) Lit {
	return Lit{Kind: LitBool, Bool: b}
}

func EnumLit(class *Class, member string) Lit {
	return Lit{Kind: LitEnum, Enum: &EnumMember{Class: class, Member: member}}
}

// Negate flips the sign of an integer literal; other kinds are returned as is.
func (l Lit) Negate() Lit {
	if l.Kind != LitInt {
		return l
	}
	return Lit{Kind: LitInt, Int: new(big.Int).Neg(l.Int)}
}

func (l Lit) ToType() Type {
	return &Literal{Lit: l}
}

func (l Lit) String() string {
	switch l.Kind {
	case LitInt:
		return l.Int.String()
	case LitStr:
		return quotePython(l.Str)
	case LitBytes:
		return "b" + quotePython(string(l.Bytes))
	case LitBool:
		if l.Bool {
			return "True"
		}
		return "False"
	case LitEnum:
		return fmt.Sprintf("%s.%s", l.Enum.Class.Name, l.Enum.Member)
	default:
		return "?"
	}
}

func quotePython(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			b.WriteString(`\'`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
