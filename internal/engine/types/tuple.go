package types

import "strings"

type TupleShape int

const (
	// TupleConcrete is a fixed sequence, `tuple[int, str]`.
	TupleConcrete TupleShape = iota
	// TupleUnbounded repeats one element type, `tuple[int, ...]`.
	TupleUnbounded
	// TupleUnpacked is prefix, one variadic middle, suffix:
	// `tuple[int, *Ts, str]`.
	TupleUnpacked
)

// Tuple keeps its elements in Prefix for concrete tuples and its repeated
// element in Middle for unbounded ones. Only unpacked tuples use all three.
type Tuple struct {
	Shape  TupleShape
	Prefix []Type
	Middle Type
	Suffix []Type
}

func ConcreteTuple(elts []Type) *Tuple {
	return &Tuple{Shape: TupleConcrete, Prefix: elts}
}

func UnboundedTuple(elt Type) *Tuple {
	return &Tuple{Shape: TupleUnbounded, Middle: elt}
}

// UnpackedTuple builds `tuple[*prefix, *middle, *suffix]`. middle is either an
// unbounded tuple or a TypeVarTuple.
func UnpackedTuple(prefix []Type, middle Type, suffix []Type) *Tuple {
	return &Tuple{Shape: TupleUnpacked, Prefix: prefix, Middle: middle, Suffix: suffix}
}

func (t *Tuple) String() string {
	switch t.Shape {
	case TupleUnbounded:
		return "tuple[" + t.Middle.String() + ", ...]"
	case TupleUnpacked:
		parts := make([]string, 0, len(t.Prefix)+len(t.Suffix)+1)
		for _, p := range t.Prefix {
			parts = append(parts, p.String())
		}
		parts = append(parts, "*"+t.Middle.String())
		for _, s := range t.Suffix {
			parts = append(parts, s.String())
		}
		return "tuple[" + strings.Join(parts, ", ") + "]"
	default:
		if len(t.Prefix) == 0 {
			return "tuple[()]"
		}
		return "tuple[" + joinTypes(t.Prefix) + "]"
	}
}
