package types

// SpecialForm is a subscriptable typing construct that is not a plain class.
type SpecialForm int

const (
	FormOptional SpecialForm = iota
	FormUnion
	FormTuple
	FormLiteral
	FormConcatenate
	FormCallable
	FormTypeGuard
	FormTypeIs
	FormUnpack
	FormType
	FormAnnotated
	FormSelfType
	FormLiteralString
	FormNever
	FormNoReturn
	FormTypeAlias
	FormTypedDict
	FormClassVar
	FormFinal
	FormGeneric
	FormProtocol
	FormReadOnly
	FormNotRequired
	FormRequired
)

var specialFormNames = [...]string{
	FormOptional:      "Optional",
	FormUnion:         "Union",
	FormTuple:         "Tuple",
	FormLiteral:       "Literal",
	FormConcatenate:   "Concatenate",
	FormCallable:      "Callable",
	FormTypeGuard:     "TypeGuard",
	FormTypeIs:        "TypeIs",
	FormUnpack:        "Unpack",
	FormType:          "Type",
	FormAnnotated:     "Annotated",
	FormSelfType:      "Self",
	FormLiteralString: "LiteralString",
	FormNever:         "Never",
	FormNoReturn:      "NoReturn",
	FormTypeAlias:     "TypeAlias",
	FormTypedDict:     "TypedDict",
	FormClassVar:      "ClassVar",
	FormFinal:         "Final",
	FormGeneric:       "Generic",
	FormProtocol:      "Protocol",
	FormReadOnly:      "ReadOnly",
	FormNotRequired:   "NotRequired",
	FormRequired:      "Required",
}

func (f SpecialForm) String() string {
	if int(f) < 0 || int(f) >= len(specialFormNames) {
		return "SpecialForm(?)"
	}
	return specialFormNames[f]
}

// LookupSpecialForm maps a `typing` export name to its form.
func LookupSpecialForm(name string) (SpecialForm, bool) {
	for i, n := range specialFormNames {
		if n == name {
			return SpecialForm(i), true
		}
	}
	return 0, false
}

// CanBeSubscripted is false for forms that are complete on their own.
func (f SpecialForm) CanBeSubscripted() bool {
	switch f {
	case FormSelfType, FormLiteralString, FormNever, FormNoReturn, FormTypeAlias, FormTypedDict:
		return false
	default:
		return true
	}
}
