package bindings

import (
	"fmt"

	"typewalk/internal/engine/ast"
)

type KeyKind int

const (
	// KeyDefinition is a name introduced by an assignment, def, class or
	// parameter.
	KeyDefinition KeyKind = iota
	// KeyImport is a name introduced by an import statement.
	KeyImport
	// KeyBoundName is a name read at a given location.
	KeyBoundName
	// KeyAnon is an unnamed program point (an expression statement, an
	// annotation, ...).
	KeyAnon
	// KeyNarrow is a name refined by the test guarding a block.
	KeyNarrow
)

var keyKindNames = [...]string{
	KeyDefinition: "Definition",
	KeyImport:     "Import",
	KeyBoundName:  "BoundName",
	KeyAnon:       "Anon",
	KeyNarrow:     "Narrow",
}

func (k KeyKind) String() string {
	if int(k) < 0 || int(k) >= len(keyKindNames) {
		return "Key(?)"
	}
	return keyKindNames[k]
}

// Key identifies a program point. Keys are comparable and double as map keys.
type Key struct {
	Kind  KeyKind
	Name  string
	Range ast.TextRange
}

func DefinitionKey(id ast.Identifier) Key {
	return Key{Kind: KeyDefinition, Name: id.ID, Range: id.Range()}
}

func ImportKey(name string, rng ast.TextRange) Key {
	return Key{Kind: KeyImport, Name: name, Range: rng}
}

func BoundNameKey(name *ast.Name) Key {
	return Key{Kind: KeyBoundName, Name: name.ID, Range: name.Range()}
}

func AnonKey(rng ast.TextRange) Key {
	return Key{Kind: KeyAnon, Range: rng}
}

// MergeKey names the value of name after the control-flow join ending at rng.
func MergeKey(name string, rng ast.TextRange) Key {
	return Key{Kind: KeyAnon, Name: name, Range: rng}
}

// NarrowKey names the refinement of name that holds inside the block at rng.
func NarrowKey(name string, rng ast.TextRange) Key {
	return Key{Kind: KeyNarrow, Name: name, Range: rng}
}

// IsDefinition reports whether the key itself introduces a name in the
// current module; resolution stops at such keys.
func (k Key) IsDefinition() bool {
	return k.Kind == KeyDefinition || k.Kind == KeyImport
}

func (k Key) String() string {
	if k.Name == "" {
		return fmt.Sprintf("%s(%s)", k.Kind, k.Range)
	}
	return fmt.Sprintf("%s(%s @ %s)", k.Kind, k.Name, k.Range)
}
