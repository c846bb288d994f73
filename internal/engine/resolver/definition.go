package resolver

import (
	"log/slog"

	"typewalk/internal/engine/ast"
	"typewalk/internal/engine/bindings"
	"typewalk/internal/shared/observability"
	"typewalk/internal/shared/util"
)

// DefaultGas bounds each phase of a definition lookup. The walk gives up
// silently when it runs out, which is how binding cycles terminate.
const DefaultGas = 100

// Export is a definition that lives in the module being queried.
type Export struct {
	Location       ast.TextRange
	SymbolKind     *bindings.SymbolKind
	DocstringRange *ast.TextRange
}

// IntermediateDefinition is the editor-facing answer to "where is this
// defined": a local export, a named import to chase into another module, or
// a whole module.
type IntermediateDefinition interface {
	intermediateDefinition()
}

type LocalDefinition struct {
	Export Export
}

type NamedImportDefinition struct {
	UseRange          ast.TextRange
	Module            string
	Name              string
	OriginalNameRange *ast.TextRange
}

type ModuleDefinition struct {
	Module string
}

func (LocalDefinition) intermediateDefinition()       {}
func (NamedImportDefinition) intermediateDefinition() {}
func (ModuleDefinition) intermediateDefinition()      {}

type outcome string

const (
	outcomeFound      outcome = "found"
	outcomeUnresolved outcome = "unresolved"
	outcomeExhausted  outcome = "exhausted"
)

// DefinitionFinder walks binding graphs with a fixed per-phase step budget.
// It holds no state beyond the budget and may be shared across goroutines.
type DefinitionFinder struct {
	gas int
}

func NewDefinitionFinder(gas int) *DefinitionFinder {
	if gas <= 0 {
		gas = DefaultGas
	}
	return &DefinitionFinder{gas: gas}
}

// KeyToIntermediateDefinition resolves key with the default budget.
func KeyToIntermediateDefinition(b *bindings.Bindings, key bindings.Key) (IntermediateDefinition, bool) {
	return NewDefinitionFinder(DefaultGas).KeyToIntermediateDefinition(b, key)
}

func (f *DefinitionFinder) KeyToIntermediateDefinition(b *bindings.Bindings, key bindings.Key) (IntermediateDefinition, bool) {
	defKey, ok := f.FindDefinitionKey(b, key)
	if !ok {
		return nil, false
	}
	return f.CreateIntermediateDefinition(b, defKey)
}

// FindDefinitionKey follows the use-def chain from key to the nearest key that
// is itself a definition or an import. At a Phi the first branch stands in
// for all of them.
func (f *DefinitionFinder) FindDefinitionKey(b *bindings.Bindings, key bindings.Key) (bindings.Key, bool) {
	current, ok := b.KeyToIdx(key)
	if !ok {
		observability.ResolutionsTotal.WithLabelValues(string(outcomeUnresolved)).Inc()
		return bindings.Key{}, false
	}

	gas := util.NewGas(f.gas)
	for !gas.Stop() {
		currentKey := b.IdxToKey(current)
		if currentKey.IsDefinition() {
			observability.ResolutionsTotal.WithLabelValues(string(outcomeFound)).Inc()
			return currentKey, true
		}
		next, ok := nextDefinitionStep(b, b.Get(current))
		if !ok {
			observability.ResolutionsTotal.WithLabelValues(string(outcomeUnresolved)).Inc()
			return bindings.Key{}, false
		}
		current = next
	}

	slog.Debug("definition walk ran out of gas", "module", b.Module(), "key", key.String(), "gas", f.gas)
	observability.ResolutionsTotal.WithLabelValues(string(outcomeExhausted)).Inc()
	return bindings.Key{}, false
}

func nextDefinitionStep(b *bindings.Bindings, binding bindings.Binding) (bindings.Idx, bool) {
	switch v := binding.(type) {
	case *bindings.Forward:
		return v.To, true
	case *bindings.Narrow:
		return v.To, true
	case *bindings.Pin:
		return v.To, true
	case *bindings.PinUpstream:
		return v.To, true
	case *bindings.Default:
		return v.To, true
	case *bindings.Phi:
		if len(v.Branches) == 0 {
			return 0, false
		}
		return v.Branches[0], true
	case *bindings.CheckLegacyTypeParam:
		return b.LegacyTypeParam(v.Param).Key, true
	case *bindings.AssignToSubscript:
		return assignTargetBase(b, v.Target)
	case *bindings.AssignToAttribute:
		return assignTargetBase(b, v.Target)
	default:
		return 0, false
	}
}

// assignTargetBase maps `x.a[0] = ...` to the bound name `x` it mutates.
func assignTargetBase(b *bindings.Bindings, target ast.Expr) (bindings.Idx, bool) {
	base, ok := ast.ChainBase(target)
	if !ok {
		return 0, false
	}
	return b.KeyToIdx(bindings.BoundNameKey(base))
}

// CreateIntermediateDefinition describes defKey, which must already be a
// definition, as precisely as its binding allows.
func (f *DefinitionFinder) CreateIntermediateDefinition(b *bindings.Bindings, defKey bindings.Key) (IntermediateDefinition, bool) {
	idx, ok := b.KeyToIdx(defKey)
	if !ok {
		return nil, false
	}
	current := b.Get(idx)

	gas := util.NewGas(f.gas)
	for !gas.Stop() {
		switch v := current.(type) {
		case *bindings.Forward:
			current = b.Get(v.To)
		case *bindings.CheckLegacyTypeParam:
			current = b.Get(b.LegacyTypeParam(v.Param).Key)
		case *bindings.Import:
			return NamedImportDefinition{
				UseRange:          defKey.Range,
				Module:            v.Module,
				Name:              v.Name,
				OriginalNameRange: v.OriginalNameRange,
			}, true
		case *bindings.Module:
			return ModuleDefinition{Module: v.Name}, true
		case *bindings.Function:
			fn := b.Function(v.Def)
			return LocalDefinition{Export: Export{
				Location:       fn.Name.Range(),
				SymbolKind:     kindPtr(bindings.SymbolFunction),
				DocstringRange: fn.Docstring,
			}}, true
		case *bindings.ClassDef:
			switch cls := b.Class(v.Def).(type) {
			case *bindings.ClassBinding:
				return LocalDefinition{Export: Export{
					Location:       cls.Name.Range(),
					SymbolKind:     kindPtr(bindings.SymbolClass),
					DocstringRange: cls.Docstring,
				}}, true
			default:
				return LocalDefinition{Export: Export{
					Location:   defKey.Range,
					SymbolKind: kindPtr(bindings.SymbolClass),
				}}, true
			}
		default:
			export := Export{Location: defKey.Range}
			if kind, ok := current.SymbolKind(); ok {
				export.SymbolKind = kindPtr(kind)
			}
			return LocalDefinition{Export: export}, true
		}
	}

	slog.Debug("definition refinement ran out of gas", "module", b.Module(), "key", defKey.String(), "gas", f.gas)
	return nil, false
}

func kindPtr(k bindings.SymbolKind) *bindings.SymbolKind {
	return &k
}
